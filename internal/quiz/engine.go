package quiz

import (
	"errors"
	"fmt"
)

var (
	ErrNoQuiz            = errors.New("no quiz for lesson")
	ErrNoQuestions       = errors.New("quiz has no questions")
	ErrUnanswered        = errors.New("current question has no answer")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrOptionOutOfRange  = errors.New("option out of range")
	ErrInvalidSession    = errors.New("invalid session")
)

type Phase string

const (
	PhaseIntro      Phase = "intro"
	PhaseInProgress Phase = "in_progress"
	PhaseResults    Phase = "results"
)

type ActionType string

const (
	ActionStart    ActionType = "start"
	ActionSelect   ActionType = "select"
	ActionNext     ActionType = "next"
	ActionPrevious ActionType = "previous"
	ActionRetake   ActionType = "retake"
)

// Action is one learner interaction. Option is only read by ActionSelect.
type Action struct {
	Type   ActionType `json:"type"`
	Option int        `json:"option,omitempty"`
}

// Session is the state of one quiz attempt. It is never persisted; whoever
// renders the quiz owns it and hands it back on every transition.
type Session struct {
	Phase         Phase       `json:"phase"`
	QuestionIndex int         `json:"question_index"`
	Answers       map[int]int `json:"selected_answers"` // question index -> option index
}

func NewSession() Session {
	return Session{Phase: PhaseIntro, Answers: map[int]int{}}
}

// Answer reports the option chosen for question i, if any.
func (s Session) Answer(i int) (int, bool) {
	v, ok := s.Answers[i]
	return v, ok
}

func (s Session) clone() Session {
	out := s
	out.Answers = make(map[int]int, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	return out
}

// Engine runs the attempt state machine over a fixed question list.
type Engine struct {
	questions []Question
}

// NewEngine refuses a missing quiz and a quiz without questions alike;
// callers render nothing in both cases.
func NewEngine(q *Quiz) (*Engine, error) {
	if q == nil {
		return nil, ErrNoQuiz
	}
	if len(q.Questions) == 0 {
		return nil, ErrNoQuiz
	}
	return &Engine{questions: q.Questions}, nil
}

func (e *Engine) Len() int { return len(e.questions) }

func (e *Engine) Question(i int) Question { return e.questions[i] }

// Reduce applies a to s and returns the next session. s is never modified;
// on error the returned session is s unchanged.
func (e *Engine) Reduce(s Session, a Action) (Session, error) {
	if err := e.Validate(s); err != nil {
		return s, err
	}
	switch s.Phase {
	case PhaseIntro:
		if a.Type == ActionStart {
			return e.restart(), nil
		}
	case PhaseInProgress:
		switch a.Type {
		case ActionSelect:
			if a.Option < 0 || a.Option >= len(e.questions[s.QuestionIndex].Options) {
				return s, fmt.Errorf("%w: %d", ErrOptionOutOfRange, a.Option)
			}
			next := s.clone()
			next.Answers[s.QuestionIndex] = a.Option
			return next, nil
		case ActionPrevious:
			next := s.clone()
			if next.QuestionIndex > 0 {
				next.QuestionIndex--
			}
			return next, nil
		case ActionNext:
			if _, ok := s.Answer(s.QuestionIndex); !ok {
				return s, ErrUnanswered
			}
			next := s.clone()
			if next.QuestionIndex < len(e.questions)-1 {
				next.QuestionIndex++
			} else {
				next.Phase = PhaseResults
			}
			return next, nil
		}
	case PhaseResults:
		if a.Type == ActionRetake {
			return e.restart(), nil
		}
	}
	return s, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, a.Type, s.Phase)
}

func (e *Engine) restart() Session {
	return Session{Phase: PhaseInProgress, QuestionIndex: 0, Answers: map[int]int{}}
}

// Validate checks a session handed back by a client against this quiz.
func (e *Engine) Validate(s Session) error {
	switch s.Phase {
	case PhaseIntro, PhaseInProgress, PhaseResults:
	default:
		return fmt.Errorf("%w: unknown phase %q", ErrInvalidSession, s.Phase)
	}
	if s.QuestionIndex < 0 || s.QuestionIndex >= len(e.questions) {
		return fmt.Errorf("%w: question index %d", ErrInvalidSession, s.QuestionIndex)
	}
	for qi, oi := range s.Answers {
		if qi < 0 || qi >= len(e.questions) {
			return fmt.Errorf("%w: answer for question %d", ErrInvalidSession, qi)
		}
		if oi < 0 || oi >= len(e.questions[qi].Options) {
			return fmt.Errorf("%w: option %d for question %d", ErrInvalidSession, oi, qi)
		}
	}
	return nil
}

// Score tallies the session's answers.
func (e *Engine) Score(s Session) (Score, error) {
	return Tally(e.questions, s.Answers)
}

// Review classifies every option of every question for the results view.
func (e *Engine) Review(s Session) []QuestionReview {
	return Review(e.questions, s.Answers)
}
