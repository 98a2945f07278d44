package quiz

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-lessons/internal/validation"
)

var ErrQuizExists = errors.New("lesson already has a quiz")

// Revalidator is told which rendered pages went stale after a write.
type Revalidator interface {
	Revalidate(ctx context.Context, paths ...string) error
}

type Service struct {
	store    Store
	rev      Revalidator
	log      *zap.Logger
	validate *validation.Validator
}

func NewService(store Store, rev Revalidator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, rev: rev, log: log, validate: newValidator()}
}

// LessonPath is the page that renders a lesson and its quiz.
func LessonPath(lessonID string) string { return "/lesson/" + lessonID }

// ForLesson loads the quiz a learner sees. Backend failures are logged and
// reported the same way as a missing quiz.
func (s *Service) ForLesson(ctx context.Context, lessonID string) *Quiz {
	q, err := s.store.FetchQuizForLesson(ctx, lessonID)
	if err != nil {
		s.log.Error("fetch quiz", zap.String("lesson_id", lessonID), zap.Error(err))
		return nil
	}
	return q
}

// Player returns the quiz and an engine over it, or ErrNoQuiz when there is
// nothing to play.
func (s *Service) Player(ctx context.Context, lessonID string) (*Quiz, *Engine, error) {
	q := s.ForLesson(ctx, lessonID)
	eng, err := NewEngine(q)
	if err != nil {
		return nil, nil, err
	}
	return q, eng, nil
}

// Admin returns the full quiz, answer key included, for the authoring view.
func (s *Service) Admin(ctx context.Context, lessonID string) (*Quiz, error) {
	q, err := s.store.FetchQuizForLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrNotFound
	}
	return q, nil
}

func (s *Service) CreateQuiz(ctx context.Context, lessonID string, in QuizInput) (Quiz, error) {
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return Quiz{}, err
	}
	ok, err := s.store.LessonExists(ctx, lessonID)
	if err != nil {
		return Quiz{}, err
	}
	if !ok {
		return Quiz{}, ErrLessonNotFound
	}
	existing, err := s.store.FetchQuizForLesson(ctx, lessonID)
	if err != nil {
		return Quiz{}, err
	}
	if existing != nil {
		return Quiz{}, ErrQuizExists
	}
	q, err := s.store.CreateQuiz(ctx, lessonID, in.Title)
	if err != nil {
		s.log.Error("create quiz", zap.String("lesson_id", lessonID), zap.Error(err))
		return Quiz{}, err
	}
	s.revalidate(ctx, LessonPath(lessonID))
	return q, nil
}

func (s *Service) DeleteQuiz(ctx context.Context, id string) error {
	q, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteQuiz(ctx, id); err != nil {
		s.log.Error("delete quiz", zap.String("quiz_id", id), zap.Error(err))
		return err
	}
	s.revalidate(ctx, LessonPath(q.LessonID))
	return nil
}

// AddQuestion appends a question. Its order index is the number of
// questions that exist right now; deletions leave gaps that are never closed.
func (s *Service) AddQuestion(ctx context.Context, quizID string, in QuestionInput) (Question, error) {
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return Question{}, err
	}
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return Question{}, err
	}
	n, err := s.store.CountQuestions(ctx, quizID)
	if err != nil {
		return Question{}, err
	}
	created, err := s.store.CreateQuestion(ctx, Question{
		QuizID:     quizID,
		Question:   in.Question,
		Options:    in.options(),
		OrderIndex: n,
	})
	if err != nil {
		s.log.Error("create quiz question", zap.String("quiz_id", quizID), zap.Error(err))
		return Question{}, err
	}
	s.revalidate(ctx, "/admin", LessonPath(q.LessonID))
	return created, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, id string, in QuestionInput) (Question, error) {
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return Question{}, err
	}
	updated, err := s.store.UpdateQuestion(ctx, id, in.Question, in.options())
	if err != nil {
		if !errors.Is(err, ErrQuestionNotFound) {
			s.log.Error("update quiz question", zap.String("question_id", id), zap.Error(err))
		}
		return Question{}, err
	}
	s.revalidate(ctx, "/admin")
	return updated, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		if !errors.Is(err, ErrQuestionNotFound) {
			s.log.Error("delete quiz question", zap.String("question_id", id), zap.Error(err))
		}
		return err
	}
	s.revalidate(ctx, "/admin")
	return nil
}

func (s *Service) revalidate(ctx context.Context, paths ...string) {
	if s.rev == nil {
		return
	}
	if err := s.rev.Revalidate(ctx, paths...); err != nil {
		s.log.Warn("revalidate", zap.Strings("paths", paths), zap.Error(err))
	}
}
