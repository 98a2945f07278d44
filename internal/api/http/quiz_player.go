package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-lessons/internal/metrics"
	"github.com/mind-engage/mindengage-lessons/internal/quiz"
)

// GetQuizHandler serves the quiz without its answer key plus a fresh intro
// session. A lesson without a playable quiz answers 204.
func GetQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, _, err := svc.Player(r.Context(), chi.URLParam(r, "lessonID"))
		if err != nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"quiz":    q.Public(),
			"session": quiz.NewSession(),
		})
	}
}

type sessionRequest struct {
	Session *quiz.Session `json:"session"`
	Action  quiz.Action   `json:"action"`
}

type currentQuestion struct {
	Index    int                 `json:"index"`
	Total    int                 `json:"total"`
	Selected *int                `json:"selected"`
	Question quiz.PublicQuestion `json:"question"`
}

type scoreView struct {
	quiz.Score
	Percentage int `json:"percentage"`
}

type sessionResponse struct {
	Session  quiz.Session          `json:"session"`
	Question *currentQuestion      `json:"question,omitempty"`
	Score    *scoreView            `json:"score,omitempty"`
	Review   []quiz.QuestionReview `json:"review,omitempty"`
}

// QuizSessionHandler applies one learner action to the session the client
// holds and returns the next state. Responses include the per-option review
// once a session reaches results. Sessions are client-held and only checked
// for shape, so this is not a way to keep the answer key from a determined
// client.
func QuizSessionHandler(svc *quiz.Service, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if !decode(w, r, &req) {
			return
		}
		q, eng, err := svc.Player(r.Context(), chi.URLParam(r, "lessonID"))
		if err != nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s := quiz.NewSession()
		if req.Session != nil {
			s = *req.Session
		}

		next, err := eng.Reduce(s, req.Action)
		if err != nil {
			status, result := transitionStatus(err)
			m.ObserveTransition(string(req.Action.Type), result)
			http.Error(w, err.Error(), status)
			return
		}
		m.ObserveTransition(string(req.Action.Type), "ok")

		resp := sessionResponse{Session: next}
		switch next.Phase {
		case quiz.PhaseInProgress:
			cq := &currentQuestion{
				Index:    next.QuestionIndex,
				Total:    eng.Len(),
				Question: q.Public().Questions[next.QuestionIndex],
			}
			if sel, ok := next.Answer(next.QuestionIndex); ok {
				cq.Selected = &sel
			}
			resp.Question = cq
		case quiz.PhaseResults:
			sc, err := eng.Score(next)
			if err != nil {
				writeErr(w, err)
				return
			}
			resp.Score = &scoreView{Score: sc, Percentage: sc.Percentage()}
			resp.Review = eng.Review(next)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func transitionStatus(err error) (int, string) {
	switch {
	case errors.Is(err, quiz.ErrUnanswered):
		return http.StatusConflict, "unanswered"
	case errors.Is(err, quiz.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, quiz.ErrOptionOutOfRange):
		return http.StatusUnprocessableEntity, "option_out_of_range"
	default:
		return http.StatusUnprocessableEntity, "invalid_session"
	}
}
