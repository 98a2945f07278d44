package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-lessons/internal/lesson"
	"github.com/mind-engage/mindengage-lessons/internal/quiz"
	"github.com/mind-engage/mindengage-lessons/internal/validation"
)

// Handlers only; routes live in cmd/lessonsd/main.go.

const maxBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

// writeErr maps service errors to status codes. Anything unknown is a 500
// and its text is not echoed back.
func writeErr(w http.ResponseWriter, err error) {
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, ve)
	case errors.Is(err, lesson.ErrNotFound),
		errors.Is(err, quiz.ErrNotFound),
		errors.Is(err, quiz.ErrLessonNotFound),
		errors.Is(err, quiz.ErrQuestionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quiz.ErrQuizExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
