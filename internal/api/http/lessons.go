package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-lessons/internal/lesson"
)

func ListLessonsHandler(svc *lesson.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		if items == nil {
			items = []lesson.Lesson{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func GetLessonHandler(svc *lesson.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.Get(r.Context(), chi.URLParam(r, "lessonID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func CreateLessonHandler(svc *lesson.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in lesson.Input
		if !decode(w, r, &in) {
			return
		}
		l, err := svc.Create(r.Context(), in)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

func UpdateLessonHandler(svc *lesson.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in lesson.Input
		if !decode(w, r, &in) {
			return
		}
		l, err := svc.Update(r.Context(), chi.URLParam(r, "lessonID"), in)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func DeleteLessonHandler(svc *lesson.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "lessonID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
