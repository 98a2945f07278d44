package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/mind-engage/mindengage-lessons/internal/api/http"
	"github.com/mind-engage/mindengage-lessons/internal/db"
	"github.com/mind-engage/mindengage-lessons/internal/lesson"
	"github.com/mind-engage/mindengage-lessons/internal/metrics"
	"github.com/mind-engage/mindengage-lessons/internal/quiz"
	syncx "github.com/mind-engage/mindengage-lessons/internal/sync"
)

type testServer struct {
	router  http.Handler
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "lessons.db") + "?_pragma=foreign_keys(1)"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })

	events := syncx.NewEventRepo(dbh, "test")
	quizStore := quiz.NewSQLStore(dbh)
	quizzes := quiz.NewService(quizStore, events, nil)
	lessons := lesson.NewService(lesson.NewSQLStore(dbh), quizStore, events, nil)
	m := metrics.New()

	r := chi.NewRouter()
	r.Get("/api/lessons", api.ListLessonsHandler(lessons))
	r.Get("/api/lessons/{lessonID}", api.GetLessonHandler(lessons))
	r.Get("/api/lessons/{lessonID}/quiz", api.GetQuizHandler(quizzes))
	r.Post("/api/lessons/{lessonID}/quiz/session", api.QuizSessionHandler(quizzes, m))
	r.Get("/api/embed", api.EmbedHandler())
	r.Get("/api/revalidations", api.RevalidationsHandler(events))
	r.Post("/api/admin/lessons", api.CreateLessonHandler(lessons))
	r.Put("/api/admin/lessons/{lessonID}", api.UpdateLessonHandler(lessons))
	r.Delete("/api/admin/lessons/{lessonID}", api.DeleteLessonHandler(lessons))
	r.Get("/api/admin/lessons/{lessonID}/quiz", api.AdminQuizHandler(quizzes))
	r.Post("/api/admin/lessons/{lessonID}/quiz", api.CreateQuizHandler(quizzes))
	r.Delete("/api/admin/quizzes/{quizID}", api.DeleteQuizHandler(quizzes))
	r.Post("/api/admin/quizzes/{quizID}/questions", api.AddQuestionHandler(quizzes))
	r.Put("/api/admin/questions/{questionID}", api.UpdateQuestionHandler(quizzes))
	r.Delete("/api/admin/questions/{questionID}", api.DeleteQuestionHandler(quizzes))
	return &testServer{router: r, metrics: m}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// seedQuiz creates a lesson with a two-question quiz. The correct answers
// are option 0 and option 1.
func seedQuiz(t *testing.T, s *testServer) (lessonID, quizID string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/admin/lessons", map[string]any{"title": "Fractions"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lessonID = decodeBody[lesson.Lesson](t, rec).ID

	rec = s.do(t, http.MethodPost, "/api/admin/lessons/"+lessonID+"/quiz", map[string]any{"title": "Check"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	quizID = decodeBody[quiz.Quiz](t, rec).ID

	for _, q := range []map[string]any{
		{"question": "1/2 + 1/2?", "options": []map[string]any{{"text": "1", "is_correct": true}, {"text": "2"}}},
		{"question": "1/4 of 8?", "options": []map[string]any{{"text": "4"}, {"text": "2", "is_correct": true}, {"text": "1"}}},
	} {
		rec = s.do(t, http.MethodPost, "/api/admin/quizzes/"+quizID+"/questions", q)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	return lessonID, quizID
}

type sessionReply struct {
	Session  quiz.Session `json:"session"`
	Question *struct {
		Index    int  `json:"index"`
		Total    int  `json:"total"`
		Selected *int `json:"selected"`
	} `json:"question"`
	Score *struct {
		Correct    int `json:"correct"`
		Total      int `json:"total"`
		Percentage int `json:"percentage"`
	} `json:"score"`
	Review []quiz.QuestionReview `json:"review"`
}

func TestLessonCRUD(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/admin/lessons", map[string]any{
		"title":     "Waves",
		"video_url": "https://youtu.be/dQw4w9WgXcQ",
		"content":   `<p><a href="https://www.youtube.com/watch?v=9bZkp7q19f0">clip</a></p>`,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[lesson.Lesson](t, rec).ID

	rec = s.do(t, http.MethodGet, "/api/lessons/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeBody[lesson.View](t, rec)
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", v.EmbedURL)
	assert.Contains(t, v.ContentHTML, "https://www.youtube.com/embed/9bZkp7q19f0")
	assert.False(t, v.HasQuiz)

	rec = s.do(t, http.MethodPut, "/api/admin/lessons/"+id, map[string]any{"title": "Waves II"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Waves II", decodeBody[lesson.Lesson](t, rec).Title)

	rec = s.do(t, http.MethodGet, "/api/lessons", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[struct{ Items []lesson.Lesson }](t, rec)
	require.Len(t, list.Items, 1)

	rec = s.do(t, http.MethodDelete, "/api/admin/lessons/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/lessons/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationErrorsAre422(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/admin/lessons", map[string]any{"title": "  ", "video_url": "nope"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[struct {
		Errors map[string]string `json:"errors"`
	}](t, rec)
	assert.Contains(t, body.Errors, "title")
	assert.Contains(t, body.Errors, "video_url")

	_, quizID := seedQuiz(t, s)
	rec = s.do(t, http.MethodPost, "/api/admin/quizzes/"+quizID+"/questions", map[string]any{
		"question": "q",
		"options":  []map[string]any{{"text": "a"}, {"text": "b"}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least one option must be marked correct")

	rec = s.do(t, http.MethodPost, "/api/admin/lessons", strings.Repeat("x", 3))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuizHiddenWithoutQuestions(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/admin/lessons", map[string]any{"title": "Bare"})
	id := decodeBody[lesson.Lesson](t, rec).ID

	rec = s.do(t, http.MethodGet, "/api/lessons/"+id+"/quiz", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/lessons/"+id+"/quiz", map[string]any{"title": "Empty"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/lessons/"+id+"/quiz", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/lessons/"+id+"/quiz", map[string]any{"title": "Second"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateQuizForMissingLesson(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/admin/lessons/no-such-lesson/quiz", map[string]any{"title": "T"})
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "lesson not found")
}

func TestPublicQuizHidesAnswerKey(t *testing.T) {
	s := newTestServer(t)
	lessonID, _ := seedQuiz(t, s)

	rec := s.do(t, http.MethodGet, "/api/lessons/"+lessonID+"/quiz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "is_correct")
	body := decodeBody[struct {
		Quiz    quiz.PublicQuiz `json:"quiz"`
		Session quiz.Session    `json:"session"`
	}](t, rec)
	assert.Len(t, body.Quiz.Questions, 2)
	assert.Equal(t, quiz.PhaseIntro, body.Session.Phase)

	rec = s.do(t, http.MethodGet, "/api/admin/lessons/"+lessonID+"/quiz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_correct":true`)
}

func TestPlayThroughPerfectScore(t *testing.T) {
	s := newTestServer(t)
	lessonID, _ := seedQuiz(t, s)
	path := "/api/lessons/" + lessonID + "/quiz/session"

	step := func(sess *quiz.Session, typ quiz.ActionType, option int) *httptest.ResponseRecorder {
		return s.do(t, http.MethodPost, path, map[string]any{
			"session": sess,
			"action":  quiz.Action{Type: typ, Option: option},
		})
	}

	rec := step(nil, quiz.ActionStart, 0)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	r := decodeBody[sessionReply](t, rec)
	require.NotNil(t, r.Question)
	assert.Equal(t, 0, r.Question.Index)
	assert.Equal(t, 2, r.Question.Total)
	assert.Nil(t, r.Question.Selected)

	rec = step(&r.Session, quiz.ActionNext, 0)
	assert.Equal(t, http.StatusConflict, rec.Code, "next before answering")

	rec = step(&r.Session, quiz.ActionSelect, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	r = decodeBody[sessionReply](t, rec)
	require.NotNil(t, r.Question.Selected)
	assert.Equal(t, 0, *r.Question.Selected)

	rec = step(&r.Session, quiz.ActionNext, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	r = decodeBody[sessionReply](t, rec)
	assert.Equal(t, 1, r.Question.Index)

	rec = step(&r.Session, quiz.ActionSelect, 1)
	r = decodeBody[sessionReply](t, rec)
	rec = step(&r.Session, quiz.ActionNext, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	r = decodeBody[sessionReply](t, rec)

	assert.Equal(t, quiz.PhaseResults, r.Session.Phase)
	require.NotNil(t, r.Score)
	assert.Equal(t, 2, r.Score.Correct)
	assert.Equal(t, 100, r.Score.Percentage)
	require.Len(t, r.Review, 2)
	assert.Equal(t, quiz.OutcomeCorrectChosen, r.Review[1].Options[1].Outcome)

	rec = step(&r.Session, quiz.ActionRetake, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	r = decodeBody[sessionReply](t, rec)
	assert.Equal(t, quiz.PhaseInProgress, r.Session.Phase)
	assert.Empty(t, r.Session.Answers)

	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.QuizTransitions.WithLabelValues("next", "unanswered")))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.QuizTransitions.WithLabelValues("retake", "ok")))
}

func TestSessionRejectsTamperedState(t *testing.T) {
	s := newTestServer(t)
	lessonID, _ := seedQuiz(t, s)
	path := "/api/lessons/" + lessonID + "/quiz/session"

	cases := map[string]struct {
		session quiz.Session
		action  quiz.Action
		want    int
	}{
		"index past end": {
			quiz.Session{Phase: quiz.PhaseInProgress, QuestionIndex: 5}, quiz.Action{Type: quiz.ActionPrevious}, http.StatusUnprocessableEntity,
		},
		"unknown phase": {
			quiz.Session{Phase: "done"}, quiz.Action{Type: quiz.ActionRetake}, http.StatusUnprocessableEntity,
		},
		"option out of range": {
			quiz.Session{Phase: quiz.PhaseInProgress}, quiz.Action{Type: quiz.ActionSelect, Option: 7}, http.StatusUnprocessableEntity,
		},
		"retake from intro": {
			quiz.NewSession(), quiz.Action{Type: quiz.ActionRetake}, http.StatusConflict,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, path, map[string]any{"session": tc.session, "action": tc.action})
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}

	rec := s.do(t, http.MethodPost, "/api/lessons/missing/quiz/session", map[string]any{"action": quiz.Action{Type: quiz.ActionStart}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestQuestionEditAndDelete(t *testing.T) {
	s := newTestServer(t)
	lessonID, quizID := seedQuiz(t, s)

	rec := s.do(t, http.MethodGet, "/api/admin/lessons/"+lessonID+"/quiz", nil)
	q := decodeBody[quiz.Quiz](t, rec)
	require.Len(t, q.Questions, 2)
	first := q.Questions[0].ID

	rec = s.do(t, http.MethodPut, "/api/admin/questions/"+first, map[string]any{
		"question": "1/2 + 1/2 = ?",
		"options":  []map[string]any{{"text": "one", "is_correct": true}, {"text": "two"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1/2 + 1/2 = ?", decodeBody[quiz.Question](t, rec).Question)

	rec = s.do(t, http.MethodDelete, "/api/admin/questions/"+first, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/admin/questions/"+first, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/admin/quizzes/"+quizID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/admin/lessons/"+lessonID+"/quiz", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmbedAndRevalidations(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/embed?url=https://youtu.be/dQw4w9WgXcQ", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", decodeBody[map[string]string](t, rec)["embed_url"])

	rec = s.do(t, http.MethodGet, "/api/embed?url=https://vimeo.com/123", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	lessonID, _ := seedQuiz(t, s)

	rec = s.do(t, http.MethodGet, "/api/revalidations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decodeBody[struct {
		Events    []syncx.Event `json:"events"`
		NextSince int64         `json:"next_since"`
	}](t, rec)
	var paths []string
	for _, e := range feed.Events {
		assert.Equal(t, syncx.TypeRevalidate, e.Type)
		paths = append(paths, e.Key)
	}
	assert.Contains(t, paths, "/admin/lessons")
	assert.Contains(t, paths, "/lesson/"+lessonID)
	assert.Contains(t, paths, "/admin")

	rec = s.do(t, http.MethodGet, "/api/revalidations?since="+jsonInt(feed.NextSince), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"events":[]`)

	rec = s.do(t, http.MethodGet, "/api/revalidations?since=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
