package quiz_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-lessons/internal/db"
	"github.com/mind-engage/mindengage-lessons/internal/quiz"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "quiz.db") + "?_pragma=foreign_keys(1)"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })
	return dbh
}

func seedLesson(t *testing.T, dbh *sql.DB, id string) {
	t.Helper()
	_, err := dbh.Exec(`INSERT INTO lessons (id,title,created_at,updated_at) VALUES ($1,$2,1,1)`, id, "Lesson "+id)
	require.NoError(t, err)
}

func TestSQLStoreNoQuiz(t *testing.T) {
	dbh := openDB(t)
	store := quiz.NewSQLStore(dbh)

	q, err := store.FetchQuizForLesson(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestSQLStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbh := openDB(t)
	seedLesson(t, dbh, "l1")
	store := quiz.NewSQLStore(dbh)

	created, err := store.CreateQuiz(ctx, "l1", "Capitals")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// inserted out of order; reads come back by order_index
	_, err = store.CreateQuestion(ctx, quiz.Question{QuizID: created.ID, Question: "second", OrderIndex: 1,
		Options: []quiz.Option{{Text: "4", IsCorrect: false}, {Text: "2+2", IsCorrect: true}}})
	require.NoError(t, err)
	first, err := store.CreateQuestion(ctx, quiz.Question{QuizID: created.ID, Question: "first", OrderIndex: 0,
		Options: []quiz.Option{{Text: "Paris", IsCorrect: true}, {Text: "London", IsCorrect: false}}})
	require.NoError(t, err)

	got, err := store.FetchQuizForLesson(ctx, "l1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Capitals", got.Title)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, "first", got.Questions[0].Question)
	assert.Equal(t, "second", got.Questions[1].Question)
	assert.Equal(t, []quiz.Option{{Text: "Paris", IsCorrect: true}, {Text: "London", IsCorrect: false}}, got.Questions[0].Options)

	n, err := store.CountQuestions(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	updated, err := store.UpdateQuestion(ctx, first.ID, "first, edited", []quiz.Option{{Text: "Paris", IsCorrect: true}, {Text: "Rome"}})
	require.NoError(t, err)
	assert.Equal(t, "first, edited", updated.Question)
	assert.Equal(t, 0, updated.OrderIndex)
	assert.Equal(t, "Rome", updated.Options[1].Text)

	require.NoError(t, store.DeleteQuestion(ctx, first.ID))
	assert.ErrorIs(t, store.DeleteQuestion(ctx, first.ID), quiz.ErrQuestionNotFound)

	require.NoError(t, store.DeleteQuiz(ctx, created.ID))
	assert.ErrorIs(t, store.DeleteQuiz(ctx, created.ID), quiz.ErrNotFound)

	got, err = store.FetchQuizForLesson(ctx, "l1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLStoreLessonExists(t *testing.T) {
	ctx := context.Background()
	dbh := openDB(t)
	store := quiz.NewSQLStore(dbh)
	seedLesson(t, dbh, "l1")

	ok, err := store.LessonExists(ctx, "l1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.LessonExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLStoreQuestionForUnknownQuiz(t *testing.T) {
	store := quiz.NewSQLStore(openDB(t))
	_, err := store.CreateQuestion(context.Background(), quiz.Question{QuizID: "nope", Question: "q"})
	assert.ErrorIs(t, err, quiz.ErrNotFound)

	_, err = store.UpdateQuestion(context.Background(), "nope", "q", nil)
	assert.ErrorIs(t, err, quiz.ErrQuestionNotFound)

	_, err = store.GetQuiz(context.Background(), "nope")
	assert.ErrorIs(t, err, quiz.ErrNotFound)
}
