package quiz

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("quiz not found")
var ErrQuestionNotFound = errors.New("question not found")
var ErrLessonNotFound = errors.New("lesson not found")

// Source is the read side the player depends on. A lesson without a quiz
// yields (nil, nil).
type Source interface {
	FetchQuizForLesson(ctx context.Context, lessonID string) (*Quiz, error)
}

// Authoring is the write side used by the admin surface.
type Authoring interface {
	LessonExists(ctx context.Context, lessonID string) (bool, error)
	CreateQuiz(ctx context.Context, lessonID, title string) (Quiz, error)
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	DeleteQuiz(ctx context.Context, id string) error
	CountQuestions(ctx context.Context, quizID string) (int, error)
	CreateQuestion(ctx context.Context, q Question) (Question, error)
	UpdateQuestion(ctx context.Context, id, text string, options []Option) (Question, error)
	DeleteQuestion(ctx context.Context, id string) error
}

type Store interface {
	Source
	Authoring
}
