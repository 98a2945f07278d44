package quiz

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-lessons/internal/validation"
)

// QuizInput is what an author submits to attach a quiz to a lesson.
type QuizInput struct {
	Title string `json:"title" validate:"required,max=200"`
}

type OptionInput struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionInput is checked only when a question is created or edited;
// stored questions are never re-validated on read.
type QuestionInput struct {
	Question string        `json:"question" validate:"required"`
	Options  []OptionInput `json:"options" validate:"min=2,dive"`
}

func (in *QuestionInput) normalize() {
	in.Question = strings.TrimSpace(in.Question)
	for i := range in.Options {
		in.Options[i].Text = strings.TrimSpace(in.Options[i].Text)
	}
}

func (in QuestionInput) options() []Option {
	out := make([]Option, 0, len(in.Options))
	for _, o := range in.Options {
		out = append(out, Option{Text: o.Text, IsCorrect: o.IsCorrect})
	}
	return out
}

func (in *QuizInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
}

func newValidator() *validation.Validator {
	v := validation.New()
	v.RegisterStructRule(oneCorrect, QuestionInput{})
	return v
}

func oneCorrect(sl validator.StructLevel) {
	in := sl.Current().Interface().(QuestionInput)
	if len(in.Options) < 2 {
		return // reported by min
	}
	for _, o := range in.Options {
		if o.IsCorrect {
			return
		}
	}
	sl.ReportError(in.Options, "options", "Options", "one_correct", "")
}
