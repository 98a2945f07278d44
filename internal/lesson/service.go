package lesson

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-lessons/internal/embed"
	"github.com/mind-engage/mindengage-lessons/internal/quiz"
	"github.com/mind-engage/mindengage-lessons/internal/validation"
)

const (
	pathHome       = "/"
	pathAdminIndex = "/admin/lessons"
)

type Revalidator interface {
	Revalidate(ctx context.Context, paths ...string) error
}

type Service struct {
	store    Store
	quizzes  quiz.Source
	rev      Revalidator
	log      *zap.Logger
	validate *validation.Validator
}

func NewService(store Store, quizzes quiz.Source, rev Revalidator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, quizzes: quizzes, rev: rev, log: log, validate: validation.New()}
}

// List returns lessons newest first.
func (s *Service) List(ctx context.Context) ([]Lesson, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		s.log.Error("list lessons", zap.Error(err))
		return nil, err
	}
	return out, nil
}

// Get returns the learner view: the video link resolved to an embed URL and
// YouTube references in the body turned into inline players.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("fetch lesson", zap.String("lesson_id", id), zap.Error(err))
		}
		return View{}, err
	}
	return Render(l, s.hasQuiz(ctx, id)), nil
}

func (s *Service) hasQuiz(ctx context.Context, lessonID string) bool {
	if s.quizzes == nil {
		return false
	}
	q, err := s.quizzes.FetchQuizForLesson(ctx, lessonID)
	if err != nil {
		s.log.Error("fetch quiz", zap.String("lesson_id", lessonID), zap.Error(err))
		return false
	}
	return q != nil && len(q.Questions) > 0
}

// Render builds the learner view of l.
func Render(l Lesson, hasQuiz bool) View {
	v := View{Lesson: l, HasQuiz: hasQuiz}
	if l.VideoURL != nil {
		if u, ok := embed.EmbedURLForWatchLink(*l.VideoURL); ok {
			v.EmbedURL = u
		}
	}
	if l.Content != nil {
		v.ContentHTML = embed.Rewrite(*l.Content)
	}
	return v
}

func (s *Service) Create(ctx context.Context, in Input) (Lesson, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validate.Struct(in); err != nil {
		return Lesson{}, err
	}
	l, err := s.store.Create(ctx, in)
	if err != nil {
		s.log.Error("create lesson", zap.Error(err))
		return Lesson{}, err
	}
	s.revalidate(ctx, pathAdminIndex, pathHome)
	return l, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (Lesson, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validate.Struct(in); err != nil {
		return Lesson{}, err
	}
	l, err := s.store.Update(ctx, id, in)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("update lesson", zap.String("lesson_id", id), zap.Error(err))
		}
		return Lesson{}, err
	}
	s.revalidate(ctx, pathAdminIndex, quiz.LessonPath(id), pathHome)
	return l, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("delete lesson", zap.String("lesson_id", id), zap.Error(err))
		}
		return err
	}
	s.revalidate(ctx, pathAdminIndex, pathHome)
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
