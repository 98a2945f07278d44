package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	api "github.com/mind-engage/mindengage-lessons/internal/api/http"
	auth "github.com/mind-engage/mindengage-lessons/internal/auth/middleware"
	"github.com/mind-engage/mindengage-lessons/internal/config"
	"github.com/mind-engage/mindengage-lessons/internal/db"
	"github.com/mind-engage/mindengage-lessons/internal/lesson"
	"github.com/mind-engage/mindengage-lessons/internal/logger"
	"github.com/mind-engage/mindengage-lessons/internal/metrics"
	"github.com/mind-engage/mindengage-lessons/internal/quiz"
	"github.com/mind-engage/mindengage-lessons/internal/rbac"
	syncx "github.com/mind-engage/mindengage-lessons/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(openCtx, db.Driver(cfg.DB.Driver), cfg.DB.DSN)
	cancel()
	if err != nil {
		lg.Fatal("db open failed", zap.Error(err))
	}
	defer dbh.Close()

	events := syncx.NewEventRepo(dbh, cfg.SiteID)
	quizStore := quiz.NewSQLStore(dbh)
	quizzes := quiz.NewService(quizStore, events, lg.Named("quiz"))
	lessons := lesson.NewService(lesson.NewSQLStore(dbh), quizStore, events, lg.Named("lesson"))

	// --- Auth (tokens come from the hosted auth backend) ---
	authSvc := auth.NewAuthService(cfg.Auth.HMACSecret, cfg.Auth.Issuer)
	if cfg.Auth.HMACSecret == config.DevSecret {
		lg.Warn("using the development HMAC secret")
	}

	m := metrics.New()

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logger.Middleware(lg), middleware.Recoverer)
	r.Use(m.Middleware)
	r.Use(middleware.Timeout(cfg.HTTP.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public learner surface
	r.Route("/api", func(pr chi.Router) {
		pr.Get("/lessons", api.ListLessonsHandler(lessons))
		pr.Get("/lessons/{lessonID}", api.GetLessonHandler(lessons))
		pr.Get("/lessons/{lessonID}/quiz", api.GetQuizHandler(quizzes))
		pr.Post("/lessons/{lessonID}/quiz/session", api.QuizSessionHandler(quizzes, m))
		pr.Get("/embed", api.EmbedHandler())
		pr.Get("/revalidations", api.RevalidationsHandler(events))

		// Authoring (JWT → role in context → RBAC)
		pr.Route("/admin", func(ar chi.Router) {
			ar.Use(auth.JWTMiddleware(authSvc), auth.AuditWrites(lg.Named("audit")))

			ar.With(rbac.Require(rbac.PermLessonWrite)).
				Post("/lessons", api.CreateLessonHandler(lessons))
			ar.With(rbac.Require(rbac.PermLessonWrite)).
				Put("/lessons/{lessonID}", api.UpdateLessonHandler(lessons))
			ar.With(rbac.Require(rbac.PermLessonWrite)).
				Delete("/lessons/{lessonID}", api.DeleteLessonHandler(lessons))

			ar.With(rbac.Require(rbac.PermQuizViewAnswer)).
				Get("/lessons/{lessonID}/quiz", api.AdminQuizHandler(quizzes))
			ar.With(rbac.Require(rbac.PermQuizWrite)).
				Post("/lessons/{lessonID}/quiz", api.CreateQuizHandler(quizzes))
			ar.With(rbac.Require(rbac.PermQuizWrite)).
				Delete("/quizzes/{quizID}", api.DeleteQuizHandler(quizzes))
			ar.With(rbac.Require(rbac.PermQuizWrite)).
				Post("/quizzes/{quizID}/questions", api.AddQuestionHandler(quizzes))
			ar.With(rbac.Require(rbac.PermQuizWrite)).
				Put("/questions/{questionID}", api.UpdateQuestionHandler(quizzes))
			ar.With(rbac.Require(rbac.PermQuizWrite)).
				Delete("/questions/{questionID}", api.DeleteQuestionHandler(quizzes))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("mode", string(cfg.Mode)),
			zap.String("db", cfg.DB.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		lg.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		lg.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
