package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/skillpath/skillpath-lms/internal/api/http"
	"github.com/skillpath/skillpath-lms/internal/audit"
	auth "github.com/skillpath/skillpath-lms/internal/auth/middleware"
	"github.com/skillpath/skillpath-lms/internal/config"
	"github.com/skillpath/skillpath-lms/internal/db"
	"github.com/skillpath/skillpath-lms/internal/progress"
	"github.com/skillpath/skillpath-lms/internal/quiz"
	"github.com/skillpath/skillpath-lms/internal/rbac"
	"github.com/skillpath/skillpath-lms/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	quizStore := quiz.NewSQLStore(dbh, cfg.DBDriver)
	progStore := progress.NewSQLStore(dbh)
	events := audit.NewEventRepo(dbh)

	quizSvc := quiz.NewService(quizStore, nil, nil, events)
	quizSvc.SetEnforceTimeLimit(cfg.EnforceTimeLimit)
	progSvc := progress.NewService(progStore)
	gate := progress.NewGate(quizStore, quizStore)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	assets, err := storage.NewFSStore(cfg.AssetBasePath)
	if err != nil {
		log.Fatalf("asset store: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, cfg.AllowDevLogin))

	// Protected API (JWT → subject+role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Catalog
		pr.With(rbac.Require("quiz:create")).
			Post("/quizzes", api.UploadQuizHandler(quizStore))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes/{quizID}", api.GetQuizHandler(quizStore))
		pr.With(rbac.Require("quiz:view")).
			Get("/trainings/{trainingID}/quizzes", api.ListTrainingQuizzesHandler(quizStore))
		pr.With(rbac.Require("quiz:stats")).
			Get("/quizzes/{quizID}/stats", api.QuizStatsHandler(quizSvc))

		// Learner attempt flow
		pr.With(rbac.Require("attempt:create")).
			Post("/attempts", api.StartAttemptHandler(quizSvc))
		pr.With(rbac.Require("attempt:save")).
			Put("/attempts/{attemptID}/answers/{questionID}", api.SubmitAnswerHandler(quizSvc))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/complete", api.CompleteAttemptHandler(quizSvc, progSvc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(quizSvc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}/feedback", api.FeedbackHandler(quizSvc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(quizSvc))
		pr.With(rbac.Require("attempt:create")).
			Get("/quizzes/{quizID}/retake", api.CanRetakeHandler(quizSvc))
		pr.With(rbac.Require("attempt:verify")).
			Get("/attempts/{attemptID}/verify", api.VerifyHandler(quizSvc))

		// Trainings and progress
		pr.With(rbac.Require("training:create")).
			Post("/trainings", api.PutTrainingHandler(progStore))
		pr.With(rbac.Require("training:view")).
			Get("/trainings/{trainingID}", api.GetTrainingHandler(progStore))
		pr.With(rbac.Require("progress:own")).
			Post("/trainings/{trainingID}/progress", api.StartProgressHandler(progSvc))
		pr.With(rbac.Require("progress:own")).
			Get("/trainings/{trainingID}/progress", api.GetProgressHandler(progSvc))
		pr.With(rbac.Require("progress:own")).
			Put("/trainings/{trainingID}/progress/position", api.UpdatePositionHandler(progSvc, gate))
		pr.With(rbac.Require("progress:own")).
			Post("/trainings/{trainingID}/progress/slides", api.CompleteSlideHandler(progSvc))
		pr.With(rbac.Require("progress:own")).
			Post("/trainings/{trainingID}/progress/complete", api.CompleteTrainingHandler(progSvc))
		pr.With(rbac.Require("progress:own")).
			Get("/progress", api.ProgressHistoryHandler(progSvc))
		pr.With(rbac.Require("progress:view-all")).
			Get("/users/{userID}/progress", api.LearnerProgressHandler(progSvc))
		pr.With(rbac.Require("progress:own")).
			Get("/quizzes/{quizID}/gate", api.MayAdvanceHandler(gate))

		// Slide assets
		pr.With(rbac.Require("training:create")).
			Put("/trainings/{trainingID}/assets/{name}", api.UploadAssetHandler(assets))
		pr.With(rbac.Require("training:view")).
			Get("/trainings/{trainingID}/assets/{name}", api.GetAssetHandler(assets))
	})

	log.Printf("gateway listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
