package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/skillpath/skillpath-lms/internal/quiz"
	"github.com/skillpath/skillpath-lms/internal/rbac"
)

var policy = rbac.NewChecker(nil)

// UploadQuizHandler stores a quiz definition. Trainer-only (routed behind
// rbac.Require("quiz:create")).
func UploadQuizHandler(store quiz.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var z quiz.Quiz
		if err := json.NewDecoder(r.Body).Decode(&z); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validateQuiz(z); err != nil {
			writeErr(w, err)
			return
		}
		if z.ID == "" {
			z.ID = uuid.NewString()
		}
		if z.CreatedAt == 0 {
			z.CreatedAt = time.Now().Unix()
		}
		if err := store.PutQuiz(r.Context(), z); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(z)
	}
}

func validateQuiz(z quiz.Quiz) error {
	if z.Title == "" {
		return errValidationf("title required")
	}
	if z.MinimumScore < 0 || z.MinimumScore > 100 {
		return errValidationf("minimum_score must be within [0,100]")
	}
	if z.PoolSize < 0 {
		return errValidationf("pool_size must not be negative")
	}
	for _, q := range z.Questions {
		if q.ID == "" {
			return errValidationf("question id required")
		}
		if q.Type != quiz.TypeSingleChoice && q.Type != quiz.TypeMultipleChoice {
			return errValidationf("question %s: unknown type %q", q.ID, q.Type)
		}
		if len(q.Options) == 0 {
			return errValidationf("question %s: options required", q.ID)
		}
		correct := len(q.CorrectSet())
		if q.Type == quiz.TypeSingleChoice && correct != 1 {
			return errValidationf("question %s: single choice needs exactly one correct option", q.ID)
		}
		if q.Type == quiz.TypeMultipleChoice && correct == 0 {
			return errValidationf("question %s: multiple choice needs at least one correct option", q.ID)
		}
	}
	return nil
}

// GetQuizHandler returns the quiz. Learners get a sanitized view with
// correctness flags and explanations stripped.
func GetQuizHandler(store quiz.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		z, err := store.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if !policy.Has(rbac.RoleFromContext(r.Context()), "quiz:create") {
			z = sanitizeQuiz(z)
		}
		_ = json.NewEncoder(w).Encode(z)
	}
}

// sanitizeQuiz strips everything a learner must not see before submitting.
func sanitizeQuiz(z quiz.Quiz) quiz.Quiz {
	qs := make([]quiz.Question, len(z.Questions))
	for i, q := range z.Questions {
		opts := make([]quiz.Option, len(q.Options))
		for j, o := range q.Options {
			opts[j] = quiz.Option{Text: o.Text}
		}
		q.Options = opts
		qs[i] = q
	}
	z.Questions = qs
	return z
}

func ListTrainingQuizzesHandler(store quiz.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zs, err := store.ListTrainingQuizzes(r.Context(), chi.URLParam(r, "trainingID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if !policy.Has(rbac.RoleFromContext(r.Context()), "quiz:create") {
			for i := range zs {
				zs[i] = sanitizeQuiz(zs[i])
			}
		}
		_ = json.NewEncoder(w).Encode(zs)
	}
}

func QuizStatsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.QuizStats(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(st)
	}
}
