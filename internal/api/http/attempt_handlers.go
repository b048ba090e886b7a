package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	auth "github.com/skillpath/skillpath-lms/internal/auth/middleware"
	"github.com/skillpath/skillpath-lms/internal/grading"
	"github.com/skillpath/skillpath-lms/internal/progress"
	"github.com/skillpath/skillpath-lms/internal/quiz"
	"github.com/skillpath/skillpath-lms/internal/rbac"
)

// canViewAttempt: owners always, everyone else needs attempt:view-all.
func canViewAttempt(r *http.Request, a quiz.Attempt) bool {
	if auth.SubjectFromContext(r.Context()) == a.UserID {
		return true
	}
	return policy.Has(rbac.RoleFromContext(r.Context()), "attempt:view-all")
}

func StartAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizID string `json:"quiz_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuizID == "" {
			http.Error(w, "quiz_id required", http.StatusBadRequest)
			return
		}
		a, err := svc.StartAttempt(r.Context(), auth.SubjectFromContext(r.Context()), req.QuizID)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(a)
	}
}

func SubmitAnswerHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		questionID := chi.URLParam(r, "questionID")

		cur, err := svc.Attempt(r.Context(), attemptID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if auth.SubjectFromContext(r.Context()) != cur.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var sel quiz.Selection
		if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
			writeErr(w, err)
			return
		}
		a, err := svc.SubmitAnswer(r.Context(), attemptID, questionID, sel)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

// CompleteAttemptHandler grades and freezes the attempt. When the quiz
// belongs to a training and the learner has a progress record, the result
// is also appended to that record.
func CompleteAttemptHandler(svc *quiz.Service, prog *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")

		cur, err := svc.Attempt(r.Context(), attemptID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if auth.SubjectFromContext(r.Context()) != cur.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		a, sum, err := svc.CompleteAttempt(r.Context(), attemptID)
		if err != nil {
			writeErr(w, err)
			return
		}
		recordOnProgress(r, svc, prog, a)
		_ = json.NewEncoder(w).Encode(struct {
			Attempt quiz.Attempt    `json:"attempt"`
			Summary grading.Summary `json:"summary"`
		}{a, sum})
	}
}

// recordOnProgress appends the completed attempt to the learner's training
// progress. Best-effort: no training, no record, or a save failure never
// disturbs the completion response.
func recordOnProgress(r *http.Request, svc *quiz.Service, prog *progress.Service, a quiz.Attempt) {
	if prog == nil {
		return
	}
	z, err := svc.Quiz(r.Context(), a.QuizID)
	if err != nil || z.TrainingID == "" {
		return
	}
	ts := a.StartedAt
	if a.CompletedAt != nil {
		ts = *a.CompletedAt
	}
	_, _ = prog.RecordAttempt(r.Context(), a.UserID, z.TrainingID, progress.AttemptRef{
		QuizID:    a.QuizID,
		AttemptID: a.ID,
		Score:     a.Score,
		Passed:    a.Passed,
		Timestamp: ts,
	})
}

func GetAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Attempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if !canViewAttempt(r, a) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

func FeedbackHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Attempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if !canViewAttempt(r, a) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		fb, err := svc.Feedback(r.Context(), a.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(fb)
	}
}

// ListAttemptsHandler filters attempts by quiz, user and status. Learners are
// pinned to their own attempts regardless of the user_id query param.
func ListAttemptsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := quiz.AttemptListOpts{
			QuizID: q.Get("quiz_id"),
			UserID: q.Get("user_id"),
			Status: q.Get("status"),
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				opts.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				opts.Offset = n
			}
		}
		if !policy.Has(rbac.RoleFromContext(r.Context()), "attempt:view-all") {
			opts.UserID = auth.SubjectFromContext(r.Context())
		}
		as, err := svc.Attempts(r.Context(), opts)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(as)
	}
}

func CanRetakeHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, reason, err := svc.CanRetake(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(struct {
			Allowed bool   `json:"allowed"`
			Reason  string `json:"reason,omitempty"`
		}{ok, reason})
	}
}

// VerifyHandler recomputes the attempt fingerprint and reports whether the
// stored instance is intact.
func VerifyHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.VerifyAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"valid": true})
	}
}
