package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	auth "github.com/skillpath/skillpath-lms/internal/auth/middleware"
	"github.com/skillpath/skillpath-lms/internal/progress"
)

func PutTrainingHandler(store progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t progress.Training
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if t.Title == "" || t.SlideCount <= 0 {
			http.Error(w, "title and slide_count required", http.StatusBadRequest)
			return
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CreatedAt == 0 {
			t.CreatedAt = time.Now().Unix()
		}
		if err := store.PutTraining(r.Context(), t); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(t)
	}
}

func GetTrainingHandler(store progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetTraining(r.Context(), chi.URLParam(r, "trainingID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(t)
	}
}

func StartProgressHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Start(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "trainingID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(rec)
	}
}

func GetProgressHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Get(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "trainingID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(rec)
	}
}

// UpdatePositionHandler moves the learner to a slide. Leaving a slide that
// has an unpassed eliminatory quiz is rejected.
func UpdatePositionHandler(svc *progress.Service, gate *progress.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		trainingID := chi.URLParam(r, "trainingID")

		var req struct {
			Slide int `json:"slide"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		cur, err := svc.Get(r.Context(), userID, trainingID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if req.Slide > cur.CurrentSlide {
			ok, err := gate.MayLeavePosition(r.Context(), userID, trainingID, cur.CurrentSlide)
			if err != nil {
				writeErr(w, err)
				return
			}
			if !ok {
				http.Error(w, "quiz must be passed before advancing", http.StatusConflict)
				return
			}
		}

		rec, err := svc.UpdatePosition(r.Context(), userID, trainingID, req.Slide)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(rec)
	}
}

func CompleteSlideHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Slide int `json:"slide"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		rec, err := svc.CompleteSlide(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "trainingID"), req.Slide)
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(rec)
	}
}

func CompleteTrainingHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.CompleteTraining(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "trainingID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(rec)
	}
}

func ProgressHistoryHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := svc.History(r.Context(), auth.SubjectFromContext(r.Context()), r.URL.Query().Get("status"))
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(recs)
	}
}

// LearnerProgressHandler lets trainers inspect any learner's training
// history. Routed behind rbac.Require("progress:view-all").
func LearnerProgressHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := svc.History(r.Context(), chi.URLParam(r, "userID"), r.URL.Query().Get("status"))
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(recs)
	}
}

// MayAdvanceHandler answers whether the learner has passed the quiz that
// gates forward movement.
func MayAdvanceHandler(gate *progress.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := gate.MayAdvance(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "quizID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"may_advance": ok})
	}
}
