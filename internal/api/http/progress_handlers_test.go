package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillpath/skillpath-lms/internal/progress"
	"github.com/skillpath/skillpath-lms/internal/rbac"
)

func TestLearnerProgressInspection(t *testing.T) {
	ctx := context.Background()
	store := progress.NewMemoryStore()
	require.NoError(t, store.PutTraining(ctx, progress.Training{ID: "t1", Title: "T", SlideCount: 3}))
	svc := progress.NewService(store)
	_, err := svc.Start(ctx, "alice", "t1")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.With(rbac.Require("progress:view-all")).
		Get("/users/{userID}/progress", LearnerProgressHandler(svc))

	// trainers may read any learner's history
	rec := doAs(t, r, "trainer", "tina", http.MethodGet, "/users/alice/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var recs []progress.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "t1", recs[0].TrainingID)

	// learners have no progress:view-all
	rec = doAs(t, r, "learner", "bob", http.MethodGet, "/users/alice/progress", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
