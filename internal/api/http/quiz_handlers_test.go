package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/skillpath/skillpath-lms/internal/auth/middleware"
	"github.com/skillpath/skillpath-lms/internal/progress"
	"github.com/skillpath/skillpath-lms/internal/quiz"
	"github.com/skillpath/skillpath-lms/internal/rbac"
)

func seededStore(t *testing.T) *quiz.MemoryStore {
	t.Helper()
	store := quiz.NewMemoryStore()
	require.NoError(t, store.PutQuiz(context.Background(), quiz.Quiz{
		ID: "q1", Title: "Basics", MinimumScore: 70,
		Questions: []quiz.Question{{
			ID: "a", Text: "pick", Type: quiz.TypeSingleChoice, Points: 1,
			Options: []quiz.Option{
				{Text: "no"},
				{Text: "yes", Correct: true, Explanation: "see handbook"},
			},
		}},
	}))
	return store
}

func doAs(t *testing.T, h http.Handler, role, sub, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("{}")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	ctx := rbac.WithRole(req.Context(), role)
	ctx = auth.WithSubject(ctx, sub)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestGetQuizHandlerStripsAnswersForLearners(t *testing.T) {
	store := seededStore(t)
	r := chi.NewRouter()
	r.Get("/quizzes/{quizID}", GetQuizHandler(store))

	rec := doAs(t, r, "learner", "alice", http.MethodGet, "/quizzes/q1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, "is_correct")
	assert.NotContains(t, body, "see handbook")
	assert.Contains(t, body, "yes")

	rec = doAs(t, r, "trainer", "tina", http.MethodGet, "/quizzes/q1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "is_correct")

	rec = doAs(t, r, "learner", "alice", http.MethodGet, "/quizzes/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadQuizHandlerValidation(t *testing.T) {
	store := quiz.NewMemoryStore()
	r := chi.NewRouter()
	r.Post("/quizzes", UploadQuizHandler(store))

	rec := doAs(t, r, "trainer", "tina", http.MethodPost, "/quizzes",
		`{"title":"","questions":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doAs(t, r, "trainer", "tina", http.MethodPost, "/quizzes",
		`{"title":"T","minimum_score":120}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// single choice with two correct options is a malformed definition
	rec = doAs(t, r, "trainer", "tina", http.MethodPost, "/quizzes", `{
		"title":"T","minimum_score":70,
		"questions":[{"id":"a","type":"single_choice","points":1,
			"options":[{"text":"x","is_correct":true},{"text":"y","is_correct":true}]}]
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doAs(t, r, "trainer", "tina", http.MethodPost, "/quizzes", `{
		"title":"T","minimum_score":70,
		"questions":[{"id":"a","type":"single_choice","points":1,
			"options":[{"text":"x","is_correct":true},{"text":"y"}]}]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created quiz.Quiz
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
}

func TestAttemptFlowOverHTTP(t *testing.T) {
	store := seededStore(t)
	svc := quiz.NewService(store, nil, nil, nil)

	r := chi.NewRouter()
	r.Post("/attempts", StartAttemptHandler(svc))
	r.Put("/attempts/{attemptID}/answers/{questionID}", SubmitAnswerHandler(svc))
	r.Post("/attempts/{attemptID}/complete", CompleteAttemptHandler(svc, nil))
	r.Get("/attempts/{attemptID}", GetAttemptHandler(svc))

	rec := doAs(t, r, "learner", "alice", http.MethodPost, "/attempts", `{"quiz_id":"q1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var a quiz.Attempt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))

	// a second start conflicts
	rec = doAs(t, r, "learner", "alice", http.MethodPost, "/attempts", `{"quiz_id":"q1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// someone else's answer write is forbidden
	rec = doAs(t, r, "learner", "bob", http.MethodPut, "/attempts/"+a.ID+"/answers/a", `1`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doAs(t, r, "learner", "alice", http.MethodPut, "/attempts/"+a.ID+"/answers/a", `1`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doAs(t, r, "learner", "alice", http.MethodPost, "/attempts/"+a.ID+"/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"score_percent":100`)

	// answers after completion conflict
	rec = doAs(t, r, "learner", "alice", http.MethodPut, "/attempts/"+a.ID+"/answers/a", `0`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// trainers may read any attempt, other learners may not
	rec = doAs(t, r, "trainer", "tina", http.MethodGet, "/attempts/"+a.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doAs(t, r, "learner", "bob", http.MethodGet, "/attempts/"+a.ID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListAttemptsRejectsUnknownStatus(t *testing.T) {
	svc := quiz.NewService(seededStore(t), nil, nil, nil)
	r := chi.NewRouter()
	r.Get("/attempts", ListAttemptsHandler(svc))

	rec := doAs(t, r, "learner", "alice", http.MethodGet, "/attempts?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doAs(t, r, "learner", "alice", http.MethodGet, "/attempts?status=in_progress", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCompletionRecordsOnTrainingProgress(t *testing.T) {
	ctx := context.Background()
	store := quiz.NewMemoryStore()
	require.NoError(t, store.PutQuiz(ctx, quiz.Quiz{
		ID: "q1", TrainingID: "t1", Title: "Gated", MinimumScore: 50,
		Questions: []quiz.Question{{
			ID: "a", Type: quiz.TypeSingleChoice, Points: 1,
			Options: []quiz.Option{{Text: "no"}, {Text: "yes", Correct: true}},
		}},
	}))
	svc := quiz.NewService(store, nil, nil, nil)

	progStore := progress.NewMemoryStore()
	require.NoError(t, progStore.PutTraining(ctx, progress.Training{ID: "t1", Title: "T", SlideCount: 3}))
	progSvc := progress.NewService(progStore)
	_, err := progSvc.Start(ctx, "alice", "t1")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Post("/attempts", StartAttemptHandler(svc))
	r.Put("/attempts/{attemptID}/answers/{questionID}", SubmitAnswerHandler(svc))
	r.Post("/attempts/{attemptID}/complete", CompleteAttemptHandler(svc, progSvc))

	rec := doAs(t, r, "learner", "alice", http.MethodPost, "/attempts", `{"quiz_id":"q1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var a quiz.Attempt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))

	rec = doAs(t, r, "learner", "alice", http.MethodPut, "/attempts/"+a.ID+"/answers/a", `1`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doAs(t, r, "learner", "alice", http.MethodPost, "/attempts/"+a.ID+"/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)

	pr, err := progSvc.Get(ctx, "alice", "t1")
	require.NoError(t, err)
	require.Len(t, pr.QuizAttempts, 1)
	assert.Equal(t, a.ID, pr.QuizAttempts[0].AttemptID)
	assert.True(t, pr.QuizAttempts[0].Passed)
}

func TestWriteErrMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{quiz.ErrQuizNotFound, http.StatusNotFound},
		{quiz.ErrValidation, http.StatusBadRequest},
		{quiz.ErrAttemptInProgress, http.StatusConflict},
		{quiz.ErrAlreadyCompleted, http.StatusConflict},
		{quiz.ErrIntegrity, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeErr(rec, tc.err)
		assert.Equal(t, tc.code, rec.Code, "for %v", tc.err)
	}
}
