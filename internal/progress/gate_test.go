package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillpath/skillpath-lms/internal/quiz"
)

func intPtr(v int) *int { return &v }

func gateFixture(t *testing.T) (*Gate, *quiz.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	store := quiz.NewMemoryStore()

	require.NoError(t, store.PutQuiz(ctx, quiz.Quiz{
		ID: "q-gate", TrainingID: "t1", Title: "Checkpoint",
		Eliminatory: true, PositionInTraining: intPtr(2), MinimumScore: 70,
		Questions: []quiz.Question{{ID: "q", Type: quiz.TypeSingleChoice, Points: 1,
			Options: []quiz.Option{{Text: "a", Correct: true}, {Text: "b"}}}},
	}))
	require.NoError(t, store.PutQuiz(ctx, quiz.Quiz{
		ID: "q-optional", TrainingID: "t1", Title: "Optional check",
		Eliminatory: false, PositionInTraining: intPtr(2),
		Questions: []quiz.Question{{ID: "q", Type: quiz.TypeSingleChoice, Points: 1,
			Options: []quiz.Option{{Text: "a", Correct: true}, {Text: "b"}}}},
	}))
	return NewGate(store, store), store
}

func passQuiz(t *testing.T, store *quiz.MemoryStore, user, quizID string) {
	t.Helper()
	ctx := context.Background()
	a := quiz.Attempt{
		ID: "a-" + user + "-" + quizID, UserID: user, QuizID: quizID,
		Answers: map[string]quiz.Selection{}, StartedAt: time.Now().UTC(),
	}
	require.NoError(t, store.CreateAttempt(ctx, a))
	_, err := store.FinalizeAttempt(ctx, a.ID, 100, true, time.Now().UTC(), 30)
	require.NoError(t, err)
}

func failQuiz(t *testing.T, store *quiz.MemoryStore, user, quizID string) {
	t.Helper()
	ctx := context.Background()
	a := quiz.Attempt{
		ID: "f-" + user + "-" + quizID, UserID: user, QuizID: quizID,
		Answers: map[string]quiz.Selection{}, StartedAt: time.Now().UTC(),
	}
	require.NoError(t, store.CreateAttempt(ctx, a))
	_, err := store.FinalizeAttempt(ctx, a.ID, 0, false, time.Now().UTC(), 30)
	require.NoError(t, err)
}

func TestMayAdvanceRequiresPassedAttempt(t *testing.T) {
	ctx := context.Background()
	gate, store := gateFixture(t)

	ok, err := gate.MayAdvance(ctx, "alice", "q-gate")
	require.NoError(t, err)
	assert.False(t, ok)

	failQuiz(t, store, "alice", "q-gate")
	ok, err = gate.MayAdvance(ctx, "alice", "q-gate")
	require.NoError(t, err)
	assert.False(t, ok, "failed attempt must not open the gate")

	passQuiz(t, store, "alice", "q-gate")
	ok, err = gate.MayAdvance(ctx, "alice", "q-gate")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMayLeavePositionBlocksOnEliminatoryQuiz(t *testing.T) {
	ctx := context.Background()
	gate, store := gateFixture(t)

	// position 2 holds an unpassed eliminatory quiz
	ok, err := gate.MayLeavePosition(ctx, "alice", "t1", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	// positions without an eliminatory quiz never block
	ok, err = gate.MayLeavePosition(ctx, "alice", "t1", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	// the optional quiz at the same position is irrelevant
	passQuiz(t, store, "alice", "q-gate")
	ok, err = gate.MayLeavePosition(ctx, "alice", "t1", 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGateIsPerLearner(t *testing.T) {
	ctx := context.Background()
	gate, store := gateFixture(t)

	passQuiz(t, store, "alice", "q-gate")

	ok, err := gate.MayLeavePosition(ctx, "bob", "t1", 2)
	require.NoError(t, err)
	assert.False(t, ok, "alice's pass must not unlock bob")
}
