package quiz

import (
	"context"
	"time"
)

// AttemptListOpts filters attempt history queries. Results are always
// ordered newest-started first.
type AttemptListOpts struct {
	QuizID string
	UserID string
	Status string // in_progress | completed, empty for both
	Limit  int
	Offset int
}

// CatalogStore is the read side of the quiz catalog plus the single ingest
// operation. Catalog editing beyond upsert belongs to the admin surface,
// not the engine.
type CatalogStore interface {
	PutQuiz(ctx context.Context, z Quiz) error
	// GetQuiz returns the full definition including answer keys.
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	ListTrainingQuizzes(ctx context.Context, trainingID string) ([]Quiz, error)
}

// AttemptStore persists attempt records. Implementations must apply each
// mutation atomically so concurrent writers never interleave partial
// updates to the answer map or the frozen result.
type AttemptStore interface {
	// CreateAttempt inserts a new in-progress attempt. It fails with
	// ErrAttemptInProgress when an open attempt already exists for the same
	// (user, quiz); the check and insert are a single atomic operation.
	CreateAttempt(ctx context.Context, a Attempt) error

	GetAttempt(ctx context.Context, id string) (Attempt, error)

	// SaveAnswer records one selection, overwriting any prior selection for
	// the question. Fails with ErrAttemptCompleted on a frozen attempt.
	SaveAnswer(ctx context.Context, attemptID, questionID string, sel Selection) (Attempt, error)

	// FinalizeAttempt freezes the graded result. Single-shot: a second call
	// fails with ErrAlreadyCompleted and leaves the record untouched.
	FinalizeAttempt(ctx context.Context, id string, score float64, passed bool, completedAt time.Time, elapsedSec int) (Attempt, error)

	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)

	// HasPassedAttempt reports whether the learner has at least one
	// completed, passed attempt for the quiz.
	HasPassedAttempt(ctx context.Context, userID, quizID string) (bool, error)
}

// Store is the full persistence contract the engine runs on.
type Store interface {
	CatalogStore
	AttemptStore
}
