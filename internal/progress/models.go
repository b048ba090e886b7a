package progress

import (
	"errors"
	"time"
)

// Training statuses.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

var (
	ErrTrainingNotFound = errors.New("training not found")
	ErrProgressNotFound = errors.New("progress not found")
)

// Training is the minimal playback view the engine needs: how many slides
// there are and whether learners may see it. Content and targeting stay
// with the catalog collaborator.
type Training struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SlideCount int    `json:"slide_count"`
	Published  bool   `json:"published"`
	CreatedAt  int64  `json:"created_at,omitempty"`
}

// AttemptRef is the summary recorded on a progress record when a quiz
// attempt completes.
type AttemptRef struct {
	QuizID    string    `json:"quiz_id"`
	AttemptID string    `json:"attempt_id"`
	Score     float64   `json:"score"`
	Passed    bool      `json:"passed"`
	Timestamp time.Time `json:"timestamp"`
}

// Record tracks one learner's position in one training. Exactly one record
// exists per (user, training); the store enforces that.
type Record struct {
	UserID     string `json:"user_id"`
	TrainingID string `json:"training_id"`

	CurrentSlide    int          `json:"current_slide"`
	CompletedSlides []int        `json:"completed_slides"`
	QuizAttempts    []AttemptRef `json:"quiz_attempts"`
	Status          string       `json:"status"`

	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
}

// CompletionPercent is the share of slides completed, 0-100.
func (r Record) CompletionPercent(t Training) int {
	if t.SlideCount == 0 {
		return 0
	}
	return len(r.CompletedSlides) * 100 / t.SlideCount
}

func (r Record) slideCompleted(idx int) bool {
	for _, s := range r.CompletedSlides {
		if s == idx {
			return true
		}
	}
	return false
}
