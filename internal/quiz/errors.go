package quiz

import "errors"

// Engine outcomes. Handlers translate these with errors.Is; nothing in this
// package panics or signals through uncontrolled propagation.
var (
	// ErrValidation marks a malformed question or answer shape.
	ErrValidation = errors.New("invalid payload")

	ErrQuizNotFound    = errors.New("quiz not found")
	ErrAttemptNotFound = errors.New("attempt not found")

	// ErrEmptyPool is returned when instance generation finds no questions.
	ErrEmptyPool = errors.New("quiz has no questions")

	// ErrAttemptInProgress: start refused because an open attempt exists
	// for the same (learner, quiz).
	ErrAttemptInProgress = errors.New("an attempt is already in progress")

	// ErrAttemptCompleted: answer submission on a frozen attempt.
	ErrAttemptCompleted = errors.New("attempt is completed")

	// ErrAlreadyCompleted: second completion of the same attempt.
	ErrAlreadyCompleted = errors.New("attempt already completed")

	// ErrNotCompleted: feedback requested while the attempt is open.
	ErrNotCompleted = errors.New("attempt not completed")

	// ErrIntegrity: stored instance no longer matches its fingerprint.
	ErrIntegrity = errors.New("instance fingerprint mismatch")
)
