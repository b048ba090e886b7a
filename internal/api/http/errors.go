package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/skillpath/skillpath-lms/internal/progress"
	"github.com/skillpath/skillpath-lms/internal/quiz"
)

// writeErr maps domain errors onto HTTP statuses. Anything unrecognized is a
// 500 with a generic body so internals do not leak.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrQuizNotFound),
		errors.Is(err, quiz.ErrAttemptNotFound),
		errors.Is(err, progress.ErrTrainingNotFound),
		errors.Is(err, progress.ErrProgressNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quiz.ErrValidation),
		errors.Is(err, quiz.ErrEmptyPool):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, quiz.ErrAttemptInProgress),
		errors.Is(err, quiz.ErrAttemptCompleted),
		errors.Is(err, quiz.ErrAlreadyCompleted),
		errors.Is(err, quiz.ErrNotCompleted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, quiz.ErrIntegrity):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func errValidationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{quiz.ErrValidation}, args...)...)
}
