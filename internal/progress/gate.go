package progress

import (
	"context"

	"github.com/skillpath/skillpath-lms/internal/quiz"
)

// PassChecker is the slice of the attempt store the gate needs.
type PassChecker interface {
	HasPassedAttempt(ctx context.Context, userID, quizID string) (bool, error)
}

// Gate decides whether a learner may advance past quiz-gated playback
// positions. It always consults attempt records, never the quiz's static
// definition: a quiz edited after a pass does not retroactively lock the
// learner out.
type Gate struct {
	catalog  quiz.CatalogStore
	attempts PassChecker
}

func NewGate(catalog quiz.CatalogStore, attempts PassChecker) *Gate {
	return &Gate{catalog: catalog, attempts: attempts}
}

// MayAdvance reports whether the learner has at least one passed attempt
// for the quiz.
func (g *Gate) MayAdvance(ctx context.Context, userID, quizID string) (bool, error) {
	return g.attempts.HasPassedAttempt(ctx, userID, quizID)
}

// MayLeavePosition checks every eliminatory quiz gated at the given slide
// position; all of them must have a passed attempt. Non-eliminatory quizzes
// at the position never block.
func (g *Gate) MayLeavePosition(ctx context.Context, userID, trainingID string, position int) (bool, error) {
	quizzes, err := g.catalog.ListTrainingQuizzes(ctx, trainingID)
	if err != nil {
		return false, err
	}
	for _, z := range quizzes {
		if !z.Eliminatory || z.PositionInTraining == nil || *z.PositionInTraining != position {
			continue
		}
		ok, err := g.attempts.HasPassedAttempt(ctx, userID, z.ID)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
