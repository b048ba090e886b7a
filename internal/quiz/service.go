package quiz

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/skillpath/skillpath-lms/internal/grading"
)

// EventSink receives append-only lifecycle events. Appends are best-effort:
// a sink failure never rolls back the state change it describes.
type EventSink interface {
	Append(ctx context.Context, typ, key string, data interface{}) error
}

// Event types emitted by the lifecycle.
const (
	EventAttemptStarted   = "attempt_started"
	EventAnswerSaved      = "answer_saved"
	EventAttemptCompleted = "attempt_completed"
	EventAttemptOvertime  = "attempt_overtime"
)

// Service drives the attempt lifecycle: InProgress at start, Completed
// after grading, immutable thereafter.
type Service struct {
	store  Store
	gen    *Generator
	grader grading.Grader
	events EventSink        // optional
	now    func() time.Time // injectable for tests

	// enforceTimeLimit flags completions past the quiz's advisory limit
	// (log + overtime event). Completion itself is never rejected.
	enforceTimeLimit bool
}

func NewService(store Store, gen *Generator, grader grading.Grader, events EventSink) *Service {
	if gen == nil {
		gen = NewGenerator(nil)
	}
	if grader == nil {
		grader = grading.NewDefaultGrader()
	}
	return &Service{store: store, gen: gen, grader: grader, events: events, now: time.Now}
}

// SetEnforceTimeLimit toggles overtime flagging on completion.
func (s *Service) SetEnforceTimeLimit(on bool) { s.enforceTimeLimit = on }

// GenerateInstance realizes an instance without starting an attempt, for
// callers that want to preview selection behavior.
func (s *Service) GenerateInstance(ctx context.Context, quizID string) (Instance, error) {
	z, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return Instance{}, err
	}
	return s.gen.Generate(z)
}

// StartAttempt generates an instance, fingerprints it and persists a fresh
// in-progress attempt. The "no open attempt per (learner, quiz)" rule is
// enforced by the store's atomic insert, not by a separate lookup.
func (s *Service) StartAttempt(ctx context.Context, userID, quizID string) (Attempt, error) {
	z, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return Attempt{}, err
	}
	inst, err := s.gen.Generate(z)
	if err != nil {
		return Attempt{}, err
	}
	a := Attempt{
		ID:        uuid.NewString(),
		UserID:    userID,
		QuizID:    quizID,
		Instance:  inst,
		Answers:   map[string]Selection{},
		StartedAt: s.now().UTC(),
	}
	if err := s.store.CreateAttempt(ctx, a); err != nil {
		return Attempt{}, err
	}
	s.emit(ctx, EventAttemptStarted, a.ID, map[string]string{
		"user_id": userID, "quiz_id": quizID, "fingerprint": inst.Fingerprint,
	})
	return a, nil
}

// SubmitAnswer records one selection, last write wins. Question ids outside
// the instance's selected set are stored as-is and silently ignored by the
// grader at completion.
func (s *Service) SubmitAnswer(ctx context.Context, attemptID, questionID string, sel Selection) (Attempt, error) {
	if questionID == "" || !sel.Valid() {
		return Attempt{}, fmt.Errorf("%w: question id and a well-formed selection are required", ErrValidation)
	}
	a, err := s.store.SaveAnswer(ctx, attemptID, questionID, sel)
	if err != nil {
		return Attempt{}, err
	}
	s.emit(ctx, EventAnswerSaved, a.ID, map[string]interface{}{
		"question_id": questionID, "selection": sel,
	})
	return a, nil
}

// CompleteAttempt grades and freezes the attempt. Grading happens over the
// instance's stored question selection, so later catalog edits never change
// what a finished attempt was graded against. Grade-then-persist is atomic:
// the guarded update either freezes the whole result or leaves the attempt
// open.
func (s *Service) CompleteAttempt(ctx context.Context, attemptID string) (Attempt, grading.Summary, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, grading.Summary{}, err
	}
	if a.Completed() {
		return Attempt{}, grading.Summary{}, ErrAlreadyCompleted
	}
	z, err := s.store.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return Attempt{}, grading.Summary{}, err
	}

	sum, _, err := s.grade(a, z)
	if err != nil {
		return Attempt{}, grading.Summary{}, err
	}

	completedAt := s.now().UTC()
	elapsed := int(completedAt.Sub(a.StartedAt).Seconds())
	updated, err := s.store.FinalizeAttempt(ctx, attemptID, sum.ScorePercent, sum.Passed, completedAt, elapsed)
	if err != nil {
		return Attempt{}, grading.Summary{}, err
	}
	s.emit(ctx, EventAttemptCompleted, attemptID, sum)
	if s.enforceTimeLimit && z.TimeLimitMin > 0 && elapsed > z.TimeLimitMin*60 {
		over := elapsed - z.TimeLimitMin*60
		log.Printf("attempt %s completed %ds past the %dmin limit (quiz %s, user %s)",
			attemptID, over, z.TimeLimitMin, a.QuizID, a.UserID)
		s.emit(ctx, EventAttemptOvertime, attemptID, map[string]interface{}{
			"quiz_id": a.QuizID, "user_id": a.UserID,
			"elapsed_sec": elapsed, "limit_min": z.TimeLimitMin, "over_sec": over,
		})
	}
	return updated, sum, nil
}

// grade runs the grading engine over the attempt's instance. Submitted
// display positions are translated to canonical option indices through the
// instance's per-question maps before any comparison.
func (s *Service) grade(a Attempt, z Quiz) (grading.Summary, map[string]grading.Result, error) {
	questions := make([]grading.Q, 0, len(a.Instance.QuestionIDs))
	answers := make(map[string][]int, len(a.Answers))

	for _, qid := range a.Instance.QuestionIDs {
		q, ok := z.QuestionByID(qid)
		if !ok {
			// Question removed from the catalog after generation: nothing
			// left to grade it against, matches legacy behavior.
			continue
		}
		questions = append(questions, grading.Q{
			ID:      q.ID,
			Type:    q.Type,
			Points:  q.Points,
			Correct: q.CorrectSet(),
		})
		if sel, answered := a.Answers[qid]; answered {
			answers[qid] = toCanonical(sel.Indices, a.Instance.OptionMaps[qid])
		}
	}
	return grading.Aggregate(s.grader, questions, answers, z.MinimumScore)
}

// toCanonical maps displayed positions through the instance's option map.
// An out-of-range position becomes -1, which matches no correct set; a
// client cannot gain by submitting positions the instance never displayed.
func toCanonical(displayed, optionMap []int) []int {
	out := make([]int, len(displayed))
	for i, pos := range displayed {
		if pos < 0 || pos >= len(optionMap) {
			out[i] = -1
			continue
		}
		out[i] = optionMap[pos]
	}
	return out
}

// CanRetake reports whether the learner may start a new attempt. Only an
// open attempt blocks a retake; re-taking an already-passed eliminatory
// quiz stays allowed for review.
func (s *Service) CanRetake(ctx context.Context, userID, quizID string) (bool, string, error) {
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return false, "", err
	}
	open, err := s.store.ListAttempts(ctx, AttemptListOpts{
		UserID: userID, QuizID: quizID, Status: StatusInProgress, Limit: 1,
	})
	if err != nil {
		return false, "", err
	}
	if len(open) > 0 {
		return false, "an attempt is already in progress", nil
	}
	return true, "", nil
}

// Attempts returns the learner's attempt history, newest first. The status
// filter is validated here so every store backend sees only the values the
// contract names.
func (s *Service) Attempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	switch opts.Status {
	case "", StatusInProgress, StatusCompleted:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, opts.Status)
	}
	return s.store.ListAttempts(ctx, opts)
}

func (s *Service) Attempt(ctx context.Context, id string) (Attempt, error) {
	return s.store.GetAttempt(ctx, id)
}

func (s *Service) Quiz(ctx context.Context, id string) (Quiz, error) {
	return s.store.GetQuiz(ctx, id)
}

// VerifyAttempt recomputes the stored instance's fingerprint and compares
// it to the recorded one.
func (s *Service) VerifyAttempt(ctx context.Context, attemptID string) error {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return err
	}
	if !ValidateIntegrity(a, a.Instance.Fingerprint) {
		return ErrIntegrity
	}
	return nil
}

// QuizStats aggregates completed attempts for one quiz.
func (s *Service) QuizStats(ctx context.Context, quizID string) (Stats, error) {
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return Stats{}, err
	}
	attempts, err := s.store.ListAttempts(ctx, AttemptListOpts{QuizID: quizID})
	if err != nil {
		return Stats{}, err
	}
	st := Stats{TotalAttempts: len(attempts)}
	var scoreSum, elapsedSum float64
	for _, a := range attempts {
		if !a.Completed() {
			continue
		}
		st.CompletedAttempts++
		scoreSum += a.Score
		elapsedSum += float64(a.ElapsedSec)
		if a.Passed {
			st.PassedAttempts++
		}
	}
	if st.CompletedAttempts > 0 {
		n := float64(st.CompletedAttempts)
		st.PassRate = round2(float64(st.PassedAttempts) / n * 100)
		st.AverageScore = round2(scoreSum / n)
		st.AverageElapsedSec = round2(elapsedSum / n)
	}
	return st, nil
}

func (s *Service) emit(ctx context.Context, typ, key string, data interface{}) {
	if s.events == nil {
		return
	}
	// Best-effort audit trail; the state change already happened.
	_ = s.events.Append(ctx, typ, key, data)
}
