package quiz

import (
	"context"
	"math"

	"github.com/skillpath/skillpath-lms/internal/grading"
)

// OptionFeedback carries one option's catalog explanation, annotated with
// whether that option was correct. Indices are canonical.
type OptionFeedback struct {
	Index       int    `json:"index"`
	Text        string `json:"text"`
	Explanation string `json:"explanation"`
	Correct     bool   `json:"is_correct"`
}

type QuestionFeedback struct {
	QuestionID     string           `json:"question_id"`
	Text           string           `json:"text"`
	Type           string           `json:"type"`
	Correct        bool             `json:"correct"`
	PointsEarned   int              `json:"points_earned"`
	PointsPossible int              `json:"points_possible"`
	Submitted      []int            `json:"submitted"` // canonical indices, empty when unanswered
	CorrectOptions []int            `json:"correct_options"`
	Explanations   []OptionFeedback `json:"explanations,omitempty"`
}

type FeedbackBundle struct {
	AttemptID string             `json:"attempt_id"`
	Overall   grading.Summary    `json:"overall"`
	Questions []QuestionFeedback `json:"questions"`
}

// Feedback assembles per-question results and explanations for a completed
// attempt. The grading engine is re-run over the frozen instance and answer
// map, which always reproduces the stored score.
func (s *Service) Feedback(ctx context.Context, attemptID string) (FeedbackBundle, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return FeedbackBundle{}, err
	}
	if !a.Completed() {
		return FeedbackBundle{}, ErrNotCompleted
	}
	z, err := s.store.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return FeedbackBundle{}, err
	}

	sum, results, err := s.grade(a, z)
	if err != nil {
		return FeedbackBundle{}, err
	}

	bundle := FeedbackBundle{AttemptID: a.ID, Overall: sum}
	for _, qid := range a.Instance.QuestionIDs {
		q, ok := z.QuestionByID(qid)
		if !ok {
			continue
		}
		res := results[qid]
		qf := QuestionFeedback{
			QuestionID:     qid,
			Text:           q.Text,
			Type:           q.Type,
			Correct:        res.Correct,
			PointsEarned:   res.PointsEarned,
			PointsPossible: q.Points,
			Submitted:      emptyIfNil(res.Submitted),
			CorrectOptions: emptyIfNil(res.CorrectSet),
		}
		for idx, opt := range q.Options {
			if opt.Explanation == "" {
				continue
			}
			qf.Explanations = append(qf.Explanations, OptionFeedback{
				Index:       idx,
				Text:        opt.Text,
				Explanation: opt.Explanation,
				Correct:     opt.Correct,
			})
		}
		bundle.Questions = append(bundle.Questions, qf)
	}
	return bundle, nil
}

func emptyIfNil(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
