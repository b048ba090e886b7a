package grading

import (
	"fmt"
	"math"
)

// Q is a minimal view of a question needed for grading.
type Q struct {
	ID      string
	Type    string // single_choice | multiple_choice
	Points  int
	Correct []int // canonical indices of the correct options
}

// Result is the outcome of grading a single question.
type Result struct {
	Correct      bool
	PointsEarned int
	MaxPoints    int
	CorrectSet   []int
	Submitted    []int // canonical indices, nil when unanswered
}

// Strategy grades a single question against canonical submitted indices.
type Strategy interface {
	Grade(q Q, submitted []int) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(q Q, submitted []int) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(q Q, submitted []int) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{}, fmt.Errorf("no strategy for question type %q", q.Type)
	}
	return s.Grade(q, submitted)
}

// NewDefaultGrader installs the built-in strategies.
func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[string]Strategy{
			"single_choice":   singleChoiceStrategy{},
			"multiple_choice": multipleChoiceStrategy{},
		},
	}
}

// --- Strategies ---

type singleChoiceStrategy struct{}

// Correct iff exactly one index was submitted and it belongs to the correct
// set. The catalog may flag several options correct on a single_choice
// question; only membership is enforced here, not the set's size.
func (singleChoiceStrategy) Grade(q Q, submitted []int) (Result, error) {
	res := base(q, submitted)
	if len(submitted) != 1 {
		return res, nil
	}
	for _, c := range q.Correct {
		if submitted[0] == c {
			res.Correct = true
			res.PointsEarned = q.Points
			break
		}
	}
	return res, nil
}

type multipleChoiceStrategy struct{}

// Correct iff the submitted set equals the correct set exactly. No partial
// credit for subsets or supersets.
func (multipleChoiceStrategy) Grade(q Q, submitted []int) (Result, error) {
	res := base(q, submitted)
	if setEqual(toSet(submitted), toSet(q.Correct)) {
		res.Correct = true
		res.PointsEarned = q.Points
	}
	return res, nil
}

func base(q Q, submitted []int) Result {
	return Result{MaxPoints: q.Points, CorrectSet: q.Correct, Submitted: submitted}
}

// --- Aggregation ---

// Summary aggregates per-question results for one attempt.
type Summary struct {
	ScorePercent     float64 `json:"score_percent"`
	PointsEarned     int     `json:"points_earned"`
	TotalPoints      int     `json:"total_points"`
	QuestionsCorrect int     `json:"questions_correct"`
	TotalQuestions   int     `json:"total_questions"`
	Passed           bool    `json:"passed"`
}

// Aggregate grades every question against the answer map. A question with
// no entry in answers still counts toward the total but earns nothing. The
// percentage is rounded to two decimals and zero when no points are at
// stake; passing is inclusive of the threshold.
func Aggregate(g Grader, questions []Q, answers map[string][]int, minScore float64) (Summary, map[string]Result, error) {
	sum := Summary{TotalQuestions: len(questions)}
	results := make(map[string]Result, len(questions))

	for _, q := range questions {
		sum.TotalPoints += q.Points

		submitted, answered := answers[q.ID]
		if !answered {
			results[q.ID] = base(q, nil)
			continue
		}
		res, err := g.Grade(q, submitted)
		if err != nil {
			return Summary{}, nil, err
		}
		results[q.ID] = res
		sum.PointsEarned += res.PointsEarned
		if res.Correct {
			sum.QuestionsCorrect++
		}
	}

	if sum.TotalPoints > 0 {
		pct := float64(sum.PointsEarned) / float64(sum.TotalPoints) * 100
		sum.ScorePercent = math.Round(pct*100) / 100
	}
	sum.Passed = sum.ScorePercent >= minScore
	return sum, results, nil
}

// helpers

func toSet(arr []int) map[int]struct{} {
	m := make(map[int]struct{}, len(arr))
	for _, i := range arr {
		m[i] = struct{}{}
	}
	return m
}

func setEqual(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
