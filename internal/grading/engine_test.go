package grading

import (
	"reflect"
	"testing"
)

func TestSingleChoiceGrading(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{ID: "q1", Type: "single_choice", Points: 2, Correct: []int{2}}

	cases := []struct {
		name      string
		submitted []int
		correct   bool
	}{
		{"exact match", []int{2}, true},
		{"wrong option", []int{0}, false},
		{"two submitted on single choice", []int{0, 2}, false},
		{"empty submission", []int{}, false},
		{"out of range sentinel", []int{-1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := g.Grade(q, tc.submitted)
			if err != nil {
				t.Fatalf("grade: %v", err)
			}
			if res.Correct != tc.correct {
				t.Fatalf("correct = %v, want %v", res.Correct, tc.correct)
			}
			want := 0
			if tc.correct {
				want = q.Points
			}
			if res.PointsEarned != want {
				t.Fatalf("points = %d, want %d", res.PointsEarned, want)
			}
		})
	}
}

func TestSingleChoiceMembershipOnSeveralCorrect(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{ID: "q1", Type: "single_choice", Points: 1, Correct: []int{1, 3}}

	for _, idx := range []int{1, 3} {
		res, err := g.Grade(q, []int{idx})
		if err != nil {
			t.Fatalf("grade: %v", err)
		}
		if !res.Correct {
			t.Fatalf("index %d should satisfy membership", idx)
		}
	}
	res, _ := g.Grade(q, []int{2})
	if res.Correct {
		t.Fatal("index outside the correct set must not pass")
	}
}

func TestMultipleChoiceExactSetMatch(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{ID: "q2", Type: "multiple_choice", Points: 3, Correct: []int{0, 1}}

	cases := []struct {
		name      string
		submitted []int
		correct   bool
	}{
		{"exact set", []int{0, 1}, true},
		{"order irrelevant", []int{1, 0}, true},
		{"duplicates collapse", []int{0, 1, 1}, true},
		{"subset earns nothing", []int{0}, false},
		{"superset earns nothing", []int{0, 1, 2}, false},
		{"disjoint", []int{2, 3}, false},
		{"empty", []int{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := g.Grade(q, tc.submitted)
			if err != nil {
				t.Fatalf("grade: %v", err)
			}
			if res.Correct != tc.correct {
				t.Fatalf("correct = %v, want %v", res.Correct, tc.correct)
			}
		})
	}
}

func TestUnknownTypeIsAnError(t *testing.T) {
	g := NewDefaultGrader()
	if _, err := g.Grade(Q{ID: "q", Type: "essay"}, nil); err == nil {
		t.Fatal("expected error for unrouted question type")
	}
}

func TestAggregateUnansweredCountsTowardTotal(t *testing.T) {
	g := NewDefaultGrader()
	questions := []Q{
		{ID: "a", Type: "single_choice", Points: 1, Correct: []int{0}},
		{ID: "b", Type: "single_choice", Points: 1, Correct: []int{1}},
	}
	answers := map[string][]int{"a": {0}} // b left unanswered

	sum, results, err := Aggregate(g, questions, answers, 70)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sum.TotalQuestions != 2 || sum.TotalPoints != 2 {
		t.Fatalf("totals = %d questions / %d points", sum.TotalQuestions, sum.TotalPoints)
	}
	if sum.ScorePercent != 50 {
		t.Fatalf("score = %v, want 50", sum.ScorePercent)
	}
	if sum.Passed {
		t.Fatal("50 must not pass a 70 threshold")
	}
	if res := results["b"]; res.Correct || res.Submitted != nil {
		t.Fatalf("unanswered question graded as %+v", res)
	}
}

func TestAggregatePassBoundaryIsInclusive(t *testing.T) {
	g := NewDefaultGrader()
	questions := []Q{
		{ID: "a", Type: "single_choice", Points: 1, Correct: []int{0}},
		{ID: "b", Type: "single_choice", Points: 1, Correct: []int{0}},
	}

	sum, _, err := Aggregate(g, questions, map[string][]int{"a": {0}}, 50)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sum.ScorePercent != 50 || !sum.Passed {
		t.Fatalf("score=%v passed=%v, want exactly 50 to pass", sum.ScorePercent, sum.Passed)
	}

	sum, _, err = Aggregate(g, questions, map[string][]int{"a": {0}}, 50.01)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sum.Passed {
		t.Fatal("just below the threshold must fail")
	}
}

func TestAggregateRoundsToTwoDecimals(t *testing.T) {
	g := NewDefaultGrader()
	questions := []Q{
		{ID: "a", Type: "single_choice", Points: 1, Correct: []int{0}},
		{ID: "b", Type: "single_choice", Points: 1, Correct: []int{0}},
		{ID: "c", Type: "single_choice", Points: 1, Correct: []int{0}},
	}
	answers := map[string][]int{"a": {0}} // 1/3

	sum, _, err := Aggregate(g, questions, answers, 0)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sum.ScorePercent != 33.33 {
		t.Fatalf("score = %v, want 33.33", sum.ScorePercent)
	}
}

func TestAggregateZeroPointsAtStake(t *testing.T) {
	g := NewDefaultGrader()
	questions := []Q{{ID: "a", Type: "single_choice", Points: 0, Correct: []int{0}}}

	sum, _, err := Aggregate(g, questions, map[string][]int{"a": {0}}, 0)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sum.ScorePercent != 0 {
		t.Fatalf("score = %v, want 0 with no points at stake", sum.ScorePercent)
	}
	if !sum.Passed {
		t.Fatal("threshold 0 is inclusive even with zero points")
	}
}

func TestAggregateScoreMonotonicInCorrectAnswers(t *testing.T) {
	g := NewDefaultGrader()
	questions := []Q{
		{ID: "a", Type: "single_choice", Points: 1, Correct: []int{0}},
		{ID: "b", Type: "single_choice", Points: 1, Correct: []int{0}},
		{ID: "c", Type: "single_choice", Points: 1, Correct: []int{0}},
	}

	prev := -1.0
	answers := map[string][]int{}
	for _, q := range questions {
		answers[q.ID] = []int{0}
		sum, _, err := Aggregate(g, questions, answers, 0)
		if err != nil {
			t.Fatalf("aggregate: %v", err)
		}
		if sum.ScorePercent <= prev {
			t.Fatalf("score %v did not increase past %v", sum.ScorePercent, prev)
		}
		prev = sum.ScorePercent
	}
	if prev != 100 {
		t.Fatalf("all-correct score = %v, want 100", prev)
	}
}

func TestResultCarriesCorrectSetForFeedback(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{ID: "q", Type: "multiple_choice", Points: 1, Correct: []int{1, 2}}
	res, err := g.Grade(q, []int{0})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if !reflect.DeepEqual(res.CorrectSet, []int{1, 2}) {
		t.Fatalf("correct set = %v", res.CorrectSet)
	}
	if !reflect.DeepEqual(res.Submitted, []int{0}) {
		t.Fatalf("submitted = %v", res.Submitted)
	}
}
