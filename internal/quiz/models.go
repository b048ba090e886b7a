package quiz

import "time"

// Question types. The catalog only produces these two; anything else is
// rejected at grading time.
const (
	TypeSingleChoice   = "single_choice"
	TypeMultipleChoice = "multiple_choice"
)

type Option struct {
	Text        string `json:"text"`
	Correct     bool   `json:"is_correct,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

type Question struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Type       string   `json:"type"` // single_choice | multiple_choice
	Options    []Option `json:"options"`
	Points     int      `json:"points"`
	OrderIndex int      `json:"order_index"`
}

// CorrectSet returns the canonical indices of the options flagged correct.
func (q Question) CorrectSet() []int {
	var out []int
	for i, o := range q.Options {
		if o.Correct {
			out = append(out, i)
		}
	}
	return out
}

type Quiz struct {
	ID          string `json:"id"`
	TrainingID  string `json:"training_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// PoolSize is the number of questions sampled per instance. Zero (or a
	// value >= the question count) means every question is used; zero is
	// deliberately NOT "empty quiz" — legacy catalogs store 0 for "all".
	PoolSize int `json:"pool_size,omitempty"`

	// MinimumScore is the passing threshold as a percentage, inclusive.
	MinimumScore float64 `json:"minimum_score"`

	// TimeLimitMin is advisory; completion is never rejected for exceeding it.
	TimeLimitMin int `json:"time_limit_min,omitempty"`

	// Eliminatory quizzes block training progress until passed.
	Eliminatory bool `json:"eliminatory"`

	// PositionInTraining is the gated slide position, nil for end-of-training
	// or standalone quizzes.
	PositionInTraining *int `json:"position_in_training,omitempty"`

	RandomizeAnswers bool       `json:"randomize_answers"`
	Questions        []Question `json:"questions"`
	CreatedAt        int64      `json:"created_at,omitempty"`
}

// QuestionByID looks a question up in catalog order.
func (z Quiz) QuestionByID(id string) (Question, bool) {
	for _, q := range z.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Instance is one concrete realization of a quiz: the selected question ids
// and, per question, the displayed-position -> canonical-index permutation.
// It is embedded in an attempt and never persisted on its own.
type Instance struct {
	QuizID      string `json:"quiz_id"`
	QuestionIDs []string `json:"question_ids"`

	// OptionMaps[qid][displayedPos] = canonical option index. A bijection
	// over the question's option count; empty for zero-option questions.
	OptionMaps map[string][]int `json:"option_maps"`

	Fingerprint string `json:"fingerprint"`
}

// Attempt statuses, mirrored in the attempts table.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Attempt is one learner's run through an instance. Mutable only through
// the lifecycle service while in progress; frozen at completion.
type Attempt struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id"`
	QuizID   string   `json:"quiz_id"`
	Instance Instance `json:"instance"`

	// Answers maps question id -> submitted selection (displayed positions).
	Answers map[string]Selection `json:"answers"`

	Score       float64    `json:"score"` // percentage 0-100
	Passed      bool       `json:"passed"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ElapsedSec  int        `json:"elapsed_sec,omitempty"`
}

func (a Attempt) Completed() bool { return a.CompletedAt != nil }

func (a Attempt) Status() string {
	if a.Completed() {
		return StatusCompleted
	}
	return StatusInProgress
}

// Stats summarizes completed attempts for one quiz.
type Stats struct {
	TotalAttempts     int     `json:"total_attempts"`
	CompletedAttempts int     `json:"completed_attempts"`
	PassedAttempts    int     `json:"passed_attempts"`
	PassRate          float64 `json:"pass_rate"`
	AverageScore      float64 `json:"average_score"`
	AverageElapsedSec float64 `json:"average_elapsed_sec"`
}
