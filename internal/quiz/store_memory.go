package quiz

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps the full contract in process memory. Used by tests and
// the offline single-node mode; the mutex gives it the same atomicity the
// SQL store gets from its guarded statements.
type MemoryStore struct {
	mu       sync.RWMutex
	quizzes  map[string]Quiz
	attempts map[string]Attempt
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quizzes:  map[string]Quiz{},
		attempts: map[string]Attempt{},
	}
}

func (m *MemoryStore) PutQuiz(_ context.Context, z Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if z.CreatedAt == 0 {
		z.CreatedAt = time.Now().Unix()
	}
	m.quizzes[z.ID] = z
	return nil
}

func (m *MemoryStore) GetQuiz(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	return z, nil
}

func (m *MemoryStore) ListTrainingQuizzes(_ context.Context, trainingID string) ([]Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Quiz
	for _, z := range m.quizzes {
		if z.TrainingID == trainingID {
			out = append(out, z)
		}
	}
	// position order, unpositioned quizzes last, creation order as tiebreak
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].PositionInTraining, out[j].PositionInTraining
		switch {
		case pi != nil && pj != nil && *pi != *pj:
			return *pi < *pj
		case pi != nil && pj == nil:
			return true
		case pi == nil && pj != nil:
			return false
		}
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out, nil
}

func (m *MemoryStore) CreateAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.attempts {
		if existing.UserID == a.UserID && existing.QuizID == a.QuizID && !existing.Completed() {
			return ErrAttemptInProgress
		}
	}
	m.attempts[a.ID] = cloneAttempt(a)
	return nil
}

func (m *MemoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return cloneAttempt(a), nil
}

func (m *MemoryStore) SaveAnswer(_ context.Context, attemptID, questionID string, sel Selection) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	if a.Completed() {
		return Attempt{}, ErrAttemptCompleted
	}
	a = cloneAttempt(a)
	a.Answers[questionID] = sel
	m.attempts[attemptID] = a
	return cloneAttempt(a), nil
}

func (m *MemoryStore) FinalizeAttempt(_ context.Context, id string, score float64, passed bool, completedAt time.Time, elapsedSec int) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	if a.Completed() {
		return Attempt{}, ErrAlreadyCompleted
	}
	a = cloneAttempt(a)
	a.Score = score
	a.Passed = passed
	a.CompletedAt = &completedAt
	a.ElapsedSec = elapsedSec
	m.attempts[id] = a
	return cloneAttempt(a), nil
}

func (m *MemoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Attempt
	for _, a := range m.attempts {
		if opts.QuizID != "" && a.QuizID != opts.QuizID {
			continue
		}
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && a.Status() != opts.Status {
			continue
		}
		out = append(out, cloneAttempt(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *MemoryStore) HasPassedAttempt(_ context.Context, userID, quizID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.attempts {
		if a.UserID == userID && a.QuizID == quizID && a.Completed() && a.Passed {
			return true, nil
		}
	}
	return false, nil
}

// cloneAttempt detaches the maps so callers never alias stored state.
func cloneAttempt(a Attempt) Attempt {
	out := a
	out.Answers = make(map[string]Selection, len(a.Answers))
	for k, v := range a.Answers {
		out.Answers[k] = v
	}
	out.Instance.OptionMaps = make(map[string][]int, len(a.Instance.OptionMaps))
	for k, v := range a.Instance.OptionMaps {
		out.Instance.OptionMaps[k] = append([]int(nil), v...)
	}
	out.Instance.QuestionIDs = append([]string(nil), a.Instance.QuestionIDs...)
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
