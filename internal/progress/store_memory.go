package progress

import (
	"context"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu        sync.RWMutex
	trainings map[string]Training
	records   map[string]Record // key: userID|trainingID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trainings: map[string]Training{},
		records:   map[string]Record{},
	}
}

func key(userID, trainingID string) string { return userID + "|" + trainingID }

func (m *MemoryStore) PutTraining(_ context.Context, t Training) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainings[t.ID] = t
	return nil
}

func (m *MemoryStore) GetTraining(_ context.Context, id string) (Training, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trainings[id]
	if !ok {
		return Training{}, ErrTrainingNotFound
	}
	return t, nil
}

func (m *MemoryStore) GetRecord(_ context.Context, userID, trainingID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[key(userID, trainingID)]
	if !ok {
		return Record{}, ErrProgressNotFound
	}
	return cloneRecord(r), nil
}

func (m *MemoryStore) SaveRecord(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key(r.UserID, r.TrainingID)] = cloneRecord(r)
	return nil
}

func (m *MemoryStore) ListRecords(_ context.Context, userID, status string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, r := range m.records {
		if r.UserID != userID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, cloneRecord(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastAccessedAt.After(out[j].LastAccessedAt) })
	return out, nil
}

func cloneRecord(r Record) Record {
	out := r
	out.CompletedSlides = append([]int(nil), r.CompletedSlides...)
	out.QuizAttempts = append([]AttemptRef(nil), r.QuizAttempts...)
	if r.StartedAt != nil {
		t := *r.StartedAt
		out.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
