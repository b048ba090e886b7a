package progress

import (
	"context"
	"errors"
	"time"
)

// Service tracks learners through trainings: start/resume, slide position,
// slide completion, and the quiz attempt summaries a training accumulates.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Start creates the learner's progress record or resumes an existing one,
// bumping last-access time either way.
func (s *Service) Start(ctx context.Context, userID, trainingID string) (Record, error) {
	if _, err := s.store.GetTraining(ctx, trainingID); err != nil {
		return Record{}, err
	}
	now := s.now().UTC()
	r, err := s.store.GetRecord(ctx, userID, trainingID)
	switch {
	case err == nil:
		r.LastAccessedAt = now
	case errors.Is(err, ErrProgressNotFound):
		r = Record{
			UserID:          userID,
			TrainingID:      trainingID,
			CompletedSlides: []int{},
			QuizAttempts:    []AttemptRef{},
			Status:          StatusNotStarted,
			StartedAt:       &now,
			LastAccessedAt:  now,
		}
	default:
		return Record{}, err
	}
	if err := s.store.SaveRecord(ctx, r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// UpdatePosition moves the learner's current slide pointer.
func (s *Service) UpdatePosition(ctx context.Context, userID, trainingID string, slide int) (Record, error) {
	r, err := s.store.GetRecord(ctx, userID, trainingID)
	if err != nil {
		return Record{}, err
	}
	now := s.now().UTC()
	r.CurrentSlide = slide
	r.LastAccessedAt = now
	if r.Status == StatusNotStarted {
		r.Status = StatusInProgress
		r.StartedAt = &now
	}
	if err := s.store.SaveRecord(ctx, r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// CompleteSlide marks one slide done; repeat calls are idempotent.
func (s *Service) CompleteSlide(ctx context.Context, userID, trainingID string, slide int) (Record, error) {
	r, err := s.store.GetRecord(ctx, userID, trainingID)
	if err != nil {
		return Record{}, err
	}
	now := s.now().UTC()
	if !r.slideCompleted(slide) {
		r.CompletedSlides = append(r.CompletedSlides, slide)
	}
	if r.Status == StatusNotStarted {
		r.Status = StatusInProgress
		r.StartedAt = &now
	}
	r.LastAccessedAt = now
	if err := s.store.SaveRecord(ctx, r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// RecordAttempt appends a completed quiz attempt summary to the record.
func (s *Service) RecordAttempt(ctx context.Context, userID, trainingID string, ref AttemptRef) (Record, error) {
	r, err := s.store.GetRecord(ctx, userID, trainingID)
	if err != nil {
		return Record{}, err
	}
	r.QuizAttempts = append(r.QuizAttempts, ref)
	r.LastAccessedAt = s.now().UTC()
	if err := s.store.SaveRecord(ctx, r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// CompleteTraining marks the whole training done.
func (s *Service) CompleteTraining(ctx context.Context, userID, trainingID string) (Record, error) {
	r, err := s.store.GetRecord(ctx, userID, trainingID)
	if err != nil {
		return Record{}, err
	}
	now := s.now().UTC()
	r.Status = StatusCompleted
	r.CompletedAt = &now
	r.LastAccessedAt = now
	if err := s.store.SaveRecord(ctx, r); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, userID, trainingID string) (Record, error) {
	return s.store.GetRecord(ctx, userID, trainingID)
}

// History lists the learner's records, optionally filtered by status,
// most recently accessed first.
func (s *Service) History(ctx context.Context, userID, status string) ([]Record, error) {
	return s.store.ListRecords(ctx, userID, status)
}
