package progress

import "context"

// Store persists trainings and per-learner progress records. SaveRecord is
// an upsert keyed on (user_id, training_id); the uniqueness of that pair is
// a storage-level constraint, not a service-side check.
type Store interface {
	PutTraining(ctx context.Context, t Training) error
	GetTraining(ctx context.Context, id string) (Training, error)

	GetRecord(ctx context.Context, userID, trainingID string) (Record, error)
	SaveRecord(ctx context.Context, r Record) error
	ListRecords(ctx context.Context, userID string, status string) ([]Record, error)
}
