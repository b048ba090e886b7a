package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutTraining(ctx context.Context, t Training) error {
	created := t.CreatedAt
	if created == 0 {
		created = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO trainings (id,title,slide_count,published,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, slide_count=EXCLUDED.slide_count, published=EXCLUDED.published`,
		t.ID, t.Title, t.SlideCount, t.Published, created)
	return err
}

func (s *SQLStore) GetTraining(ctx context.Context, id string) (Training, error) {
	var t Training
	err := s.db.QueryRowContext(ctx, `SELECT id,title,slide_count,published,created_at FROM trainings WHERE id=$1`, id).
		Scan(&t.ID, &t.Title, &t.SlideCount, &t.Published, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Training{}, ErrTrainingNotFound
	}
	if err != nil {
		return Training{}, err
	}
	return t, nil
}

func (s *SQLStore) GetRecord(ctx context.Context, userID, trainingID string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT user_id,training_id,current_slide,completed_slides_json,quiz_attempts_json,status,started_at,completed_at,last_accessed_at
		FROM training_progress WHERE user_id=$1 AND training_id=$2`, userID, trainingID)
	return scanRecord(row)
}

// SaveRecord is a whole-row upsert; the (user_id, training_id) primary key
// keeps one record per learner and training.
func (s *SQLStore) SaveRecord(ctx context.Context, r Record) error {
	csj, err := json.Marshal(r.CompletedSlides)
	if err != nil {
		return err
	}
	qaj, err := json.Marshal(r.QuizAttempts)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO training_progress
		(user_id,training_id,current_slide,completed_slides_json,quiz_attempts_json,status,started_at,completed_at,last_accessed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (user_id,training_id) DO UPDATE SET
		  current_slide=EXCLUDED.current_slide,
		  completed_slides_json=EXCLUDED.completed_slides_json,
		  quiz_attempts_json=EXCLUDED.quiz_attempts_json,
		  status=EXCLUDED.status,
		  started_at=EXCLUDED.started_at,
		  completed_at=EXCLUDED.completed_at,
		  last_accessed_at=EXCLUDED.last_accessed_at`,
		r.UserID, r.TrainingID, r.CurrentSlide, string(csj), string(qaj), r.Status,
		unixOrNil(r.StartedAt), unixOrNil(r.CompletedAt), r.LastAccessedAt.Unix())
	return err
}

func (s *SQLStore) ListRecords(ctx context.Context, userID, status string) ([]Record, error) {
	q := `SELECT user_id,training_id,current_slide,completed_slides_json,quiz_attempts_json,status,started_at,completed_at,last_accessed_at
		FROM training_progress WHERE user_id=$1`
	args := []interface{}{userID}
	if status != "" {
		q += ` AND status=$2`
		args = append(args, status)
	}
	q += ` ORDER BY last_accessed_at DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (Record, error) {
	var r Record
	var csj, qaj string
	var started, completed sql.NullInt64
	var accessed int64
	err := row.Scan(&r.UserID, &r.TrainingID, &r.CurrentSlide, &csj, &qaj, &r.Status,
		&started, &completed, &accessed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrProgressNotFound
		}
		return Record{}, err
	}
	if started.Valid {
		t := time.Unix(started.Int64, 0).UTC()
		r.StartedAt = &t
	}
	if completed.Valid {
		t := time.Unix(completed.Int64, 0).UTC()
		r.CompletedAt = &t
	}
	r.LastAccessedAt = time.Unix(accessed, 0).UTC()
	if err := json.Unmarshal([]byte(csj), &r.CompletedSlides); err != nil {
		return Record{}, fmt.Errorf("progress %s/%s: %w", r.UserID, r.TrainingID, err)
	}
	if err := json.Unmarshal([]byte(qaj), &r.QuizAttempts); err != nil {
		return Record{}, fmt.Errorf("progress %s/%s: %w", r.UserID, r.TrainingID, err)
	}
	if r.CompletedSlides == nil {
		r.CompletedSlides = []int{}
	}
	if r.QuizAttempts == nil {
		r.QuizAttempts = []AttemptRef{}
	}
	return r, nil
}

func unixOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}
