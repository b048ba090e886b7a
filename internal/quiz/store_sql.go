package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLStore runs the engine contract on database/sql, sqlite or postgres.
// Atomicity model: the open-attempt rule rides on the partial unique index
// over (user_id, quiz_id) WHERE completed_at IS NULL, answer writes replace
// the whole answer map inside a transaction, and completion is a single
// guarded UPDATE, so a raced second completion changes zero rows.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutQuiz(ctx context.Context, z Quiz) error {
	qj, err := json.Marshal(z.Questions)
	if err != nil {
		return err
	}
	created := z.CreatedAt
	if created == 0 {
		created = time.Now().Unix()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes
		(id,training_id,title,description,pool_size,minimum_score,time_limit_min,eliminatory,position_in_training,randomize_answers,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
		  training_id=EXCLUDED.training_id, title=EXCLUDED.title, description=EXCLUDED.description,
		  pool_size=EXCLUDED.pool_size, minimum_score=EXCLUDED.minimum_score,
		  time_limit_min=EXCLUDED.time_limit_min, eliminatory=EXCLUDED.eliminatory,
		  position_in_training=EXCLUDED.position_in_training, randomize_answers=EXCLUDED.randomize_answers,
		  questions_json=EXCLUDED.questions_json`,
		z.ID, z.TrainingID, z.Title, z.Description, z.PoolSize, z.MinimumScore,
		z.TimeLimitMin, z.Eliminatory, z.PositionInTraining, z.RandomizeAnswers,
		string(qj), created)
	return err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,training_id,title,description,pool_size,minimum_score,time_limit_min,eliminatory,position_in_training,randomize_answers,questions_json,created_at
		FROM quizzes WHERE id=$1`, id)
	return scanQuiz(row)
}

func (s *SQLStore) ListTrainingQuizzes(ctx context.Context, trainingID string) ([]Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,training_id,title,description,pool_size,minimum_score,time_limit_min,eliminatory,position_in_training,randomize_answers,questions_json,created_at
		FROM quizzes WHERE training_id=$1
		ORDER BY position_in_training IS NULL, position_in_training ASC, created_at ASC`, trainingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Quiz
	for rows.Next() {
		z, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuiz(row rowScanner) (Quiz, error) {
	var z Quiz
	var qjson string
	var pos sql.NullInt64
	err := row.Scan(&z.ID, &z.TrainingID, &z.Title, &z.Description, &z.PoolSize,
		&z.MinimumScore, &z.TimeLimitMin, &z.Eliminatory, &pos, &z.RandomizeAnswers,
		&qjson, &z.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrQuizNotFound
		}
		return Quiz{}, err
	}
	if pos.Valid {
		p := int(pos.Int64)
		z.PositionInTraining = &p
	}
	if err := json.Unmarshal([]byte(qjson), &z.Questions); err != nil {
		return Quiz{}, fmt.Errorf("quiz %s: %w", z.ID, err)
	}
	return z, nil
}

func (s *SQLStore) CreateAttempt(ctx context.Context, a Attempt) error {
	ij, err := json.Marshal(a.Instance)
	if err != nil {
		return err
	}
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts
		(id,user_id,quiz_id,instance_json,answers_json,score,passed,started_at)
		VALUES ($1,$2,$3,$4,$5,0,$6,$7)`,
		a.ID, a.UserID, a.QuizID, string(ij), string(aj), false, a.StartedAt.Unix())
	if err != nil && isUniqueViolation(err) {
		return ErrAttemptInProgress
	}
	return err
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,user_id,quiz_id,instance_json,answers_json,score,passed,started_at,completed_at,elapsed_sec
		FROM attempts WHERE id=$1`, id)
	return scanAttempt(row)
}

func (s *SQLStore) SaveAnswer(ctx context.Context, attemptID, questionID string, sel Selection) (Attempt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Attempt{}, err
	}
	defer tx.Rollback()

	// Under postgres READ COMMITTED, two racing saves can both read the same
	// map snapshot and the later UPDATE would drop the earlier answer, so
	// the read takes a row lock. sqlite serializes write transactions and
	// rejects FOR UPDATE syntax.
	selQuery := `SELECT answers_json, completed_at FROM attempts WHERE id=$1`
	if s.driver == "postgres" {
		selQuery += ` FOR UPDATE`
	}
	var ajson string
	var completed sql.NullInt64
	err = tx.QueryRowContext(ctx, selQuery, attemptID).
		Scan(&ajson, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, ErrAttemptNotFound
	}
	if err != nil {
		return Attempt{}, err
	}
	if completed.Valid {
		return Attempt{}, ErrAttemptCompleted
	}

	answers := map[string]Selection{}
	if ajson != "" {
		if err := json.Unmarshal([]byte(ajson), &answers); err != nil {
			return Attempt{}, fmt.Errorf("attempt %s: %w", attemptID, err)
		}
	}
	answers[questionID] = sel
	buf, err := json.Marshal(answers)
	if err != nil {
		return Attempt{}, err
	}

	// Full-value replacement, still guarded: a completion racing this write
	// wins and the answer is rejected.
	res, err := tx.ExecContext(ctx, `UPDATE attempts SET answers_json=$1 WHERE id=$2 AND completed_at IS NULL`,
		string(buf), attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Attempt{}, ErrAttemptCompleted
	}
	if err := tx.Commit(); err != nil {
		return Attempt{}, err
	}
	return s.GetAttempt(ctx, attemptID)
}

func (s *SQLStore) FinalizeAttempt(ctx context.Context, id string, score float64, passed bool, completedAt time.Time, elapsedSec int) (Attempt, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE attempts
		SET score=$1, passed=$2, completed_at=$3, elapsed_sec=$4
		WHERE id=$5 AND completed_at IS NULL`,
		score, passed, completedAt.Unix(), elapsedSec, id)
	if err != nil {
		return Attempt{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing record from a raced second completion.
		if _, err := s.GetAttempt(ctx, id); err != nil {
			return Attempt{}, err
		}
		return Attempt{}, ErrAlreadyCompleted
	}
	return s.GetAttempt(ctx, id)
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	q := `SELECT id,user_id,quiz_id,instance_json,answers_json,score,passed,started_at,completed_at,elapsed_sec FROM attempts`
	var where []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if opts.QuizID != "" {
		where = append(where, "quiz_id="+arg(opts.QuizID))
	}
	if opts.UserID != "" {
		where = append(where, "user_id="+arg(opts.UserID))
	}
	switch opts.Status {
	case StatusInProgress:
		where = append(where, "completed_at IS NULL")
	case StatusCompleted:
		where = append(where, "completed_at IS NOT NULL")
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY started_at DESC"
	if opts.Limit > 0 {
		q += " LIMIT " + arg(opts.Limit)
	}
	if opts.Offset > 0 {
		q += " OFFSET " + arg(opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) HasPassedAttempt(ctx context.Context, userID, quizID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM attempts
		WHERE user_id=$1 AND quiz_id=$2 AND passed=$3 AND completed_at IS NOT NULL
		ORDER BY completed_at DESC LIMIT 1`, userID, quizID, true).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanAttempt(row rowScanner) (Attempt, error) {
	var a Attempt
	var ijson, ajson string
	var started int64
	var completed, elapsed sql.NullInt64
	err := row.Scan(&a.ID, &a.UserID, &a.QuizID, &ijson, &ajson, &a.Score, &a.Passed,
		&started, &completed, &elapsed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	a.StartedAt = time.Unix(started, 0).UTC()
	if completed.Valid {
		t := time.Unix(completed.Int64, 0).UTC()
		a.CompletedAt = &t
	}
	if elapsed.Valid {
		a.ElapsedSec = int(elapsed.Int64)
	}
	if err := json.Unmarshal([]byte(ijson), &a.Instance); err != nil {
		return Attempt{}, fmt.Errorf("attempt %s instance: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(ajson), &a.Answers); err != nil {
		return Attempt{}, fmt.Errorf("attempt %s answers: %w", a.ID, err)
	}
	if a.Answers == nil {
		a.Answers = map[string]Selection{}
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value violates unique") || // postgres
		strings.Contains(msg, "sqlstate 23505")
}
