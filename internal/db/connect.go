package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:skillpath.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/skillpath?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS trainings (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  slide_count INTEGER NOT NULL DEFAULT 0,
  published INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  training_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  pool_size INTEGER NOT NULL DEFAULT 0,
  minimum_score REAL NOT NULL DEFAULT 70,
  time_limit_min INTEGER NOT NULL DEFAULT 0,
  eliminatory INTEGER NOT NULL DEFAULT 0,
  position_in_training INTEGER,
  randomize_answers INTEGER NOT NULL DEFAULT 1,
  questions_json TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  instance_json TEXT NOT NULL,
  answers_json TEXT NOT NULL,
  score REAL NOT NULL DEFAULT 0,
  passed INTEGER NOT NULL DEFAULT 0,
  started_at INTEGER NOT NULL,
  completed_at INTEGER,
  elapsed_sec INTEGER
);

-- One open attempt per (learner, quiz); closes the start/start race at the
-- storage layer.
CREATE UNIQUE INDEX IF NOT EXISTS attempts_open_unique
  ON attempts(user_id, quiz_id) WHERE completed_at IS NULL;

CREATE INDEX IF NOT EXISTS attempts_user_quiz ON attempts(user_id, quiz_id);

CREATE TABLE IF NOT EXISTS training_progress (
  user_id TEXT NOT NULL,
  training_id TEXT NOT NULL REFERENCES trainings(id) ON DELETE CASCADE,
  current_slide INTEGER NOT NULL DEFAULT 0,
  completed_slides_json TEXT NOT NULL DEFAULT '[]',
  quiz_attempts_json TEXT NOT NULL DEFAULT '[]',
  status TEXT NOT NULL DEFAULT 'not_started',
  started_at INTEGER,
  completed_at INTEGER,
  last_accessed_at INTEGER NOT NULL,
  PRIMARY KEY (user_id, training_id)
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  offset_id INTEGER PRIMARY KEY AUTOINCREMENT, -- BIGSERIAL in Postgres
  typ TEXT NOT NULL,                           -- e.g. attempt_completed
  key TEXT NOT NULL,                           -- natural key: attempt id
  data TEXT NOT NULL,                          -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS trainings (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  slide_count INTEGER NOT NULL DEFAULT 0,
  published BOOLEAN NOT NULL DEFAULT FALSE,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  training_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  pool_size INTEGER NOT NULL DEFAULT 0,
  minimum_score DOUBLE PRECISION NOT NULL DEFAULT 70,
  time_limit_min INTEGER NOT NULL DEFAULT 0,
  eliminatory BOOLEAN NOT NULL DEFAULT FALSE,
  position_in_training INTEGER,
  randomize_answers BOOLEAN NOT NULL DEFAULT TRUE,
  questions_json TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  instance_json TEXT NOT NULL,
  answers_json TEXT NOT NULL,
  score DOUBLE PRECISION NOT NULL DEFAULT 0,
  passed BOOLEAN NOT NULL DEFAULT FALSE,
  started_at BIGINT NOT NULL,
  completed_at BIGINT,
  elapsed_sec INTEGER
);

CREATE UNIQUE INDEX IF NOT EXISTS attempts_open_unique
  ON attempts(user_id, quiz_id) WHERE completed_at IS NULL;

CREATE INDEX IF NOT EXISTS attempts_user_quiz ON attempts(user_id, quiz_id);

CREATE TABLE IF NOT EXISTS training_progress (
  user_id TEXT NOT NULL,
  training_id TEXT NOT NULL REFERENCES trainings(id) ON DELETE CASCADE,
  current_slide INTEGER NOT NULL DEFAULT 0,
  completed_slides_json TEXT NOT NULL DEFAULT '[]',
  quiz_attempts_json TEXT NOT NULL DEFAULT '[]',
  status TEXT NOT NULL DEFAULT 'not_started',
  started_at BIGINT,
  completed_at BIGINT,
  last_accessed_at BIGINT NOT NULL,
  PRIMARY KEY (user_id, training_id)
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  offset_id BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
