package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event is one append-only row in the attempt audit trail.
type Event struct {
	Offset    int64
	Type      string
	Key       string // natural key, e.g. attempt id
	DataJSON  string
	CreatedAt int64
}

// EventRepo appends lifecycle events to the event_log table. It satisfies
// quiz.EventSink.
type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, typ, key string, data interface{}) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	return err
}

// ListByKey returns the events recorded for one key in append order.
func (r *EventRepo) ListByKey(ctx context.Context, key string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT offset_id, typ, key, data, created_at FROM event_log WHERE key=$1 ORDER BY offset_id ASC`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
