package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/alexanderramin/pistemind/internal/db"
	"github.com/alexanderramin/pistemind/internal/domain"
)

// SQLiteEventRepo implements EventRepo over the session_events table.
type SQLiteEventRepo struct {
	db db.DBTX
}

func NewSQLiteEventRepo(conn db.DBTX) *SQLiteEventRepo {
	return &SQLiteEventRepo{db: conn}
}

// Append inserts e and sets e.ID to the assigned row id.
func (r *SQLiteEventRepo) Append(ctx context.Context, e *domain.SessionEvent) error {
	var data any
	if e.Data != nil {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("encoding event data: %w", err)
		}
		data = string(raw)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO session_events (session_id, timestamp, event_type, event_data) VALUES (?, ?, ?, ?)`,
		e.SessionID, formatTime(e.Timestamp), string(e.Type), data)
	if err != nil {
		return fmt.Errorf("inserting session event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading session event id: %w", err)
	}
	e.ID = strconv.FormatInt(id, 10)
	return nil
}

// ListBySession returns events oldest first.
func (r *SQLiteEventRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.SessionEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, timestamp, event_type, event_data
		FROM session_events WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing session events: %w", err)
	}
	defer rows.Close()

	var events []domain.SessionEvent
	for rows.Next() {
		var (
			e             domain.SessionEvent
			id            int64
			ts, eventType string
			data          sql.NullString
		)
		if err := rows.Scan(&id, &e.SessionID, &ts, &eventType, &data); err != nil {
			return nil, fmt.Errorf("scanning session event: %w", err)
		}
		e.ID = strconv.FormatInt(id, 10)
		e.Type = domain.EventType(eventType)
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parsing event timestamp: %w", err)
		}
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &e.Data); err != nil {
				return nil, fmt.Errorf("decoding event data: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session events: %w", err)
	}
	return events, nil
}
