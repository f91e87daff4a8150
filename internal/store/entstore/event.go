package entstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jensholdgaard/fanta-auction/internal/clock"
	"github.com/jensholdgaard/fanta-auction/internal/event"
)

// EventStore implements event.Store over database/sql.
type EventStore struct {
	db  *sql.DB
	clk clock.Clock
}

// NewEventStore returns a new EventStore.
func NewEventStore(db *sql.DB, clk clock.Clock) *EventStore {
	return &EventStore{db: db, clk: clk}
}

func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (id, session_id, type, data, created_at)
		 VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = s.clk.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.SessionID, string(e.Type), []byte(e.Data), createdAt); err != nil {
			return fmt.Errorf("inserting event (session=%s, type=%s): %w", e.SessionID, e.Type, err)
		}
	}

	return tx.Commit()
}

func (s *EventStore) Load(ctx context.Context, sessionID string) ([]event.Event, error) {
	return s.listEvents(ctx,
		`SELECT id, session_id, type, data, created_at
		 FROM events WHERE session_id = $1 ORDER BY seq ASC`, sessionID)
}

func (s *EventStore) LoadByType(ctx context.Context, eventType event.Type) ([]event.Event, error) {
	return s.listEvents(ctx,
		`SELECT id, session_id, type, data, created_at
		 FROM events WHERE type = $1 ORDER BY seq ASC`, string(eventType))
}

func (s *EventStore) listEvents(ctx context.Context, query string, args ...any) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var e event.Event
		var data []byte
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Type, &data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Data = data
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}
