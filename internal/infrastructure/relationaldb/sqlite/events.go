package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ersonp/roots-core/internal/domain/entities"
)

const eventColumns = `id, type, date, place, description, person_id, created_at, updated_at`

// SaveEvent inserts or updates an event.
func (t *tx) SaveEvent(ctx context.Context, e *entities.Event) error {
	query := `
		INSERT INTO events (id, type, date, place, description, person_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			date = excluded.date,
			place = excluded.place,
			description = excluded.description,
			person_id = excluded.person_id,
			updated_at = excluded.updated_at
	`
	_, err := t.q.ExecContext(ctx, query,
		e.ID,
		string(e.Type),
		nullTime(e.Date),
		e.Place,
		e.Description,
		e.PersonID,
		formatTime(e.CreatedAt),
		formatTime(e.UpdatedAt),
	)
	if err != nil {
		return storeError("save event", err)
	}
	return nil
}

// DeleteEvent removes an event by ID.
func (t *tx) DeleteEvent(ctx context.Context, id string) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return storeError("delete event", err)
	}
	return nil
}

// DeleteEventsByPerson removes all of a person's events.
func (t *tx) DeleteEventsByPerson(ctx context.Context, personID string) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM events WHERE person_id = ?`, personID); err != nil {
		return storeError("delete events", err)
	}
	return nil
}

// FindEvent retrieves an event by ID.
func (r reader) FindEvent(ctx context.Context, id string) (*entities.Event, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find event", err)
	}
	return e, nil
}

// FindEventsByPerson returns a person's events in insertion order.
func (r reader) FindEventsByPerson(ctx context.Context, personID string) ([]entities.Event, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+eventColumns+` FROM events WHERE person_id = ? ORDER BY rowid`, personID)
	if err != nil {
		return nil, storeError("find events", err)
	}
	defer rows.Close()

	var events []entities.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, storeError("find events", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("find events", err)
	}
	return events, nil
}

func scanEvent(s scanner) (*entities.Event, error) {
	var (
		e                    entities.Event
		eventType            string
		date                 sql.NullString
		createdAt, updatedAt string
	)
	if err := s.Scan(&e.ID, &eventType, &date, &e.Place, &e.Description, &e.PersonID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Type = entities.EventType(eventType)

	var err error
	if e.Date, err = parseNullTime(date); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
