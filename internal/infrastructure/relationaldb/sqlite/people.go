package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/ports"
)

const personColumns = `id, first_name, last_name, gender, is_living, birth_date, birth_place,
	death_date, death_place, notes, created_at, updated_at`

// SavePerson inserts or updates a person.
func (t *tx) SavePerson(ctx context.Context, p *entities.Person) error {
	query := `
		INSERT INTO people (id, first_name, last_name, first_key, last_key, gender, is_living,
			birth_date, birth_place, death_date, death_place, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			first_key = excluded.first_key,
			last_key = excluded.last_key,
			gender = excluded.gender,
			is_living = excluded.is_living,
			birth_date = excluded.birth_date,
			birth_place = excluded.birth_place,
			death_date = excluded.death_date,
			death_place = excluded.death_place,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`
	_, err := t.q.ExecContext(ctx, query,
		p.ID,
		p.FirstName,
		p.LastName,
		entities.FoldName(p.FirstName),
		entities.FoldName(p.LastName),
		string(p.Gender),
		boolToInt(p.IsLiving),
		nullTime(p.BirthDate),
		p.BirthPlace,
		nullTime(p.DeathDate),
		p.DeathPlace,
		p.Notes,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return storeError("save person", err)
	}
	return nil
}

// DeletePerson removes a person row. Dependent rows must already be gone.
func (t *tx) DeletePerson(ctx context.Context, id string) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM people WHERE id = ?`, id); err != nil {
		return storeError("delete person", err)
	}
	return nil
}

// FindPerson retrieves a person by ID.
func (r reader) FindPerson(ctx context.Context, id string) (*entities.Person, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE id = ?`, id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find person", err)
	}
	return p, nil
}

// ListPeople returns people whose folded first or last name contains the
// folded search term, ordered by last name, first name, then ID.
func (r reader) ListPeople(ctx context.Context, filter ports.PersonFilter) ([]entities.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people`
	var args []any

	if key := entities.FoldName(filter.Search); key != "" {
		pattern := "%" + escapeLike(key) + "%"
		query += ` WHERE first_key LIKE ? ESCAPE '\' OR last_key LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY last_key, first_key, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, max(filter.Offset, 0))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("list people", err)
	}
	defer rows.Close()

	people := make([]entities.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, storeError("list people", err)
		}
		people = append(people, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list people", err)
	}
	return people, nil
}

// CountPeople returns the number of people.
func (r reader) CountPeople(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM people`).Scan(&count); err != nil {
		return 0, storeError("count people", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(s scanner) (*entities.Person, error) {
	var (
		p                    entities.Person
		gender               string
		living               int
		birth, death         sql.NullString
		createdAt, updatedAt string
	)
	err := s.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&gender,
		&living,
		&birth,
		&p.BirthPlace,
		&death,
		&p.DeathPlace,
		&p.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Gender = entities.Gender(gender)
	p.IsLiving = living != 0

	if p.BirthDate, err = parseNullTime(birth); err != nil {
		return nil, err
	}
	if p.DeathDate, err = parseNullTime(death); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
