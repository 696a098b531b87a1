package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ersonp/roots-core/internal/domain/entities"
)

const relationshipColumns = `id, type, person_id, related_person_id, created_at, updated_at`

// SaveRelationship inserts or updates one directed edge.
func (t *tx) SaveRelationship(ctx context.Context, rel *entities.Relationship) error {
	query := `
		INSERT INTO relationships (id, type, person_id, related_person_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			updated_at = excluded.updated_at
	`
	_, err := t.q.ExecContext(ctx, query,
		rel.ID,
		string(rel.Type),
		rel.PersonID,
		rel.RelatedPersonID,
		formatTime(rel.CreatedAt),
		formatTime(rel.UpdatedAt),
	)
	if err != nil {
		return storeError("save relationship", err)
	}
	return nil
}

// DeleteRelationship removes one edge by ID.
func (t *tx) DeleteRelationship(ctx context.Context, id string) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM relationships WHERE id = ?`, id); err != nil {
		return storeError("delete relationship", err)
	}
	return nil
}

// DeleteRelationshipsByPerson removes every edge where the person is either end.
func (t *tx) DeleteRelationshipsByPerson(ctx context.Context, personID string) error {
	query := `DELETE FROM relationships WHERE person_id = ? OR related_person_id = ?`
	if _, err := t.q.ExecContext(ctx, query, personID, personID); err != nil {
		return storeError("delete relationships", err)
	}
	return nil
}

// FindRelationship retrieves an edge by ID.
func (r reader) FindRelationship(ctx context.Context, id string) (*entities.Relationship, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+relationshipColumns+` FROM relationships WHERE id = ?`, id)
	rel, err := scanRelationship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find relationship", err)
	}
	return rel, nil
}

// FindRelationshipsByPerson returns the edges owned by a person in insertion order.
func (r reader) FindRelationshipsByPerson(ctx context.Context, personID string) ([]entities.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationships WHERE person_id = ? ORDER BY rowid`
	return r.queryRelationships(ctx, query, personID)
}

// FindRelationshipsBetween returns the edges owned by personID pointing at relatedID.
func (r reader) FindRelationshipsBetween(ctx context.Context, personID, relatedID string) ([]entities.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationships
		WHERE person_id = ? AND related_person_id = ? ORDER BY rowid`
	return r.queryRelationships(ctx, query, personID, relatedID)
}

// ListRelationships returns every edge in insertion order.
func (r reader) ListRelationships(ctx context.Context) ([]entities.Relationship, error) {
	return r.queryRelationships(ctx, `SELECT `+relationshipColumns+` FROM relationships ORDER BY rowid`)
}

// CountRelationships returns the number of directed edges.
func (r reader) CountRelationships(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM relationships`).Scan(&count); err != nil {
		return 0, storeError("count relationships", err)
	}
	return count, nil
}

func (r reader) queryRelationships(ctx context.Context, query string, args ...any) ([]entities.Relationship, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("find relationships", err)
	}
	defer rows.Close()

	var rels []entities.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, storeError("find relationships", err)
		}
		rels = append(rels, *rel)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("find relationships", err)
	}
	return rels, nil
}

func scanRelationship(s scanner) (*entities.Relationship, error) {
	var (
		rel                  entities.Relationship
		relType              string
		createdAt, updatedAt string
	)
	if err := s.Scan(&rel.ID, &relType, &rel.PersonID, &rel.RelatedPersonID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rel.Type = entities.RelationType(relType)

	var err error
	if rel.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if rel.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &rel, nil
}
