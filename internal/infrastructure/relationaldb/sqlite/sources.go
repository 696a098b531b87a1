package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ersonp/roots-core/internal/domain/entities"
)

const sourceColumns = `id, type, title, citation, url, notes, created_at, updated_at`

// SaveSource inserts or updates a source.
func (t *tx) SaveSource(ctx context.Context, s *entities.Source) error {
	query := `
		INSERT INTO sources (id, type, title, citation, url, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			title = excluded.title,
			citation = excluded.citation,
			url = excluded.url,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`
	_, err := t.q.ExecContext(ctx, query,
		s.ID,
		s.Type,
		s.Title,
		s.Citation,
		s.URL,
		s.Notes,
		formatTime(s.CreatedAt),
		formatTime(s.UpdatedAt),
	)
	if err != nil {
		return storeError("save source", err)
	}
	return nil
}

// DeleteSource removes a source. Citations and media references must already be gone.
func (t *tx) DeleteSource(ctx context.Context, id string) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id); err != nil {
		return storeError("delete source", err)
	}
	return nil
}

// SaveCitation records a citation. Citing the same subject twice is a no-op.
func (t *tx) SaveCitation(ctx context.Context, c *entities.Citation) error {
	query := `INSERT OR IGNORE INTO citations (source_id, subject_kind, subject_id, created_at) VALUES (?, ?, ?, ?)`
	if _, err := t.q.ExecContext(ctx, query, c.SourceID, string(c.SubjectKind), c.SubjectID, formatTime(c.CreatedAt)); err != nil {
		return storeError("save citation", err)
	}
	return nil
}

// DeleteCitation removes one citation.
func (t *tx) DeleteCitation(ctx context.Context, c entities.Citation) error {
	query := `DELETE FROM citations WHERE source_id = ? AND subject_kind = ? AND subject_id = ?`
	if _, err := t.q.ExecContext(ctx, query, c.SourceID, string(c.SubjectKind), c.SubjectID); err != nil {
		return storeError("delete citation", err)
	}
	return nil
}

// DeleteCitationsBySubject removes every citation of a subject.
func (t *tx) DeleteCitationsBySubject(ctx context.Context, kind entities.SubjectKind, subjectID string) error {
	query := `DELETE FROM citations WHERE subject_kind = ? AND subject_id = ?`
	if _, err := t.q.ExecContext(ctx, query, string(kind), subjectID); err != nil {
		return storeError("delete citations", err)
	}
	return nil
}

// DeleteCitationsBySource removes every citation made from a source.
func (t *tx) DeleteCitationsBySource(ctx context.Context, sourceID string) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM citations WHERE source_id = ?`, sourceID); err != nil {
		return storeError("delete citations", err)
	}
	return nil
}

// FindSource retrieves a source by ID.
func (r reader) FindSource(ctx context.Context, id string) (*entities.Source, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id)
	s, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find source", err)
	}
	return s, nil
}

// ListSources returns every source ordered by title.
func (r reader) ListSources(ctx context.Context) ([]entities.Source, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+sourceColumns+` FROM sources ORDER BY title, id`)
	if err != nil {
		return nil, storeError("list sources", err)
	}
	defer rows.Close()

	sources := make([]entities.Source, 0)
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, storeError("list sources", err)
		}
		sources = append(sources, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list sources", err)
	}
	return sources, nil
}

// FindCitationsBySubject returns the citations of a subject, oldest first.
func (r reader) FindCitationsBySubject(ctx context.Context, kind entities.SubjectKind, subjectID string) ([]entities.Citation, error) {
	query := `SELECT source_id, subject_kind, subject_id, created_at FROM citations
		WHERE subject_kind = ? AND subject_id = ? ORDER BY rowid`
	return r.queryCitations(ctx, query, string(kind), subjectID)
}

// FindCitationsBySource returns the citations made from a source, oldest first.
func (r reader) FindCitationsBySource(ctx context.Context, sourceID string) ([]entities.Citation, error) {
	query := `SELECT source_id, subject_kind, subject_id, created_at FROM citations
		WHERE source_id = ? ORDER BY rowid`
	return r.queryCitations(ctx, query, sourceID)
}

func (r reader) queryCitations(ctx context.Context, query string, args ...any) ([]entities.Citation, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("find citations", err)
	}
	defer rows.Close()

	var citations []entities.Citation
	for rows.Next() {
		var (
			c         entities.Citation
			kind      string
			createdAt string
		)
		if err := rows.Scan(&c.SourceID, &kind, &c.SubjectID, &createdAt); err != nil {
			return nil, storeError("find citations", err)
		}
		c.SubjectKind = entities.SubjectKind(kind)
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, storeError("find citations", err)
		}
		citations = append(citations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("find citations", err)
	}
	return citations, nil
}

func scanSource(s scanner) (*entities.Source, error) {
	var (
		src                  entities.Source
		createdAt, updatedAt string
	)
	if err := s.Scan(&src.ID, &src.Type, &src.Title, &src.Citation, &src.URL, &src.Notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if src.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if src.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &src, nil
}
