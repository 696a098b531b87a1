package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ersonp/roots-core/internal/domain/entities"
)

const mediaColumns = `m.id, m.type, m.url, m.blob_key, m.caption, m.date, m.source_id, m.created_at, m.updated_at`

// SaveMedia inserts or updates a media record.
func (t *tx) SaveMedia(ctx context.Context, m *entities.Media) error {
	query := `
		INSERT INTO media (id, type, url, blob_key, caption, date, source_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			url = excluded.url,
			blob_key = excluded.blob_key,
			caption = excluded.caption,
			date = excluded.date,
			source_id = excluded.source_id,
			updated_at = excluded.updated_at
	`
	_, err := t.q.ExecContext(ctx, query,
		m.ID,
		string(m.Type),
		m.URL,
		m.BlobKey,
		m.Caption,
		nullTime(m.Date),
		nullString(m.SourceID),
		formatTime(m.CreatedAt),
		formatTime(m.UpdatedAt),
	)
	if err != nil {
		return storeError("save media", err)
	}
	return nil
}

// DeleteMedia removes a media record. Its links go with it.
func (t *tx) DeleteMedia(ctx context.Context, id string) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, id); err != nil {
		return storeError("delete media", err)
	}
	return nil
}

// LinkMedia attaches media to a subject. Linking twice is a no-op.
func (t *tx) LinkMedia(ctx context.Context, link entities.MediaLink) error {
	query := `INSERT OR IGNORE INTO media_links (media_id, subject_kind, subject_id) VALUES (?, ?, ?)`
	if _, err := t.q.ExecContext(ctx, query, link.MediaID, string(link.SubjectKind), link.SubjectID); err != nil {
		return storeError("link media", err)
	}
	return nil
}

// UnlinkMedia detaches media from a subject.
func (t *tx) UnlinkMedia(ctx context.Context, link entities.MediaLink) error {
	query := `DELETE FROM media_links WHERE media_id = ? AND subject_kind = ? AND subject_id = ?`
	if _, err := t.q.ExecContext(ctx, query, link.MediaID, string(link.SubjectKind), link.SubjectID); err != nil {
		return storeError("unlink media", err)
	}
	return nil
}

// DeleteMediaLinks removes every link of a media record.
func (t *tx) DeleteMediaLinks(ctx context.Context, mediaID string) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM media_links WHERE media_id = ?`, mediaID); err != nil {
		return storeError("delete media links", err)
	}
	return nil
}

// DeleteMediaLinksBySubject removes every link pointing at a subject.
func (t *tx) DeleteMediaLinksBySubject(ctx context.Context, kind entities.SubjectKind, subjectID string) error {
	query := `DELETE FROM media_links WHERE subject_kind = ? AND subject_id = ?`
	if _, err := t.q.ExecContext(ctx, query, string(kind), subjectID); err != nil {
		return storeError("delete media links", err)
	}
	return nil
}

// ClearMediaSource detaches a source from all media that reference it.
func (t *tx) ClearMediaSource(ctx context.Context, sourceID string) error {
	if _, err := t.q.ExecContext(ctx, `UPDATE media SET source_id = NULL WHERE source_id = ?`, sourceID); err != nil {
		return storeError("clear media source", err)
	}
	return nil
}

// FindMedia retrieves a media record by ID.
func (r reader) FindMedia(ctx context.Context, id string) (*entities.Media, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media m WHERE m.id = ?`, id)
	m, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find media", err)
	}
	return m, nil
}

// FindMediaBySubject returns the media linked to a subject, in link order.
func (r reader) FindMediaBySubject(ctx context.Context, kind entities.SubjectKind, subjectID string) ([]entities.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media m
		JOIN media_links l ON l.media_id = m.id
		WHERE l.subject_kind = ? AND l.subject_id = ?
		ORDER BY l.rowid`
	rows, err := r.q.QueryContext(ctx, query, string(kind), subjectID)
	if err != nil {
		return nil, storeError("find media", err)
	}
	defer rows.Close()

	var out []entities.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, storeError("find media", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("find media", err)
	}
	return out, nil
}

// FindMediaLinks returns the subjects a media record is attached to.
func (r reader) FindMediaLinks(ctx context.Context, mediaID string) ([]entities.MediaLink, error) {
	query := `SELECT media_id, subject_kind, subject_id FROM media_links WHERE media_id = ? ORDER BY rowid`
	rows, err := r.q.QueryContext(ctx, query, mediaID)
	if err != nil {
		return nil, storeError("find media links", err)
	}
	defer rows.Close()

	var links []entities.MediaLink
	for rows.Next() {
		var (
			link entities.MediaLink
			kind string
		)
		if err := rows.Scan(&link.MediaID, &kind, &link.SubjectID); err != nil {
			return nil, storeError("find media links", err)
		}
		link.SubjectKind = entities.SubjectKind(kind)
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("find media links", err)
	}
	return links, nil
}

func scanMedia(s scanner) (*entities.Media, error) {
	var (
		m                    entities.Media
		mediaType            string
		date, sourceID       sql.NullString
		createdAt, updatedAt string
	)
	if err := s.Scan(&m.ID, &mediaType, &m.URL, &m.BlobKey, &m.Caption, &date, &sourceID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	m.Type = entities.MediaType(mediaType)
	m.SourceID = sourceID.String

	var err error
	if m.Date, err = parseNullTime(date); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
