package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ersonp/roots-core/internal/domain/entities"
)

// LogAction logs an action to the audit log.
func (t *tx) LogAction(ctx context.Context, action string, subjectID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `INSERT INTO audit_log (action, subject_id, details, created_at) VALUES (?, ?, ?, ?)`
	_, err := t.q.ExecContext(ctx, query, action, nullString(subjectID), detailsJSON, formatTime(t.now()))
	if err != nil {
		return storeError("log action", err)
	}
	return nil
}

// FindAuditLog finds audit log entries for a subject, newest first. An empty
// subjectID selects entries that are not about one record, such as imports.
func (r reader) FindAuditLog(ctx context.Context, subjectID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, subject_id, details, created_at
		FROM audit_log
		WHERE IFNULL(subject_id, '') = ?
		ORDER BY id DESC
	`
	rows, err := r.q.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, storeError("find audit log", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var (
			entry            entities.AuditEntry
			subject, details sql.NullString
			createdAt        string
		)
		if err := rows.Scan(&entry.ID, &entry.Action, &subject, &details, &createdAt); err != nil {
			return nil, storeError("find audit log", err)
		}
		entry.SubjectID = subject.String

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, storeError("find audit log", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("find audit log", err)
	}
	return entries, nil
}
