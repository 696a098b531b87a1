// Package sqlite provides a SQLite implementation of the FamilyStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/roots-core/internal/domain/ports"
	"github.com/ersonp/roots-core/internal/infrastructure/config"
)

// timeLayout is how every timestamp is stored. Fixed-width UTC text sorts
// chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements ports.FamilyStore using SQLite.
type Repository struct {
	reader
	db   *sql.DB
	path string
}

var _ ports.FamilyStore = (*Repository)(nil)

// NewRepository opens the database at cfg.Path.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	// Pragmas in the DSN apply to every pooled connection.
	dsn := cfg.Path
	if cfg.Path != ":memory:" {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// WAL lets readers proceed while the writer holds a transaction
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		reader: reader{q: db},
		db:     db,
		path:   cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- People (first_key and last_key hold folded names for search and ordering)
	CREATE TABLE IF NOT EXISTS people (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		first_key TEXT NOT NULL DEFAULT '',
		last_key TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT 'unknown',
		is_living INTEGER NOT NULL DEFAULT 0,
		birth_date TEXT,
		birth_place TEXT NOT NULL DEFAULT '',
		death_date TEXT,
		death_place TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_people_name ON people(last_key, first_key, id);

	-- Relationships (one row per directed half of a reciprocal pair)
	CREATE TABLE IF NOT EXISTS relationships (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		person_id TEXT NOT NULL REFERENCES people(id),
		related_person_id TEXT NOT NULL REFERENCES people(id),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(person_id, related_person_id, type)
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_person ON relationships(person_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_related ON relationships(related_person_id);

	-- Life events
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		date TEXT,
		place TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		person_id TEXT NOT NULL REFERENCES people(id),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_person ON events(person_id);

	-- Sources (provenance)
	CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		citation TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Media (photos and documents, by URL or blob key)
	CREATE TABLE IF NOT EXISTS media (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		url TEXT NOT NULL,
		blob_key TEXT NOT NULL DEFAULT '',
		caption TEXT NOT NULL DEFAULT '',
		date TEXT,
		source_id TEXT REFERENCES sources(id),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Media attached to people or events
	CREATE TABLE IF NOT EXISTS media_links (
		media_id TEXT NOT NULL REFERENCES media(id) ON DELETE CASCADE,
		subject_kind TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		PRIMARY KEY (media_id, subject_kind, subject_id)
	);
	CREATE INDEX IF NOT EXISTS idx_media_links_subject ON media_links(subject_kind, subject_id);

	-- Citations (a source backing a person, event or relationship)
	CREATE TABLE IF NOT EXISTS citations (
		source_id TEXT NOT NULL REFERENCES sources(id),
		subject_kind TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (source_id, subject_kind, subject_id)
	);
	CREATE INDEX IF NOT EXISTS idx_citations_subject ON citations(subject_kind, subject_id);

	-- Audit log (tracks all actions)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		subject_id TEXT,
		details TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_subject ON audit_log(subject_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// WithTx runs fn in one transaction. Any error from fn, or a panic, rolls
// the transaction back.
func (r *Repository) WithTx(ctx context.Context, fn func(tx ports.FamilyTx) error) (err error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(&tx{reader: reader{q: sqlTx}, now: timeNow}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return storeError("commit transaction", err)
	}
	return nil
}

// timeNow stamps audit entries (can be replaced in tests).
var timeNow = time.Now

// reader implements ports.FamilyReader over a querier.
type reader struct {
	q querier
}

// tx implements ports.FamilyTx inside one SQL transaction.
type tx struct {
	reader
	now func() time.Time
}

var _ ports.FamilyTx = (*tx)(nil)

func storeError(op string, err error) error {
	return &ports.StoreError{Op: op, Err: err}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// escapeLike escapes LIKE wildcards so a search term matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
