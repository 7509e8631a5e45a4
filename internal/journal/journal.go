// ABOUTME: SQLite ledger of content ingests and the last stage each one reached
// ABOUTME: Lets operators find drafts that were registered but never finalized

package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lmsgo/course-author/internal/content"
	"github.com/lmsgo/course-author/models"
)

// Entry is one ingest as last recorded.
type Entry struct {
	ContentID  string        `json:"content_id"`
	Name       string        `json:"name"`
	MimeType   string        `json:"mime_type"`
	SizeBytes  int64         `json:"size_bytes"`
	StorageKey string        `json:"storage_key,omitempty"`
	Stage      content.State `json:"stage"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  string        `json:"created_at"`
	UpdatedAt  string        `json:"updated_at"`
}

// ErrNotFound is returned by Get for an unknown content id.
var ErrNotFound = errors.New("journal entry not found")

type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("journal: mkdir %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: init schema: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS ingests (
		content_id  TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		mime_type   TEXT NOT NULL,
		size_bytes  INTEGER NOT NULL,
		storage_key TEXT,
		stage       TEXT NOT NULL,
		error       TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`)
	return err
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record upserts the entry for c. A nil cause clears any earlier error.
func (j *Journal) Record(ctx context.Context, c *models.Content, state content.State, cause error) error {
	if c == nil || c.ID == "" {
		return errors.New("journal: content id is required")
	}
	var errText sql.NullString
	if cause != nil {
		errText = sql.NullString{String: cause.Error(), Valid: true}
	}
	now := j.now().UTC().Format(time.RFC3339)

	_, err := j.db.ExecContext(ctx, `INSERT INTO ingests
		(content_id, name, mime_type, size_bytes, storage_key, stage, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_id) DO UPDATE SET
			stage = excluded.stage,
			error = excluded.error,
			storage_key = COALESCE(NULLIF(excluded.storage_key, ''), ingests.storage_key),
			updated_at = excluded.updated_at`,
		c.ID, c.Name, c.MimeType, c.SizeBytes, c.StorageKey, string(state), errText, now, now)
	if err != nil {
		return fmt.Errorf("journal: record %s: %w", c.ID, err)
	}
	return nil
}

// Get returns the entry for one content id.
func (j *Journal) Get(ctx context.Context, contentID string) (*Entry, error) {
	row := j.db.QueryRowContext(ctx, selectEntries+` WHERE content_id = ?`, contentID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// Orphans lists ingests that never reached finalized, oldest first.
func (j *Journal) Orphans(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, selectEntries+` WHERE stage != ? ORDER BY created_at ASC, content_id ASC`, string(content.StateFinalized))
	if err != nil {
		return nil, fmt.Errorf("journal: list orphans: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

const selectEntries = `SELECT content_id, name, mime_type, size_bytes, storage_key, stage, error, created_at, updated_at FROM ingests`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e          Entry
		storageKey sql.NullString
		errText    sql.NullString
		stage      string
	)
	if err := s.Scan(&e.ContentID, &e.Name, &e.MimeType, &e.SizeBytes, &storageKey, &stage, &errText, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.StorageKey = storageKey.String
	e.Error = errText.String
	e.Stage = content.State(stage)
	return &e, nil
}
