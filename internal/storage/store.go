// Package storage keeps a local SQLite audit log of API key verifications.
// Secrets and analysis content are never stored.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	StatusVerified = "verified"
	StatusRejected = "rejected"
)

type Store struct {
	db *sql.DB
}

// Verification is one attempt to bind an assistant to a credential.
type Verification struct {
	ID        int64
	Provider  string
	Model     string
	Status    string
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS verifications (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    provider TEXT NOT NULL,
    model TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    duration_ms INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_verifications_created ON verifications(created_at);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Insert stores rec and returns its row id.
func (s *Store) Insert(ctx context.Context, rec Verification) (int64, error) {
	if strings.TrimSpace(rec.Provider) == "" {
		return 0, fmt.Errorf("verification provider is required")
	}
	if rec.Status == "" {
		rec.Status = StatusVerified
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO verifications (provider, model, status, error, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, rec.Provider, rec.Model, rec.Status, rec.Error, rec.Duration.Milliseconds(), rec.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("insert verification: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Verification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, provider, model, status, error, duration_ms, created_at
FROM verifications
ORDER BY created_at DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query verifications: %w", err)
	}
	defer rows.Close()

	var out []Verification
	for rows.Next() {
		var rec Verification
		var durationMS int64
		if err := rows.Scan(&rec.ID, &rec.Provider, &rec.Model, &rec.Status, &rec.Error, &durationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}
