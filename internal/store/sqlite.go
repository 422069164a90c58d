package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens the history database, creating the parent directory
// and schema as needed. Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("ensure store dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection: ":memory:" databases exist per connection, and a
	// single writer avoids SQLITE_BUSY when render workers hit the cache.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		documents INTEGER NOT NULL,
		rendered INTEGER NOT NULL,
		cache_hits INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		warnings INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	CREATE TABLE IF NOT EXISTS fragments (
		key TEXT PRIMARY KEY,
		html BLOB NOT NULL,
		created INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordBuild appends one build history row.
func (s *SQLiteStore) RecordBuild(ctx context.Context, rec BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (build_id, started, duration_ms, outcome, documents, rendered, cache_hits, errors, warnings) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rec.BuildID, rec.Started.Unix(), rec.Duration.Milliseconds(), rec.Outcome,
		rec.Documents, rec.Rendered, rec.CacheHits, rec.ErrorCount, rec.WarningCount,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// RecentBuilds returns up to limit history rows, newest first.
func (s *SQLiteStore) RecentBuilds(ctx context.Context, limit int) ([]BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT build_id, started, duration_ms, outcome, documents, rendered, cache_hits, errors, warnings FROM builds ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var started, durationMS int64
		if err := rows.Scan(&rec.BuildID, &started, &durationMS, &rec.Outcome,
			&rec.Documents, &rec.Rendered, &rec.CacheHits, &rec.ErrorCount, &rec.WarningCount); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		rec.Started = time.Unix(started, 0)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Fragment returns the cached HTML fragment for key.
func (s *SQLiteStore) Fragment(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var html []byte
	err := s.db.QueryRowContext(ctx, "SELECT html FROM fragments WHERE key = ?", key).Scan(&html)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query fragment: %w", err)
	}
	return html, true, nil
}

// SaveFragment stores the rendered HTML fragment under key.
func (s *SQLiteStore) SaveFragment(ctx context.Context, key string, html []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO fragments (key, html, created) VALUES (?, ?, ?)",
		key, html, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert fragment: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
