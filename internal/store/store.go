package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// BuildRecord is one row of build history.
type BuildRecord struct {
	BuildID      string
	Started      time.Time
	Duration     time.Duration
	Outcome      string
	Documents    int
	Rendered     int
	CacheHits    int
	ErrorCount   int
	WarningCount int
}

// Store persists build history and the render fragment cache.
type Store interface {
	// RecordBuild appends one build history row.
	RecordBuild(ctx context.Context, rec BuildRecord) error

	// RecentBuilds returns up to limit history rows, newest first.
	RecentBuilds(ctx context.Context, limit int) ([]BuildRecord, error)

	// Fragment returns the cached HTML fragment for key, with ok=false on a
	// cache miss.
	Fragment(ctx context.Context, key string) ([]byte, bool, error)

	// SaveFragment stores the rendered HTML fragment under key, replacing
	// any previous entry.
	SaveFragment(ctx context.Context, key string, html []byte) error

	// Close closes the store and releases resources.
	Close() error
}

// FragmentKey derives the cache key for a document body. The highlight style
// participates in the key so a style change invalidates cached fragments.
func FragmentKey(highlightStyle string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(highlightStyle))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
