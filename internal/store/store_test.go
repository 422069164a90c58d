package store

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndListBuilds(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = s.Close() }()

	ctx := t.Context()
	started := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, outcome := range []string{"success", "failed", "success"} {
		rec := BuildRecord{
			BuildID:    "build-" + string(rune('a'+i)),
			Started:    started.Add(time.Duration(i) * time.Minute),
			Duration:   1500 * time.Millisecond,
			Outcome:    outcome,
			Documents:  3,
			Rendered:   2,
			CacheHits:  1,
			ErrorCount: i,
		}
		if err := s.RecordBuild(ctx, rec); err != nil {
			t.Fatalf("record build: %v", err)
		}
	}

	builds, err := s.RecentBuilds(ctx, 2)
	if err != nil {
		t.Fatalf("recent builds: %v", err)
	}
	if len(builds) != 2 {
		t.Fatalf("expected 2 builds, got %d", len(builds))
	}
	// Newest first.
	if builds[0].BuildID != "build-c" || builds[0].ErrorCount != 2 {
		t.Errorf("unexpected newest build: %+v", builds[0])
	}
	if builds[0].Duration != 1500*time.Millisecond {
		t.Errorf("duration round-trip: %v", builds[0].Duration)
	}
	if !builds[0].Started.After(builds[1].Started) {
		t.Errorf("builds not ordered newest first: %v, %v", builds[0].Started, builds[1].Started)
	}
}

func TestFragmentCacheHitAndMiss(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = s.Close() }()

	ctx := t.Context()
	key := FragmentKey("github", []byte("# Hello"))

	if _, ok, err := s.Fragment(ctx, key); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	html := []byte("<h1>Hello</h1>")
	if err := s.SaveFragment(ctx, key, html); err != nil {
		t.Fatalf("save fragment: %v", err)
	}

	got, ok, err := s.Fragment(ctx, key)
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	if !ok || !bytes.Equal(got, html) {
		t.Fatalf("expected cached fragment, got ok=%v body=%q", ok, got)
	}

	// Replacing under the same key keeps a single row.
	updated := []byte("<h1>Hello again</h1>")
	if err := s.SaveFragment(ctx, key, updated); err != nil {
		t.Fatalf("replace fragment: %v", err)
	}
	got, ok, _ = s.Fragment(ctx, key)
	if !ok || !bytes.Equal(got, updated) {
		t.Fatalf("expected replaced fragment, got %q", got)
	}
}

func TestFragmentKeyVariesWithStyleAndBody(t *testing.T) {
	base := FragmentKey("github", []byte("body"))
	if FragmentKey("github", []byte("body")) != base {
		t.Fatal("key not stable for identical input")
	}
	if FragmentKey("monokai", []byte("body")) == base {
		t.Fatal("key ignores highlight style")
	}
	if FragmentKey("github", []byte("other")) == base {
		t.Fatal("key ignores body")
	}
}

func TestNewSQLiteStoreCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".elyse", "history.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.RecordBuild(t.Context(), BuildRecord{BuildID: "b1", Started: time.Now(), Outcome: "success"}); err != nil {
		t.Fatalf("record build: %v", err)
	}
	builds, err := s.RecentBuilds(t.Context(), 0)
	if err != nil {
		t.Fatalf("recent builds: %v", err)
	}
	if len(builds) != 1 {
		t.Fatalf("expected 1 build, got %d", len(builds))
	}
}
