package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Compile-time interface checks keep the implementations from drifting apart.
var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
	_ Recorder = (*testRecorder)(nil)
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("render", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("render", ResultSuccess)
	pr.IncBuildOutcome("success")
	pr.IncIssue("render_error", "render", "error")
	pr.AddPagesRendered(3)
	pr.AddCacheHits(1)
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestPrometheusRecorder_NilReceiverIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStageDuration("render", time.Second)
	pr.ObserveBuildDuration(time.Second)
	pr.IncStageResult("render", ResultFatal)
	pr.IncBuildOutcome("failed")
	pr.IncIssue("write_error", "write", "error")
	pr.AddPagesRendered(1)
	pr.AddCacheHits(1)
}

func TestTestRecorder_CountsByLabel(t *testing.T) {
	tr := newTestRecorder()
	tr.IncStageResult("load", ResultSuccess)
	tr.IncStageResult("load", ResultSuccess)
	tr.IncStageResult("write", ResultFatal)

	if got := tr.stageResults["load"][ResultSuccess]; got != 2 {
		t.Fatalf("load success count = %d, want 2", got)
	}
	if got := tr.stageResults["write"][ResultFatal]; got != 1 {
		t.Fatalf("write fatal count = %d, want 1", got)
	}
}
