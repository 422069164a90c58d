package pipeline

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/elyseproject/elyse/internal/errors"
	"github.com/elyseproject/elyse/internal/metrics"
	"github.com/elyseproject/elyse/internal/version"
)

// NewBuildReport constructs a fresh report for one build pass.
func NewBuildReport() *BuildReport {
	return &BuildReport{
		SchemaVersion:   1,
		BuildID:         uuid.NewString(),
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		StageCounts:     make(map[StageName]StageCount),
		KindCounts:      make(map[string]int),
		ElyseVersion:    version.Version,
	}
}

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// BuildReport captures the structured summary of a single build pass.
type BuildReport struct {
	SchemaVersion int // schema version for external consumers
	BuildID       string
	Start         time.Time
	End           time.Time
	Documents     int  // source documents loaded
	RenderedPages int  // document pages rendered
	ListingPages  int  // generated section, tag and home listings
	StaticFiles   int  // static assets copied verbatim
	CacheHits     int  // render passes satisfied from the fragment cache
	Promoted      bool // staged tree replaced the previous output
	Errors        []error
	Warnings      []error

	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount
	KindCounts      map[string]int // issue counts per error kind
	Issues          []ReportIssue
	Outcome         BuildOutcome
	ElyseVersion    string
}

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReportIssue is a structured taxonomy entry describing a discrete problem
// encountered during a build pass. Codes are the error kind strings from the
// errors package, plus "canceled" for context cancellation.
type ReportIssue struct {
	Code     string        `json:"code"`
	Stage    StageName     `json:"stage"`
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
	Path     string        `json:"path,omitempty"`
}

// IssueCanceled marks a pass interrupted by context cancellation.
const IssueCanceled = "canceled"

// StageCount aggregates counts of outcomes for a stage.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

// AddIssue appends a structured issue and mirrors severity into the
// Errors/Warnings slices.
func (r *BuildReport) AddIssue(code string, stage StageName, severity IssueSeverity, msg, path string, err error) {
	r.Issues = append(r.Issues, ReportIssue{Code: code, Stage: stage, Severity: severity, Message: msg, Path: path})
	r.KindCounts[code]++
	if err != nil {
		switch severity {
		case SeverityError:
			r.Errors = append(r.Errors, err)
		case SeverityWarning:
			r.Warnings = append(r.Warnings, err)
		}
	}
}

// AddDocumentIssue records a per-document build error, deriving code,
// severity and path from the structured error chain. The pass continues;
// only the stage runner aborts builds.
func (r *BuildReport) AddDocumentIssue(stage StageName, err error) {
	severity := SeverityError
	if errors.SeverityOf(err) == errors.SeverityWarning {
		severity = SeverityWarning
	}
	r.AddIssue(string(errors.KindOf(err)), stage, severity, err.Error(), errors.PathOf(err), err)
}

// Finish sets the end time of the report.
func (r *BuildReport) Finish() { r.End = time.Now() }

// Duration returns the wall-clock time of the pass so far.
func (r *BuildReport) Duration() time.Duration {
	end := r.End
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(r.Start)
}

// RecordStageResult updates the report counters and emits metrics.
func (r *BuildReport) RecordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	if r.StageCounts == nil {
		r.StageCounts = make(map[StageName]StageCount)
	}
	sc := r.StageCounts[stage]
	switch res {
	case StageResultSuccess:
		sc.Success++
		if recorder != nil {
			recorder.IncStageResult(string(stage), metrics.ResultSuccess)
		}
	case StageResultWarning:
		sc.Warning++
		if recorder != nil {
			recorder.IncStageResult(string(stage), metrics.ResultWarning)
		}
	case StageResultFatal:
		sc.Fatal++
		if recorder != nil {
			recorder.IncStageResult(string(stage), metrics.ResultFatal)
		}
	case StageResultCanceled:
		sc.Canceled++
		if recorder != nil {
			recorder.IncStageResult(string(stage), metrics.ResultCanceled)
		}
	}
	r.StageCounts[stage] = sc
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("documents=%d rendered=%d listings=%d static=%d cached=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.Documents, r.RenderedPages, r.ListingPages, r.StaticFiles, r.CacheHits,
		r.Duration().Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), string(r.Outcome))
}

// DeriveOutcome sets the Outcome field based on recorded errors and warnings.
func (r *BuildReport) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if stdErrors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Success reports whether the pass completed without error-severity issues.
func (r *BuildReport) Success() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeWarning
}

// Persist writes the report atomically into the provided directory as
// build-report.json plus a one-line build-report.txt summary.
func (r *BuildReport) Persist(dir string) error {
	if r.End.IsZero() {
		r.Finish()
	}
	if r.Outcome == "" {
		r.DeriveOutcome()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	jb, err := json.MarshalIndent(r.SanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	jsonPath := filepath.Join(dir, "build-report.json")
	tmpJSON := jsonPath + ".tmp"
	if err := os.WriteFile(tmpJSON, jb, 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmpJSON, jsonPath); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	summaryPath := filepath.Join(dir, "build-report.txt")
	tmpTxt := summaryPath + ".tmp"
	if err := os.WriteFile(tmpTxt, []byte(r.Summary()+"\n"), 0o600); err != nil {
		return fmt.Errorf("write temp report summary: %w", err)
	}
	if err := os.Rename(tmpTxt, summaryPath); err != nil {
		return fmt.Errorf("atomic rename summary: %w", err)
	}
	return nil
}

// SanitizedCopy returns a shallow copy with error fields converted to strings
// for JSON friendliness.
func (r *BuildReport) SanitizedCopy() *BuildReportSerializable {
	stageCounts := make(map[string]StageCount, len(r.StageCounts))
	for k, v := range r.StageCounts {
		stageCounts[string(k)] = v
	}
	sek := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		sek[string(k)] = string(v)
	}
	durations := make(map[string]string, len(r.StageDurations))
	for k, v := range r.StageDurations {
		durations[k] = v.Truncate(time.Microsecond).String()
	}

	issues := r.Issues
	if issues == nil {
		issues = []ReportIssue{}
	}
	kindCounts := r.KindCounts
	if kindCounts == nil {
		kindCounts = map[string]int{}
	}

	s := &BuildReportSerializable{
		SchemaVersion:   r.SchemaVersion,
		BuildID:         r.BuildID,
		Start:           r.Start,
		End:             r.End,
		Documents:       r.Documents,
		RenderedPages:   r.RenderedPages,
		ListingPages:    r.ListingPages,
		StaticFiles:     r.StaticFiles,
		CacheHits:       r.CacheHits,
		Promoted:        r.Promoted,
		Errors:          make([]string, len(r.Errors)),
		Warnings:        make([]string, len(r.Warnings)),
		StageDurations:  durations,
		StageErrorKinds: sek,
		StageCounts:     stageCounts,
		KindCounts:      kindCounts,
		Issues:          issues,
		Outcome:         string(r.Outcome),
		Success:         r.Success(),
		ElyseVersion:    r.ElyseVersion,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// BuildReportSerializable mirrors BuildReport but with string errors and
// human-readable durations for JSON output.
type BuildReportSerializable struct {
	SchemaVersion   int                   `json:"schema_version"`
	BuildID         string                `json:"build_id"`
	Start           time.Time             `json:"start"`
	End             time.Time             `json:"end"`
	Documents       int                   `json:"documents"`
	RenderedPages   int                   `json:"rendered_pages"`
	ListingPages    int                   `json:"listing_pages"`
	StaticFiles     int                   `json:"static_files"`
	CacheHits       int                   `json:"cache_hits"`
	Promoted        bool                  `json:"promoted"`
	Errors          []string              `json:"errors"`
	Warnings        []string              `json:"warnings"`
	StageDurations  map[string]string     `json:"stage_durations"`
	StageErrorKinds map[string]string     `json:"stage_error_kinds"`
	StageCounts     map[string]StageCount `json:"stage_counts"`
	KindCounts      map[string]int        `json:"kind_counts"`
	Issues          []ReportIssue         `json:"issues"`
	Outcome         string                `json:"outcome"`
	Success         bool                  `json:"success"`
	ElyseVersion    string                `json:"elyse_version,omitempty"`
}
