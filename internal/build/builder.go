// Package build orchestrates complete site build passes: loading content,
// assembling the site model, rendering pages and promoting the staged
// output tree, with a build report as the record of what happened.
package build

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/elyseproject/elyse/internal/config"
	"github.com/elyseproject/elyse/internal/content"
	"github.com/elyseproject/elyse/internal/errors"
	"github.com/elyseproject/elyse/internal/logfields"
	"github.com/elyseproject/elyse/internal/metrics"
	"github.com/elyseproject/elyse/internal/notify"
	"github.com/elyseproject/elyse/internal/pipeline"
	"github.com/elyseproject/elyse/internal/render"
	"github.com/elyseproject/elyse/internal/site"
	"github.com/elyseproject/elyse/internal/store"
	"github.com/elyseproject/elyse/internal/templates"
)

// reportDirName is where build reports land, relative to the site root.
// It sits outside the output tree so the staged swap never touches it.
const reportDirName = ".elyse"

// Builder runs complete build passes over one site root. A Builder is
// reusable; serve mode calls Build once per change batch.
type Builder struct {
	cfg *config.Config

	root         string
	contentDir   string
	templatesDir string
	staticDir    string
	outputDir    string
	reportDir    string

	renderer render.Renderer
	store    store.Store    // nil disables history and the fragment cache
	notifier *notify.Client // nil disables report publication
	recorder metrics.Recorder
	observer pipeline.BuildObserver // nil derives one from the recorder

	includeDrafts bool
	abortOnError  bool
}

// New creates a builder rooted at the given site directory. Relative
// directories from the config resolve against root.
func New(root string, cfg *config.Config) *Builder {
	root = filepath.Clean(root)
	return &Builder{
		cfg:           cfg,
		root:          root,
		contentDir:    resolveDir(root, cfg.Content.Dir),
		templatesDir:  resolveDir(root, cfg.Templates.Dir),
		staticDir:     resolveDir(root, cfg.Content.StaticDir),
		outputDir:     resolveDir(root, cfg.Build.OutputDir),
		reportDir:     filepath.Join(root, reportDirName),
		renderer:      render.NewMarkdown(),
		recorder:      metrics.NoopRecorder{},
		includeDrafts: cfg.Content.Drafts,
		abortOnError:  cfg.Build.ErrorMode == config.ErrorModeAbort,
	}
}

func resolveDir(root, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, filepath.FromSlash(dir))
}

// WithStore attaches a build history and fragment cache store.
func (b *Builder) WithStore(s store.Store) *Builder { b.store = s; return b }

// WithNotifier attaches a build report publisher.
func (b *Builder) WithNotifier(n *notify.Client) *Builder { b.notifier = n; return b }

// WithRecorder injects a metrics recorder. Nil restores the no-op recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		b.recorder = metrics.NoopRecorder{}
		return b
	}
	b.recorder = r
	return b
}

// WithObserver overrides the stage observer derived from the recorder.
func (b *Builder) WithObserver(o pipeline.BuildObserver) *Builder { b.observer = o; return b }

// WithDrafts overrides the configured draft handling for this builder.
func (b *Builder) WithDrafts(include bool) *Builder { b.includeDrafts = include; return b }

// WithOutputDir overrides the configured output directory.
func (b *Builder) WithOutputDir(dir string) *Builder {
	b.outputDir = resolveDir(b.root, dir)
	return b
}

// OutputDir returns the absolute output directory this builder promotes to.
func (b *Builder) OutputDir() string { return b.outputDir }

// pass holds the transient state of one build pass. Every Build call gets a
// fresh pass, so repeated builds never see stale state.
type pass struct {
	b *Builder

	outputDir string
	stageDir  string

	docs     []content.Document
	site     *site.Site
	resolver *templates.Resolver

	// results is indexed like site.Pages; failed entries carry err and
	// produce no output file.
	results  []renderResult
	excerpts []string
	listings []listingPage

	// writeFailed blocks promotion of the staged tree. A partial tree
	// must never replace a complete one.
	writeFailed bool
}

// Build runs one complete pass. The report is non-nil whenever the staging
// area could be initialized, including for failed and canceled passes.
func (b *Builder) Build(ctx context.Context) (*pipeline.BuildReport, error) {
	slog.Info("Starting site build",
		slog.String("root", b.root),
		slog.String("output", b.outputDir))

	p := &pass{b: b, outputDir: b.outputDir}
	if err := p.beginStaging(); err != nil {
		return nil, errors.Internal("initialize staging directory", err)
	}

	rep := pipeline.NewBuildReport()
	stages := pipeline.NewPipeline().
		Add(pipeline.StageLoad, p.stageLoad).
		Add(pipeline.StageModel, p.stageModel).
		Add(pipeline.StageRender, p.stageRender).
		Add(pipeline.StageWrite, p.stageWrite).
		Build()

	obs := b.observer
	if obs == nil {
		obs = pipeline.RecorderObserver{Recorder: b.recorder}
	}

	runErr := pipeline.RunStages(ctx, rep, stages, obs, b.recorder)
	switch {
	case runErr != nil:
		p.abortStaging()
	case p.writeFailed:
		p.abortStaging()
		slog.Warn("Staged tree incomplete, keeping previous output",
			logfields.BuildID(rep.BuildID),
			logfields.Path(b.outputDir))
	default:
		if err := p.finalizeStaging(); err != nil {
			p.abortStaging()
			runErr = errors.Internal("promote staged output", err)
			rep.AddIssue(string(errors.KindInternal), pipeline.StageWrite,
				pipeline.SeverityError, runErr.Error(), "", runErr)
			rep.DeriveOutcome()
		} else {
			rep.Promoted = true
		}
	}

	b.persistArtifacts(ctx, rep)

	if runErr != nil {
		slog.Error("Site build failed",
			logfields.BuildID(rep.BuildID),
			logfields.Outcome(string(rep.Outcome)),
			logfields.Error(runErr))
		return rep, runErr
	}

	slog.Info("Site build completed",
		logfields.BuildID(rep.BuildID),
		slog.Int("documents", rep.Documents),
		slog.Int("rendered", rep.RenderedPages),
		slog.Int("listings", rep.ListingPages),
		slog.Int("static", rep.StaticFiles),
		logfields.Outcome(string(rep.Outcome)),
		logfields.Duration(rep.Duration()))
	return rep, nil
}

// persistArtifacts records the finished report in every attached sink. All
// sinks are best-effort; a failing sink never fails the build. Sinks run
// detached from the build context so canceled passes still leave a record.
func (b *Builder) persistArtifacts(ctx context.Context, rep *pipeline.BuildReport) {
	sctx := context.WithoutCancel(ctx)

	if err := rep.Persist(b.reportDir); err != nil {
		slog.Warn("Failed to persist build report", logfields.Error(err))
	}

	if b.store != nil {
		rec := store.BuildRecord{
			BuildID:      rep.BuildID,
			Started:      rep.Start,
			Duration:     rep.Duration(),
			Outcome:      string(rep.Outcome),
			Documents:    rep.Documents,
			Rendered:     rep.RenderedPages,
			CacheHits:    rep.CacheHits,
			ErrorCount:   len(rep.Errors),
			WarningCount: len(rep.Warnings),
		}
		if err := b.store.RecordBuild(sctx, rec); err != nil {
			slog.Warn("Failed to record build history",
				logfields.BuildID(rep.BuildID), logfields.Error(err))
		}
	}

	if b.notifier != nil {
		if err := b.notifier.PublishReport(sctx, rep); err != nil {
			slog.Warn("Failed to publish build report",
				logfields.BuildID(rep.BuildID), logfields.Error(err))
		}
	}
}
