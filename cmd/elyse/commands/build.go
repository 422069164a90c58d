package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/elyseproject/elyse/internal/build"
	"github.com/elyseproject/elyse/internal/config"
	"github.com/elyseproject/elyse/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Source       string `short:"s" help:"Site source directory" default:"."`
	Output       string `short:"o" help:"Output directory, overrides build.output_dir"`
	Drafts       bool   `short:"D" help:"Include draft documents"`
	AbortOnError bool   `name:"abort-on-error" help:"Stop at the first error instead of collecting"`
	Report       string `help:"Write the build report JSON to this file"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	src, err := filepath.Abs(b.Source)
	if err != nil {
		return fmt.Errorf("resolve source directory: %w", err)
	}
	cfg, err := loadConfig(src, root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if b.AbortOnError {
		cfg.Build.ErrorMode = config.ErrorModeAbort
	}

	sk := openSinks(src, cfg)
	defer sk.Close()

	builder := sk.apply(build.New(src, cfg).WithDrafts(b.Drafts))
	if b.Output != "" {
		builder = builder.WithOutputDir(b.Output)
	}

	rep, err := builder.Build(ctx)
	if rep != nil && b.Report != "" {
		if werr := writeReportFile(rep, b.Report); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}

	fmt.Println(rep.Summary())
	if !rep.Success() {
		return fmt.Errorf("build finished with %d error(s), outcome %s", len(rep.Errors), rep.Outcome)
	}
	fmt.Printf("Site written to %s\n", builder.OutputDir())
	return nil
}

// writeReportFile puts a serializable copy of the report at an explicit
// path, in addition to the copy the builder keeps under the site root.
func writeReportFile(rep *pipeline.BuildReport, path string) error {
	jb, err := json.MarshalIndent(rep.SanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(jb, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
