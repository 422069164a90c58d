package build

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/elyseproject/elyse/internal/logfields"
)

// beginStaging creates an isolated staging directory for atomic build output.
// The directory is a sibling of the output dir, never inside it, so the swap
// is a single rename.
func (p *pass) beginStaging() error {
	stage := p.outputDir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return fmt.Errorf("clear stale staging dir: %w", err)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	p.stageDir = stage
	slog.Debug("Initialized staging directory", slog.String("staging", stage), slog.String("final", p.outputDir))
	return nil
}

// finalizeStaging atomically promotes the staging directory to the final
// output location. Strategy:
//  1. Move existing outputDir (if present) to outputDir.prev.
//  2. Rename staging -> outputDir.
//  3. Remove the previous backup best-effort.
func (p *pass) finalizeStaging() error {
	if p.stageDir == "" {
		return fmt.Errorf("no staging directory initialized")
	}
	if _, err := os.Stat(p.stageDir); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}

	prev := p.outputDir + ".prev"
	if _, err := os.Stat(prev); err == nil {
		if err := os.RemoveAll(prev); err != nil {
			return fmt.Errorf("remove stale backup: %w", err)
		}
	}
	if _, err := os.Stat(p.outputDir); err == nil {
		if err := os.Rename(p.outputDir, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(p.stageDir, p.outputDir); err != nil {
		return fmt.Errorf("promote staging: %w", err)
	}
	p.stageDir = ""
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	slog.Debug("Promoted staging directory", slog.String("output", p.outputDir))
	return nil
}

// abortStaging removes the staging directory after a failed build so no
// orphaned temp dirs accumulate next to the output.
func (p *pass) abortStaging() {
	if p.stageDir == "" {
		return
	}
	dir := p.stageDir
	p.stageDir = "" // prevent double cleanup
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", slog.String("staging", dir), logfields.Error(err))
	} else {
		slog.Debug("Removed staging directory after abort", slog.String("staging", dir))
	}
}
