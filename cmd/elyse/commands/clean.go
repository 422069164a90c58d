package commands

import (
	"fmt"
	"os"
	"path/filepath"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct {
	Source string `short:"s" help:"Site source directory" default:"."`
}

func (c *CleanCmd) Run(_ *Global, root *CLI) error {
	src, err := filepath.Abs(c.Source)
	if err != nil {
		return fmt.Errorf("resolve source directory: %w", err)
	}
	cfg, err := loadConfig(src, root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out := resolvePath(src, cfg.Build.OutputDir)

	// The output tree plus the siblings the staged swap can leave behind
	// after a crash.
	for _, dir := range []string{out, out + "_stage", out + ".prev"} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
		fmt.Printf("Removed %s\n", dir)
	}
	return nil
}
