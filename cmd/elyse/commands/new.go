package commands

import (
	"fmt"
	"path/filepath"

	"github.com/elyseproject/elyse/internal/scaffold"
)

// NewCmd implements the 'new' command.
type NewCmd struct {
	Path   string `arg:"" help:"Content file to create, relative to the content directory (e.g. posts/my-post.md)"`
	Title  string `short:"t" help:"Title for the front matter (default: derived from the file name)"`
	Source string `short:"s" help:"Site source directory" default:"."`
	Draft  bool   `help:"Mark the new document as a draft" default:"true" negatable:""`
	Force  bool   `help:"Overwrite an existing file"`
}

func (n *NewCmd) Run(_ *Global, root *CLI) error {
	src, err := filepath.Abs(n.Source)
	if err != nil {
		return fmt.Errorf("resolve source directory: %w", err)
	}

	cfg, err := loadConfig(src, root.Config)
	if err != nil {
		return err
	}

	target, err := scaffold.NewContent(src, cfg, n.Path, n.Title, n.Draft, n.Force)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s\n", target)
	if n.Draft {
		fmt.Println("The document is a draft; build with --drafts or set draft: false to publish.")
	}
	return nil
}
