package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/elyseproject/elyse/internal/scaffold"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" default:"." help:"Target directory for the new site"`
	From  string `help:"Git repository to clone as the starter instead of the built-in skeleton"`
	Force bool   `help:"Overwrite files that already exist"`
}

func (i *InitCmd) Run(_ *Global, _ *CLI) error {
	fmt.Printf("Creating new site in %s\n", i.Dir)

	if i.From != "" {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		if err := scaffold.Clone(ctx, i.Dir, i.From); err != nil {
			return err
		}
	} else if err := scaffold.Create(i.Dir, i.Force); err != nil {
		return err
	}

	fmt.Println("Site created. Next steps:")
	if i.Dir != "." {
		fmt.Printf("  cd %s\n", i.Dir)
	}
	fmt.Println("  elyse serve")
	return nil
}
