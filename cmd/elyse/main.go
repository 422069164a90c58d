package main

import (
	"log/slog"

	"github.com/alecthomas/kong"
	_ "go.uber.org/automaxprocs"

	"github.com/elyseproject/elyse/cmd/elyse/commands"
	"github.com/elyseproject/elyse/internal/errors"
	"github.com/elyseproject/elyse/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("elyse"),
		kong.Description("A static site generator for markdown trees."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	if err := ctx.Run(&commands.Global{Logger: slog.Default()}); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
