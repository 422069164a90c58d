package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for
// the command line entry point.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	var be *BuildError
	if stdErrors.As(err, &be) {
		return a.exitCodeFromBuildError(be)
	}

	return 1
}

// exitCodeFromBuildError maps BuildError kinds to exit codes.
func (a *CLIErrorAdapter) exitCodeFromBuildError(err *BuildError) int {
	switch err.Kind {
	case KindUnreadableSource, KindMalformedMetadata:
		return 3 // Source tree error
	case KindTemplateNotFound, KindRender:
		return 4 // Rendering error
	case KindWrite:
		return 5 // Output error
	case KindInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-facing display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	var be *BuildError
	if stdErrors.As(err, &be) {
		if a.verbose {
			return be.Error()
		}
		if be.Path != "" {
			return fmt.Sprintf("%s: %s", be.Path, be.Message)
		}
		return be.Message
	}

	return fmt.Sprintf("Error: %v", err)
}

// HandleError prints an error and exits the process with its mapped code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.verbose {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// logError logs an error with level derived from its severity.
func (a *CLIErrorAdapter) logError(err error) {
	var be *BuildError
	if stdErrors.As(err, &be) {
		level := slog.LevelError
		if be.Severity == SeverityWarning {
			level = slog.LevelWarn
		}
		attrs := []slog.Attr{
			slog.String("kind", string(be.Kind)),
		}
		if be.Stage != "" {
			attrs = append(attrs, slog.String("stage", be.Stage))
		}
		if be.Path != "" {
			attrs = append(attrs, slog.String("path", be.Path))
		}

		a.logger.LogAttrs(context.Background(), level, be.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}
