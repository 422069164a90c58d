package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/elyseproject/elyse/internal/build"
	"github.com/elyseproject/elyse/internal/config"
	"github.com/elyseproject/elyse/internal/logfields"
	"github.com/elyseproject/elyse/internal/notify"
	"github.com/elyseproject/elyse/internal/store"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"elyse.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the site into the output directory"`
	Serve ServeCmd `cmd:"" help:"Build, watch and serve the site with live reload"`
	Init  InitCmd  `cmd:"" help:"Create a new site skeleton"`
	New   NewCmd   `cmd:"" help:"Create a content file seeded with front matter"`
	Clean CleanCmd `cmd:"" help:"Remove generated output and stale staging directories"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// resolveConfig maps the --config flag to a concrete path. The default
// file name is looked up inside the site root; explicit paths are taken
// as given, relative to the working directory.
func resolveConfig(root, path string) string {
	if path != config.DefaultFileName || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// loadConfig reads the site configuration. A missing file is only an
// error when the user pointed at it explicitly; the default name may be
// absent, in which case built-in defaults apply and a bare content tree
// still builds.
func loadConfig(root, path string) (*config.Config, error) {
	resolved := resolveConfig(root, path)
	if path == config.DefaultFileName {
		if _, err := os.Stat(resolved); os.IsNotExist(err) {
			slog.Debug("No configuration file, using defaults", logfields.Path(resolved))
			return config.Default(), nil
		}
	}
	return config.Load(resolved)
}

// resolvePath anchors a config-relative path at the site root. Absolute
// paths pass through untouched.
func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, filepath.FromSlash(path))
}

// sinks holds the optional per-build attachments opened from config.
type sinks struct {
	store    store.Store
	notifier *notify.Client
}

// openSinks opens the build history store and the notifier when the
// configuration enables them. Both are conveniences; a failure to open
// one is reported and the build goes on without it.
func openSinks(root string, cfg *config.Config) *sinks {
	s := &sinks{}

	if cfg.Store.Enabled {
		path := resolvePath(root, cfg.Store.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			slog.Warn("Build history store unavailable", logfields.Path(path), logfields.Error(err))
		} else if st, err := store.NewSQLiteStore(path); err != nil {
			slog.Warn("Build history store unavailable", logfields.Path(path), logfields.Error(err))
		} else {
			s.store = st
		}
	}

	if cfg.Notify.Enabled {
		nc, err := notify.NewClient(cfg.Notify)
		if err != nil {
			slog.Warn("Build notifications unavailable", logfields.URL(cfg.Notify.URL), logfields.Error(err))
		} else {
			s.notifier = nc
		}
	}

	return s
}

// apply attaches the open sinks to a builder.
func (s *sinks) apply(b *build.Builder) *build.Builder {
	if s.store != nil {
		b = b.WithStore(s.store)
	}
	if s.notifier != nil {
		b = b.WithNotifier(s.notifier)
	}
	return b
}

// Close releases the open sinks.
func (s *sinks) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("Closing build history store failed", logfields.Error(err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Close(); err != nil {
			slog.Warn("Closing notifier failed", logfields.Error(err))
		}
	}
}
