// Package scaffold creates new site source trees, either from the
// embedded starter skeleton or by cloning a git repository.
package scaffold

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/go-git/go-git/v5"

	"github.com/elyseproject/elyse/internal/config"
	"github.com/elyseproject/elyse/internal/content"
	"github.com/elyseproject/elyse/internal/frontmatter"
	"github.com/elyseproject/elyse/internal/logfields"
)

//go:embed all:starter
var starterFS embed.FS

// starterRoot is the embedded directory holding the skeleton files.
const starterRoot = "starter"

// templateSuffix marks skeleton files rendered through text/template
// before being written; the suffix is stripped from the target name.
const templateSuffix = ".tmpl"

// templateData feeds the .tmpl files in the skeleton.
type templateData struct {
	Date string
}

// Create writes the starter skeleton plus an example configuration into
// dir. A file that already exists is an error unless force is set, so a
// mistyped target cannot clobber a real site.
func Create(dir string, force bool) error {
	// Full timestamp, not a bare date: a date-only value means midnight
	// UTC, which the future filter would still drop in zones ahead of it.
	data := templateData{Date: time.Now().Format(time.RFC3339)}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	err := fs.WalkDir(starterFS, starterRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == starterRoot {
			return nil
		}
		rel := strings.TrimPrefix(p, starterRoot+"/")
		target := filepath.Join(dir, filepath.FromSlash(rel))

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		raw, err := starterFS.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read embedded %s: %w", p, err)
		}
		if strings.HasSuffix(target, templateSuffix) {
			target = strings.TrimSuffix(target, templateSuffix)
			if raw, err = renderStarterFile(rel, raw, data); err != nil {
				return err
			}
		}

		if _, err := os.Stat(target); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", target)
		}
		if err := os.WriteFile(target, raw, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
		slog.Debug("Starter file written", logfields.Path(target))
		return nil
	})
	if err != nil {
		return err
	}

	return config.Init(filepath.Join(dir, config.DefaultFileName), force)
}

// NewContent creates a content file seeded with front matter under the
// configured content directory and returns its path. rel is relative to
// that directory; a missing extension gets the first configured one. An
// empty title derives from the file name the same way the loader would.
func NewContent(root string, cfg *config.Config, rel, title string, draft, force bool) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("invalid content path %q", rel)
	}
	rel = path.Clean(filepath.ToSlash(rel))
	if rel == "." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("invalid content path %q", rel)
	}

	if path.Ext(rel) == "" {
		ext := ".md"
		if len(cfg.Content.Extensions) > 0 {
			ext = cfg.Content.Extensions[0]
		}
		rel += ext
	}

	if title == "" {
		name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
		title = content.TitleFromName(name)
	}

	fields := map[string]any{
		"title": title,
		"date":  time.Now(),
	}
	if draft {
		fields["draft"] = true
	}
	seed, err := frontmatter.Compose(fields, nil)
	if err != nil {
		return "", err
	}

	target := filepath.Join(root, cfg.Content.Dir, filepath.FromSlash(rel))
	if _, err := os.Stat(target); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", target)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}
	if err := os.WriteFile(target, seed, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}

	slog.Debug("Content file created", logfields.Path(target))
	return target, nil
}

// Clone initializes dir from a git repository instead of the embedded
// skeleton. The clone is shallow and its .git directory is removed, so
// the new site starts with no history attached to the starter's origin.
func Clone(ctx context.Context, dir, url string) error {
	if err := ensureEmpty(dir); err != nil {
		return err
	}

	slog.Info("Cloning starter repository", logfields.URL(url), logfields.Path(dir))
	if _, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      url,
		Depth:    1,
		Progress: os.Stdout,
	}); err != nil {
		return fmt.Errorf("clone %s: %w", url, err)
	}

	if err := os.RemoveAll(filepath.Join(dir, ".git")); err != nil {
		return fmt.Errorf("detach clone from origin: %w", err)
	}
	return nil
}

func renderStarterFile(name string, raw []byte, data templateData) ([]byte, error) {
	tpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse starter template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render starter template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// ensureEmpty accepts a missing or empty directory and rejects anything
// else. go-git would refuse a non-empty target too, but with a message
// that does not name the fix.
func ensureEmpty(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspect %s: %w", dir, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("directory %s is not empty", dir)
	}
	return nil
}
