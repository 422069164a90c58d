package build

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/elyseproject/elyse/internal/errors"
	"github.com/elyseproject/elyse/internal/logfields"
	"github.com/elyseproject/elyse/internal/render"
)

// highlightCSSPath is where the generated chroma stylesheet lands in the
// output tree. A same-named file in the static dir overrides it.
const highlightCSSPath = "css/highlight.css"

// writeHighlightCSS emits the chroma stylesheet for the configured style.
func (p *pass) writeHighlightCSS() error {
	css, err := render.HighlightCSS(p.b.cfg.Markdown.HighlightStyle)
	if err != nil {
		return errors.Wrap(err, errors.KindWrite, "generate highlight stylesheet").
			WithPath(highlightCSSPath).
			WithStage("write")
	}
	dst := filepath.Join(p.stageDir, filepath.FromSlash(highlightCSSPath))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.WriteFailed(highlightCSSPath, err)
	}
	if err := os.WriteFile(dst, css, 0o644); err != nil {
		return errors.WriteFailed(highlightCSSPath, err)
	}
	return nil
}

// copyStatic copies the static tree verbatim into the staging directory and
// returns the number of files copied. A missing static dir is not an error.
func (p *pass) copyStatic(ctx context.Context) (int, error) {
	root := p.b.staticDir
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.UnreadableSource(relOrSelf(root, path), err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			return nil
		}

		rel := relOrSelf(root, path)
		raw, err := os.ReadFile(path)
		if err != nil {
			return errors.UnreadableSource(rel, err)
		}
		dst := filepath.Join(p.stageDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return errors.WriteFailed(rel, err)
		}
		if err := os.WriteFile(dst, raw, 0o644); err != nil {
			return errors.WriteFailed(rel, err)
		}
		count++
		slog.Debug("Copied static asset", logfields.Path(rel))
		return nil
	})
	return count, err
}

func relOrSelf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
