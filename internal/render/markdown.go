// Package render converts markdown document bodies into HTML fragments.
package render

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer renders markup to HTML. The pipeline depends on this interface
// only, so markdown backends stay swappable.
type Renderer interface {
	Render(body []byte) ([]byte, error)
}

// Markdown renders GitHub-flavored markdown with syntax highlighting.
// Fenced code blocks are emitted with chroma classes, so pages share one
// generated stylesheet instead of carrying inline styles. Raw inline HTML
// in the source is escaped, not passed through.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates the default markdown renderer.
func NewMarkdown() *Markdown {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)
	return &Markdown{md: md}
}

// Render converts a markdown body into an HTML fragment.
func (m *Markdown) Render(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return buf.Bytes(), nil
}
