package render

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightCSS generates the stylesheet matching the class-based code
// highlighting emitted by the markdown renderer. Unknown style names fall
// back to chroma's default style, so the output is always usable.
func HighlightCSS(styleName string) ([]byte, error) {
	style := styles.Get(styleName)

	formatter := chromahtml.New(chromahtml.WithClasses(true))
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, style); err != nil {
		return nil, fmt.Errorf("write highlight css: %w", err)
	}
	return buf.Bytes(), nil
}
