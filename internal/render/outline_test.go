package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutline_ExtractsH2AndH3InOrder(t *testing.T) {
	fragment := []byte(`<h1 id="top">Top</h1>
<h2 id="install">Install</h2>
<p>text</p>
<h3 id="from-source">From Source</h3>
<h2 id="usage">Usage</h2>`)

	headings := Outline(fragment)
	require.Len(t, headings, 3)

	assert.Equal(t, Heading{Level: 2, ID: "install", Text: "Install"}, headings[0])
	assert.Equal(t, Heading{Level: 3, ID: "from-source", Text: "From Source"}, headings[1])
	assert.Equal(t, Heading{Level: 2, ID: "usage", Text: "Usage"}, headings[2])
}

func TestOutline_NestedMarkupInHeadingText(t *testing.T) {
	headings := Outline([]byte(`<h2 id="a">Using <code>elyse</code></h2>`))
	require.Len(t, headings, 1)
	assert.Equal(t, "Using elyse", headings[0].Text)
}

func TestOutline_NoHeadings(t *testing.T) {
	assert.Empty(t, Outline([]byte("<p>just a paragraph</p>")))
}

func TestExcerpt_FirstParagraph(t *testing.T) {
	fragment := []byte(`<h1>Title</h1><p>First paragraph here.</p><p>Second.</p>`)
	assert.Equal(t, "First paragraph here.", Excerpt(fragment, 200))
}

func TestExcerpt_TruncatesOnWordBoundary(t *testing.T) {
	fragment := []byte(`<p>one two three four five</p>`)
	got := Excerpt(fragment, 12)
	assert.Equal(t, "one two…", got)
}

func TestExcerpt_FallsBackToWholeFragment(t *testing.T) {
	fragment := []byte(`<ul><li>alpha</li></ul>`)
	assert.Equal(t, "alpha", Excerpt(fragment, 100))
}

func TestHighlightCSS_EmitsChromaClasses(t *testing.T) {
	css, err := HighlightCSS("github")
	require.NoError(t, err)
	assert.Contains(t, string(css), ".chroma")
}

func TestHighlightCSS_UnknownStyleFallsBack(t *testing.T) {
	css, err := HighlightCSS("definitely-not-a-style")
	require.NoError(t, err)
	assert.NotEmpty(t, css)
}
