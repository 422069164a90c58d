package render

import (
	"bytes"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Heading is one entry in a document outline.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Outline extracts h2 and h3 headings from a rendered HTML fragment, in
// document order. The h1 is left out because templates render the document
// title themselves.
func Outline(fragment []byte) []Heading {
	doc, err := html.Parse(bytes.NewReader(fragment))
	if err != nil {
		return nil
	}

	var headings []Heading
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			var level int
			switch n.Data {
			case "h2":
				level = 2
			case "h3":
				level = 3
			}
			if level > 0 {
				headings = append(headings, Heading{
					Level: level,
					ID:    getAttr(n, "id"),
					Text:  extractText(n),
				})
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return headings
}

// Excerpt returns the plain text of the first paragraph of a rendered HTML
// fragment, truncated to maxRunes on a word boundary. Fragments without a
// paragraph fall back to the whole fragment's text.
func Excerpt(fragment []byte, maxRunes int) string {
	doc, err := html.Parse(bytes.NewReader(fragment))
	if err != nil {
		return ""
	}

	var text string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if text != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "p" {
			text = extractText(n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if text == "" {
		text = extractText(doc)
	}
	return truncate(text, maxRunes)
}

// truncate cuts text at maxRunes, backing up to the last word boundary and
// appending an ellipsis.
func truncate(text string, maxRunes int) string {
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return text
	}

	cut := maxRunes
	for cut > 0 && !unicode.IsSpace(runes[cut-1]) {
		cut--
	}
	if cut == 0 {
		cut = maxRunes
	}
	return strings.TrimRight(string(runes[:cut]), " \t\n") + "…"
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}

	return strings.TrimSpace(text.String())
}
