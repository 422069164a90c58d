// Package content discovers and parses source documents from the content
// tree.
package content

import (
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/elyseproject/elyse/internal/slug"
)

// Document represents one parsed content file. Immutable after creation
// within a build pass.
type Document struct {
	SourcePath string // Path relative to the content root
	Section    string // First directory under the content root, "" at top level
	Name       string // File name without extension
	IsIndex    bool   // True for index files, which map to their directory's index page

	Title    string
	Slug     string
	Date     time.Time
	Tags     []string
	Template string // Explicit template reference, "" means resolve by convention
	Draft    bool

	Params map[string]any // Front matter keys beyond the reserved ones
	Body   []byte         // Raw markdown body
}

var titleCaser = cases.Title(language.English)

// NewDocument builds a Document from a parsed content file, applying the
// default policy for missing metadata: title from the file name, date from
// the file modification time, slug from the title.
func NewDocument(relPath string, fields map[string]any, body []byte, modTime time.Time) Document {
	name := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))

	doc := Document{
		SourcePath: filepath.ToSlash(relPath),
		Section:    sectionOf(relPath),
		Name:       name,
		IsIndex:    name == "index",
		Body:       body,
		Params:     map[string]any{},
	}

	for key, value := range fields {
		switch key {
		case "title":
			doc.Title = stringValue(value)
		case "slug":
			doc.Slug = slug.Make(stringValue(value))
		case "date":
			doc.Date = dateValue(value)
		case "tags":
			doc.Tags = stringSlice(value)
		case "template":
			doc.Template = stringValue(value)
		case "draft":
			doc.Draft, _ = value.(bool)
		default:
			doc.Params[key] = value
		}
	}

	if doc.Title == "" {
		doc.Title = TitleFromName(name)
	}
	if doc.Date.IsZero() {
		doc.Date = modTime
	}
	doc.Date = doc.Date.UTC()
	if doc.Slug == "" {
		doc.Slug = slug.Make(doc.Title)
	}
	if doc.Slug == "" {
		doc.Slug = slug.Make(name)
	}
	if doc.Slug == "" {
		doc.Slug = "untitled"
	}

	return doc
}

// sectionOf returns the first path element of a nested document path.
func sectionOf(relPath string) string {
	rel := filepath.ToSlash(relPath)
	if idx := strings.IndexByte(rel, '/'); idx > 0 {
		return rel[:idx]
	}
	return ""
}

// TitleFromName turns a file name into a display title. It is the default
// applied when a document carries no title, and the seed title for files
// created by the new command.
func TitleFromName(name string) string {
	s := strings.ReplaceAll(name, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return titleCaser.String(s)
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// dateValue accepts the shapes yaml.v3 produces for date scalars.
func dateValue(v any) time.Time {
	switch vv := v.(type) {
	case time.Time:
		return vv
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, vv); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
