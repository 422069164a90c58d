// Package templates maps documents to the html/template that renders them.
package templates

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/elyseproject/elyse/internal/content"
	"github.com/elyseproject/elyse/internal/errors"
)

// BaseName is the optional layout parent. When present, every named
// template is executed through it and provides its blocks.
const BaseName = "base.html"

// PartialsDir holds shared snippets parsed into every template set.
const PartialsDir = "partials"

// Template is a named, reusable rendering skeleton.
type Template struct {
	Name string

	root string
	tmpl *template.Template
}

// Execute renders the template with the given data.
func (t *Template) Execute(w io.Writer, data any) error {
	return t.tmpl.ExecuteTemplate(w, t.root, data)
}

// Resolver parses the template tree once per pass and resolves each
// document to a template by the order: explicit reference, section
// convention, site default.
type Resolver struct {
	dir         string
	defaultName string
	templates   map[string]*Template
}

// NewResolver parses every named template under dir. A parse failure is
// fatal for the pass because it cannot be attributed to one document.
func NewResolver(dir, defaultName string, funcs template.FuncMap) (*Resolver, error) {
	names, err := templateNames(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindTemplateNotFound, "template directory is not usable").
			WithPath(dir).
			WithStage("model")
	}

	var shared []string
	basePath := filepath.Join(dir, BaseName)
	hasBase := fileExists(basePath)
	if hasBase {
		shared = append(shared, basePath)
	}
	partials, err := filepath.Glob(filepath.Join(dir, PartialsDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("list partials: %w", err)
	}
	shared = append(shared, partials...)

	resolver := &Resolver{
		dir:         dir,
		defaultName: defaultName,
		templates:   make(map[string]*Template, len(names)),
	}

	for _, name := range names {
		files := append(append([]string{}, shared...), filepath.Join(dir, name))

		root := name
		if hasBase {
			root = BaseName
		}
		tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").ParseFiles(files...)
		if err != nil {
			return nil, errors.Wrap(err, errors.KindRender, "template does not parse").
				WithPath(name).
				WithStage("model")
		}
		resolver.templates[name] = &Template{Name: name, root: root, tmpl: tmpl}
	}

	return resolver, nil
}

// Resolve returns the template for a document. An explicit reference that
// names a missing template is an error for that document; absent references
// fall through the section convention to the site default.
func (r *Resolver) Resolve(doc content.Document) (*Template, error) {
	if doc.Template != "" {
		if t, ok := r.templates[doc.Template]; ok {
			return t, nil
		}
		return nil, errors.TemplateNotFound(doc.SourcePath, doc.Template)
	}

	if doc.Section != "" {
		if t, ok := r.templates[doc.Section+".html"]; ok {
			return t, nil
		}
	}

	if t, ok := r.templates[r.defaultName]; ok {
		return t, nil
	}
	return nil, errors.TemplateNotFound(doc.SourcePath, r.defaultName)
}

// Lookup returns a template by exact name.
func (r *Resolver) Lookup(name string) (*Template, bool) {
	t, ok := r.templates[name]
	return t, ok
}

// Names returns the parsed template names, sorted.
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// templateNames lists the *.html files in the template root, excluding the
// layout parent.
func templateNames(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(matches))
	for _, match := range matches {
		name := filepath.Base(match)
		if strings.EqualFold(name, BaseName) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
