package templates

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elyseproject/elyse/internal/content"
	"github.com/elyseproject/elyse/internal/errors"
)

func writeTemplate(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestResolve_NoReferenceUsesSiteDefault(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "post.html", "post body")

	r, err := NewResolver(dir, "post.html", nil)
	require.NoError(t, err)

	doc := content.Document{SourcePath: "posts/hello.md", Section: "posts"}
	tmpl, err := r.Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, "post.html", tmpl.Name)
}

func TestResolve_ExplicitReferenceWins(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "page.html", "page")
	writeTemplate(t, dir, "special.html", "special")

	r, err := NewResolver(dir, "page.html", nil)
	require.NoError(t, err)

	doc := content.Document{SourcePath: "a.md", Template: "special.html"}
	tmpl, err := r.Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, "special.html", tmpl.Name)
}

func TestResolve_ExplicitReferenceMissingIsError(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "page.html", "page")

	r, err := NewResolver(dir, "page.html", nil)
	require.NoError(t, err)

	doc := content.Document{SourcePath: "a.md", Template: "absent.html"}
	_, err = r.Resolve(doc)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindTemplateNotFound))
	assert.Equal(t, "a.md", errors.PathOf(err))
}

func TestResolve_SectionConventionBeforeDefault(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "page.html", "page")
	writeTemplate(t, dir, "posts.html", "posts list")

	r, err := NewResolver(dir, "page.html", nil)
	require.NoError(t, err)

	tmpl, err := r.Resolve(content.Document{SourcePath: "posts/x.md", Section: "posts"})
	require.NoError(t, err)
	assert.Equal(t, "posts.html", tmpl.Name)

	tmpl, err = r.Resolve(content.Document{SourcePath: "notes/y.md", Section: "notes"})
	require.NoError(t, err)
	assert.Equal(t, "page.html", tmpl.Name)
}

func TestResolve_NothingResolvesIsError(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "other.html", "other")

	r, err := NewResolver(dir, "page.html", nil)
	require.NoError(t, err)

	_, err = r.Resolve(content.Document{SourcePath: "a.md"})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindTemplateNotFound))
}

func TestExecute_BaseLayoutComposition(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, BaseName, `<html><body>{{block "content" .}}fallback{{end}}</body></html>`)
	writeTemplate(t, dir, "page.html", `{{define "content"}}Hello {{.Name}}{{end}}`)

	r, err := NewResolver(dir, "page.html", nil)
	require.NoError(t, err)

	tmpl, ok := r.Lookup("page.html")
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, tmpl.Execute(&buf, struct{ Name string }{"World"}))
	assert.Equal(t, "<html><body>Hello World</body></html>", buf.String())
}

func TestExecute_PartialsAvailable(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, filepath.Join(PartialsDir, "nav.html"), `{{define "nav"}}<nav>menu</nav>{{end}}`)
	writeTemplate(t, dir, "page.html", `{{template "nav" .}} body`)

	r, err := NewResolver(dir, "page.html", nil)
	require.NoError(t, err)

	tmpl, _ := r.Lookup("page.html")
	var buf bytes.Buffer
	require.NoError(t, tmpl.Execute(&buf, nil))
	assert.Equal(t, "<nav>menu</nav> body", buf.String())
}

func TestExecute_FuncsAvailable(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "page.html",
		`{{dateFormat "2006-01-02" .Date}} {{absURL "about/"}} {{slugify "Héllo World"}}`)

	r, err := NewResolver(dir, "page.html", DefaultFuncs("https://example.com"))
	require.NoError(t, err)

	tmpl, _ := r.Lookup("page.html")
	var buf bytes.Buffer
	data := struct{ Date time.Time }{time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, tmpl.Execute(&buf, data))
	assert.Equal(t, "2024-06-01 https://example.com/about/ hello-world", buf.String())
}

func TestNames_SortedAndExcludesBase(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, BaseName, "base")
	writeTemplate(t, dir, "z.html", "z")
	writeTemplate(t, dir, "a.html", "a")

	r, err := NewResolver(dir, "a.html", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.html", "z.html"}, r.Names())
}

func TestNewResolver_BrokenTemplateFailsPass(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "page.html", "{{.Unclosed")

	_, err := NewResolver(dir, "page.html", nil)
	require.Error(t, err)
}
