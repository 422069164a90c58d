package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"github.com/elyseproject/elyse/internal/config"
)

func TestCLIGrammar(t *testing.T) {
	parser, err := kong.New(&CLI{}, kong.Vars{"version": "test"})
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"build", "--source", "x", "--drafts"})
	require.NoError(t, err)
	require.Equal(t, "build", ctx.Command())

	ctx, err = parser.Parse([]string{"init", "newsite", "--from", "https://example.com/starter.git"})
	require.NoError(t, err)
	require.Equal(t, "init <dir>", ctx.Command())

	ctx, err = parser.Parse([]string{"new", "posts/hello.md", "--title", "Hello", "--no-draft"})
	require.NoError(t, err)
	require.Equal(t, "new <path>", ctx.Command())
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults when the file is absent", func(t *testing.T) {
		cfg, err := loadConfig(t.TempDir(), config.DefaultFileName)
		require.NoError(t, err)
		require.Equal(t, "My Site", cfg.Site.Title)
	})

	t.Run("default name resolves inside the root", func(t *testing.T) {
		root := t.TempDir()
		raw := "site:\n  title: Rooted\n"
		require.NoError(t, os.WriteFile(filepath.Join(root, config.DefaultFileName), []byte(raw), 0o644))

		cfg, err := loadConfig(root, config.DefaultFileName)
		require.NoError(t, err)
		require.Equal(t, "Rooted", cfg.Site.Title)
	})

	t.Run("explicit missing path is an error", func(t *testing.T) {
		_, err := loadConfig(t.TempDir(), filepath.Join(t.TempDir(), "custom.yaml"))
		require.Error(t, err)
	})
}

func TestResolvePath(t *testing.T) {
	require.Equal(t, filepath.Join("/root", "public"), resolvePath("/root", "public"))
	require.Equal(t, "/elsewhere/out", resolvePath("/root", "/elsewhere/out"))
}

func TestSiteURL(t *testing.T) {
	cases := map[string]string{
		":8080":          "http://localhost:8080/",
		"127.0.0.1:9000": "http://127.0.0.1:9000/",
		"0.0.0.0:80":     "http://localhost:80/",
		"nonsense":       "http://localhost:8080/",
	}
	for addr, want := range cases {
		require.Equal(t, want, siteURL(addr), "addr %q", addr)
	}
}

func TestInitThenBuild(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	root := &CLI{Config: config.DefaultFileName}

	initCmd := &InitCmd{Dir: dir}
	require.NoError(t, initCmd.Run(&Global{}, root))

	report := filepath.Join(dir, "report.json")
	buildCmd := &BuildCmd{Source: dir, Report: report}
	require.NoError(t, buildCmd.Run(&Global{}, root))

	require.FileExists(t, filepath.Join(dir, "public", "index.html"))
	require.FileExists(t, filepath.Join(dir, "public", "posts", "welcome", "index.html"))
	require.FileExists(t, report)

	raw, err := os.ReadFile(report)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"build_id"`)
	require.Contains(t, string(raw), `"success": true`)
}

func TestNewCmd_CreatesBuildableDraft(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	root := &CLI{Config: config.DefaultFileName}
	require.NoError(t, (&InitCmd{Dir: dir}).Run(&Global{}, root))

	cmd := &NewCmd{Path: "posts/big-news", Source: dir, Draft: true}
	require.NoError(t, cmd.Run(&Global{}, root))

	created := filepath.Join(dir, "content", "posts", "big-news.md")
	raw, err := os.ReadFile(created)
	require.NoError(t, err)
	require.Contains(t, string(raw), "title: Big News")
	require.Contains(t, string(raw), "draft: true")

	// Drafts stay out of a default build.
	require.NoError(t, (&BuildCmd{Source: dir}).Run(&Global{}, root))
	require.NoFileExists(t, filepath.Join(dir, "public", "posts", "big-news", "index.html"))

	// And appear when requested.
	require.NoError(t, (&BuildCmd{Source: dir, Drafts: true}).Run(&Global{}, root))
	require.FileExists(t, filepath.Join(dir, "public", "posts", "big-news", "index.html"))
}

func TestBuildCmd_FailsOnBrokenDocument(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "templates"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "templates", "page.html"),
		[]byte("<h1>{{.Page.Title}}</h1>{{.Content}}"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "content"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "content", "bad.md"),
		[]byte("---\ntitle: [unclosed\n---\nbody\n"), 0o644))

	cmd := &BuildCmd{Source: root}
	err := cmd.Run(&Global{}, &CLI{Config: config.DefaultFileName})
	require.Error(t, err)
	require.Contains(t, err.Error(), "build finished")
}

func TestCleanCmd_RemovesOutputAndStaging(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"public", "public_stage", "public.prev"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, dir, "f.html"), []byte("x"), 0o644))
	}

	cmd := &CleanCmd{Source: root}
	require.NoError(t, cmd.Run(&Global{}, &CLI{Config: config.DefaultFileName}))

	for _, dir := range []string{"public", "public_stage", "public.prev"} {
		require.NoDirExists(t, filepath.Join(root, dir))
	}
}
