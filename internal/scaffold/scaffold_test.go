package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/elyseproject/elyse/internal/build"
	"github.com/elyseproject/elyse/internal/config"
	"github.com/elyseproject/elyse/internal/pipeline"
)

func TestCreate_ProducesBuildableSite(t *testing.T) {
	root := filepath.Join(t.TempDir(), "site")

	if err := Create(root, false); err != nil {
		t.Fatalf("Create: %v", err)
	}

	welcome, err := os.ReadFile(filepath.Join(root, "content", "posts", "welcome.md"))
	if err != nil {
		t.Fatalf("welcome post missing: %v", err)
	}
	today := time.Now().Format("2006-01-02")
	if !strings.Contains(string(welcome), "date: "+today) {
		t.Fatalf("welcome post not dated %s:\n%s", today, welcome)
	}

	cfg, err := config.Load(filepath.Join(root, config.DefaultFileName))
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}

	b := build.New(root, cfg)
	rep, err := b.Build(t.Context())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rep.Outcome != pipeline.OutcomeSuccess {
		t.Fatalf("Outcome = %s, want %s; issues: %+v", rep.Outcome, pipeline.OutcomeSuccess, rep.Issues)
	}

	for _, rel := range []string{
		"index.html",
		"posts/welcome/index.html",
		"about/index.html",
		"tags/meta/index.html",
		"css/site.css",
	} {
		if _, err := os.Stat(filepath.Join(b.OutputDir(), rel)); err != nil {
			t.Errorf("output missing %s: %v", rel, err)
		}
	}

	home, err := os.ReadFile(filepath.Join(b.OutputDir(), "index.html"))
	if err != nil {
		t.Fatalf("read home page: %v", err)
	}
	if !strings.Contains(string(home), "/posts/welcome/") {
		t.Errorf("home page does not link the welcome post:\n%s", home)
	}
	if !strings.Contains(string(home), "css/site.css") {
		t.Errorf("home page does not reference the stylesheet:\n%s", home)
	}
}

func TestCreate_RefusesExistingFileWithoutForce(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "templates", "base.html")
	if err := os.MkdirAll(filepath.Dir(existing), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(existing, []byte("mine"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	err := Create(root, false)
	if err == nil || !strings.Contains(err.Error(), "base.html") {
		t.Fatalf("Create error = %v, want mention of base.html", err)
	}
	if got, _ := os.ReadFile(existing); string(got) != "mine" {
		t.Fatalf("existing file was overwritten: %q", got)
	}

	if err := Create(root, true); err != nil {
		t.Fatalf("Create with force: %v", err)
	}
	if got, _ := os.ReadFile(existing); string(got) == "mine" {
		t.Fatal("force did not replace the existing file")
	}
}

func TestNewContent_SeedsDraftWithDerivedTitle(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()

	target, err := NewContent(root, cfg, "posts/first-post", "", true, false)
	if err != nil {
		t.Fatalf("NewContent: %v", err)
	}
	if want := filepath.Join(root, "content", "posts", "first-post.md"); target != want {
		t.Fatalf("target = %s, want %s", target, want)
	}

	raw, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read created file: %v", err)
	}
	for _, want := range []string{"title: First Post", "draft: true", "date: "} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("created file missing %q:\n%s", want, raw)
		}
	}
}

func TestNewContent_ExplicitTitleAndNoDraft(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()

	target, err := NewContent(root, cfg, "about.md", "About This Site", false, false)
	if err != nil {
		t.Fatalf("NewContent: %v", err)
	}
	raw, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read created file: %v", err)
	}
	if !strings.Contains(string(raw), "title: About This Site") {
		t.Errorf("explicit title missing:\n%s", raw)
	}
	if strings.Contains(string(raw), "draft:") {
		t.Errorf("non-draft file should omit the draft key:\n%s", raw)
	}
}

func TestNewContent_RefusesOverwriteAndEscapes(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()

	if _, err := NewContent(root, cfg, "note.md", "", false, false); err != nil {
		t.Fatalf("NewContent: %v", err)
	}
	if _, err := NewContent(root, cfg, "note.md", "", false, false); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("overwrite error = %v, want already-exists rejection", err)
	}
	if _, err := NewContent(root, cfg, "note.md", "", false, true); err != nil {
		t.Fatalf("NewContent with force: %v", err)
	}

	for _, bad := range []string{"../outside.md", ".", "/tmp/abs.md"} {
		if _, err := NewContent(root, cfg, bad, "", false, false); err == nil {
			t.Errorf("NewContent(%q) should be rejected", bad)
		}
	}
}

// starterRepo builds a single-commit repository to clone from.
func starterRepo(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "theme")
	repo, err := git.PlainInit(src, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "elyse.yaml"), []byte("site:\n  title: Theme\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := wt.Add("elyse.yaml"); err != nil {
		t.Fatalf("add: %v", err)
	}
	sig := &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}
	if _, err := wt.Commit("initial", &git.CommitOptions{Author: sig}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return src
}

func TestClone_DetachesFromOrigin(t *testing.T) {
	src := starterRepo(t)
	dst := filepath.Join(t.TempDir(), "site")

	if err := Clone(t.Context(), dst, src); err != nil {
		t.Fatalf("Clone: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "elyse.yaml")); err != nil {
		t.Fatalf("cloned file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, ".git")); !os.IsNotExist(err) {
		t.Fatalf(".git still present after clone: %v", err)
	}
}

func TestClone_RejectsNonEmptyTarget(t *testing.T) {
	src := starterRepo(t)
	dst := t.TempDir()
	if err := os.WriteFile(filepath.Join(dst, "keep.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	err := Clone(t.Context(), dst, src)
	if err == nil || !strings.Contains(err.Error(), "not empty") {
		t.Fatalf("Clone error = %v, want not-empty rejection", err)
	}
}
