package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestBuildError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *BuildError
		expected string
	}{
		{
			name:     "error without cause or path",
			err:      New(KindRender, "markdown rendering failed"),
			expected: "render_error: markdown rendering failed",
		},
		{
			name:     "error with path",
			err:      New(KindTemplateNotFound, "template \"post.html\" does not exist").WithPath("posts/hello.md"),
			expected: "template_not_found: posts/hello.md: template \"post.html\" does not exist",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("permission denied"), KindUnreadableSource, "cannot read source file"),
			expected: "unreadable_source: cannot read source file: permission denied",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	metaErr := New(KindMalformedMetadata, "bad yaml")
	writeErr := New(KindWrite, "disk full")
	wrapped := fmt.Errorf("load stage: %w", metaErr)
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected bool
	}{
		{"metadata error matches metadata kind", metaErr, KindMalformedMetadata, true},
		{"metadata error doesn't match write kind", metaErr, KindWrite, false},
		{"write error matches write kind", writeErr, KindWrite, true},
		{"wrapped error matches through chain", wrapped, KindMalformedMetadata, true},
		{"standard error doesn't match any kind", standardErr, KindRender, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsKind(test.err, test.kind)
			if result != test.expected {
				t.Errorf("IsKind() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(fmt.Errorf("plain")); got != KindInternal {
		t.Errorf("KindOf(plain) = %v, want %v", got, KindInternal)
	}
	if got := KindOf(New(KindWrite, "disk full")); got != KindWrite {
		t.Errorf("KindOf(write) = %v, want %v", got, KindWrite)
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := RenderFailed("posts/hello.md", cause)

	if !stdErrors.Is(err, cause) {
		t.Errorf("wrapped error should match cause via errors.Is")
	}
	if err.Path != "posts/hello.md" {
		t.Errorf("Path = %q, want posts/hello.md", err.Path)
	}
	if err.Stage != "render" {
		t.Errorf("Stage = %q, want render", err.Stage)
	}
}

func TestConstructors(t *testing.T) {
	t.Run("MalformedMetadata", func(t *testing.T) {
		err := MalformedMetadata("posts/bad.md", fmt.Errorf("unclosed delimiter"))
		if err.Kind != KindMalformedMetadata {
			t.Errorf("Kind = %v, want %v", err.Kind, KindMalformedMetadata)
		}
		if err.Severity != SeverityError {
			t.Errorf("Severity = %v, want %v", err.Severity, SeverityError)
		}
		if err.Path != "posts/bad.md" {
			t.Errorf("Path = %v, want posts/bad.md", err.Path)
		}
	})

	t.Run("OutputCollision", func(t *testing.T) {
		err := OutputCollision("hello-world/index.html", "a.md", "b.md")
		if err.Kind != KindWrite {
			t.Errorf("Kind = %v, want %v", err.Kind, KindWrite)
		}
		if err.Stage != "model" {
			t.Errorf("Stage = %v, want model", err.Stage)
		}
		if err.Severity != SeverityWarning {
			t.Errorf("Severity = %v, want %v", err.Severity, SeverityWarning)
		}
	})

	t.Run("Internal", func(t *testing.T) {
		err := Internal("staging swap failed", fmt.Errorf("rename: no such file"))
		if err.Severity != SeverityFatal {
			t.Errorf("Severity = %v, want %v", err.Severity, SeverityFatal)
		}
	})
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"source error", UnreadableSource("a.md", fmt.Errorf("eio")), 3},
		{"render error", RenderFailed("a.md", fmt.Errorf("bad markup")), 4},
		{"write error", WriteFailed("out/index.html", fmt.Errorf("enospc")), 5},
		{"internal error", Internal("boom", nil), 10},
		{"plain error", fmt.Errorf("plain"), 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(test.err); got != test.expected {
				t.Errorf("ExitCodeFor() = %d, want %d", got, test.expected)
			}
		})
	}
}
