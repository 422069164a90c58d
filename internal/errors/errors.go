// Package errors provides the structured error type (BuildError) used to
// classify per-document build failures and drive best-effort error collection.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// Kind classifies a build error for reporting and policy decisions.
type Kind string

const (
	// Source and metadata errors, raised while loading content
	KindUnreadableSource  Kind = "unreadable_source"
	KindMalformedMetadata Kind = "malformed_metadata"

	// Resolution and rendering errors, raised per document
	KindTemplateNotFound Kind = "template_not_found"
	KindRender           Kind = "render_error"

	// Output errors, raised while writing the result tree
	KindWrite Kind = "write_error"

	// Everything that is not a per-document build failure
	KindInternal Kind = "internal"
)

// Severity indicates how a build error affects the pass.
type Severity string

const (
	SeverityFatal   Severity = "fatal"   // Aborts the pass
	SeverityError   Severity = "error"   // Recorded, pass continues
	SeverityWarning Severity = "warning" // Recorded, no effect on success
)

// BuildError is a structured error carrying the failure kind, the source or
// output path it relates to, and the pipeline stage that produced it.
type BuildError struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Stage    string   `json:"stage,omitempty"`
	Path     string   `json:"path,omitempty"`
	Message  string   `json:"message"`
	Cause    error    `json:"-"`
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap exposes the cause for errors.Is/errors.As chains.
func (e *BuildError) Unwrap() error {
	return e.Cause
}

// WithStage records the pipeline stage that produced the error.
func (e *BuildError) WithStage(stage string) *BuildError {
	e.Stage = stage
	return e
}

// WithPath records the source or output path the error relates to.
func (e *BuildError) WithPath(path string) *BuildError {
	e.Path = path
	return e
}

// New creates a BuildError with SeverityError.
func New(kind Kind, message string) *BuildError {
	return &BuildError{
		Kind:     kind,
		Severity: SeverityError,
		Message:  message,
	}
}

// Newf creates a BuildError with a formatted message.
func Newf(kind Kind, format string, args ...any) *BuildError {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap creates a BuildError that wraps an underlying cause.
func Wrap(err error, kind Kind, message string) *BuildError {
	return &BuildError{
		Kind:     kind,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}

// Fatal creates a BuildError that aborts the pass regardless of error mode.
func Fatal(kind Kind, message string) *BuildError {
	return &BuildError{
		Kind:     kind,
		Severity: SeverityFatal,
		Message:  message,
	}
}

// IsKind reports whether err is (or wraps) a BuildError of the given kind.
func IsKind(err error, kind Kind) bool {
	var be *BuildError
	if stdErrors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}

// KindOf extracts the kind from an error chain, or KindInternal when the
// chain carries no BuildError.
func KindOf(err error) Kind {
	var be *BuildError
	if stdErrors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

// SeverityOf extracts the severity from an error chain, defaulting to
// SeverityError for plain errors.
func SeverityOf(err error) Severity {
	var be *BuildError
	if stdErrors.As(err, &be) {
		return be.Severity
	}
	return SeverityError
}

// PathOf extracts the related path from an error chain, or "".
func PathOf(err error) string {
	var be *BuildError
	if stdErrors.As(err, &be) {
		return be.Path
	}
	return ""
}
