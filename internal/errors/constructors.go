package errors

import "fmt"

// Convenience constructors for the build error taxonomy

// Loading errors

func UnreadableSource(path string, cause error) *BuildError {
	return Wrap(cause, KindUnreadableSource, "cannot read source file").
		WithPath(path).
		WithStage("load")
}

func MalformedMetadata(path string, cause error) *BuildError {
	return Wrap(cause, KindMalformedMetadata, "front matter is not parseable").
		WithPath(path).
		WithStage("load")
}

// Per-document resolution and rendering errors

func TemplateNotFound(docPath, template string) *BuildError {
	return Newf(KindTemplateNotFound, "template %q does not exist", template).
		WithPath(docPath).
		WithStage("render")
}

func RenderFailed(docPath string, cause error) *BuildError {
	return Wrap(cause, KindRender, "markdown rendering failed").
		WithPath(docPath).
		WithStage("render")
}

func TemplateApplyFailed(docPath string, cause error) *BuildError {
	return Wrap(cause, KindRender, "template execution failed").
		WithPath(docPath).
		WithStage("render")
}

// Output errors

func WriteFailed(outputPath string, cause error) *BuildError {
	return Wrap(cause, KindWrite, "cannot write output file").
		WithPath(outputPath).
		WithStage("write")
}

// OutputCollision reports two documents mapping to one output path. The
// later document is re-slugged rather than dropped, so this is a warning.
func OutputCollision(outputPath, firstSource, secondSource string) *BuildError {
	return &BuildError{
		Kind:     KindWrite,
		Severity: SeverityWarning,
		Stage:    "model",
		Path:     outputPath,
		Message:  fmt.Sprintf("output path claimed by both %s and %s", firstSource, secondSource),
	}
}

// Anything outside the per-document taxonomy

func Internal(message string, cause error) *BuildError {
	return &BuildError{
		Kind:     KindInternal,
		Severity: SeverityFatal,
		Message:  message,
		Cause:    cause,
	}
}
