package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseScan    Phase = "scan"    // directory listing and diffing
	PhaseExtract Phase = "extract" // descriptor extraction from a binary
	PhaseWatch   Phase = "watch"   // watcher lifecycle
	PhaseQuery   Phase = "query"   // registry queries
)

// Kind categorizes the error
type Kind string

const (
	KindNoComponents       Kind = "no_components"       // listing yielded zero matching files
	KindNoValidComponents  Kind = "no_valid_components" // every file failed extraction
	KindExtractionFailed   Kind = "extraction_failed"   // one file failed extraction
	KindBackendUnavailable Kind = "backend_unavailable" // selected extraction backend not wired up
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
	KindNotRunning         Kind = "not_running"
)

// Error is the structured error type used throughout the composer core
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Path    string
	Backend string
	Detail  string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Backend != "" {
		b.WriteString(" (backend ")
		b.WriteString(e.Backend)
		b.WriteByte(')')
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Two Errors match when their
// Phase and Kind agree, so sentinel-style checks work with errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the file path the error relates to
func (b *Builder) Path(p string) *Builder {
	b.err.Path = p
	return b
}

// Backend sets the extraction backend name
func (b *Builder) Backend(name string) *Builder {
	b.err.Backend = name
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NoComponentsFound reports a scan of root that matched zero files.
func NoComponentsFound(root string) *Error {
	return &Error{
		Phase:  PhaseScan,
		Kind:   KindNoComponents,
		Path:   root,
		Detail: "no matching component files found",
	}
}

// NoValidComponents reports a scan where every file failed extraction.
func NoValidComponents(root string, failed int) *Error {
	return &Error{
		Phase:  PhaseScan,
		Kind:   KindNoValidComponents,
		Path:   root,
		Detail: fmt.Sprintf("all %d files failed extraction", failed),
	}
}

// ExtractionFailed wraps a per-file extraction failure.
func ExtractionFailed(backend, path string, cause error) *Error {
	return &Error{
		Phase:   PhaseExtract,
		Kind:    KindExtractionFailed,
		Path:    path,
		Backend: backend,
		Cause:   cause,
	}
}

// BackendUnavailable reports an extraction backend that is not wired up.
// Files processed under it fail until the backend is reconfigured.
func BackendUnavailable(backend, detail string) *Error {
	return &Error{
		Phase:   PhaseExtract,
		Kind:    KindBackendUnavailable,
		Backend: backend,
		Detail:  detail,
	}
}

// NotFound creates a not-found error
func NotFound(what, name string) *Error {
	return &Error{
		Phase:  PhaseQuery,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// ScanFailed wraps a listing failure for one root.
func ScanFailed(root string, cause error) *Error {
	return &Error{
		Phase: PhaseScan,
		Kind:  KindInvalidInput,
		Path:  root,
		Cause: cause,
	}
}
