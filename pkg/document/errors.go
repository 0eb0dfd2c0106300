package document

import (
	"fmt"
)

// ErrorKind classifies why a document could not be loaded.
type ErrorKind string

const (
	// KindNotFound indicates the document does not exist at the given path.
	KindNotFound ErrorKind = "not_found"

	// KindInvalidSyntax indicates the document exists but cannot be parsed.
	KindInvalidSyntax ErrorKind = "invalid_syntax"

	// KindUnreadable indicates the document exists but cannot be read
	// (permissions, path is a directory, I/O failure).
	KindUnreadable ErrorKind = "unreadable"
)

// LoadError is returned for every load failure. Callers discriminate on Kind.
type LoadError struct {
	// Kind is the failure classification.
	Kind ErrorKind `json:"kind"`

	// Path is the file that failed to load.
	Path string `json:"path"`

	// Format is the format the loader attempted to parse.
	Format Format `json:"format"`

	// Message is the human-readable summary.
	Message string `json:"message"`

	// Diagnostic carries the parser's own text for syntax failures.
	Diagnostic string `json:"diagnostic,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Message, e.Diagnostic)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *LoadError of the same kind. A target with
// an empty Kind matches any LoadError.
func (e *LoadError) Is(target error) bool {
	t, ok := target.(*LoadError)
	if !ok {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

// Sentinel values for errors.Is checks.
var (
	ErrNotFound      = &LoadError{Kind: KindNotFound}
	ErrInvalidSyntax = &LoadError{Kind: KindInvalidSyntax}
	ErrUnreadable    = &LoadError{Kind: KindUnreadable}
)
