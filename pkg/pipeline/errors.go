package pipeline

import (
	"errors"
	"fmt"

	"github.com/sessionforge/sessionforge/pkg/config"
	"github.com/sessionforge/sessionforge/pkg/document"
	"github.com/sessionforge/sessionforge/pkg/session"
)

// ErrorClass tells the caller who has to act on an error.
type ErrorClass string

const (
	// ErrorClassLoad indicates a configuration or schema file that is
	// missing or unparseable.
	ErrorClassLoad ErrorClass = "load"

	// ErrorClassSchema indicates a configuration that violates its schema.
	ErrorClassSchema ErrorClass = "schema"

	// ErrorClassSession indicates that the current session's data is
	// missing, so no context can be built.
	ErrorClassSession ErrorClass = "session"

	// ErrorClassInternal indicates the tool itself failed.
	ErrorClassInternal ErrorClass = "internal"
)

// Exit statuses.
const (
	// ExitSuccess is returned for a valid configuration, with or without
	// warnings.
	ExitSuccess = 0

	// ExitInvalid is returned when the operator must fix the configuration.
	ExitInvalid = 1

	// ExitInternal is returned for unexpected failures.
	ExitInternal = 2
)

// Error is a classified pipeline error.
type Error struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Stage is the pipeline stage that failed.
	Stage string `json:"stage,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same class and code. A target with an
// empty code matches any code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class && (t.Code == "" || e.Code == t.Code)
}

// ExitCode maps the error class to a process exit status.
func (e *Error) ExitCode() int {
	switch e.Class {
	case ErrorClassLoad, ErrorClassSchema, ErrorClassSession:
		return ExitInvalid
	default:
		return ExitInternal
	}
}

// NewLoadError creates a load error.
func NewLoadError(message string, err error) *Error {
	return &Error{Class: ErrorClassLoad, Message: message, Err: err}
}

// NewSchemaError creates a schema error.
func NewSchemaError(message string, err error) *Error {
	return &Error{Class: ErrorClassSchema, Message: message, Err: err}
}

// NewSessionError creates a session error.
func NewSessionError(message string, err error) *Error {
	return &Error{Class: ErrorClassSession, Message: message, Err: err}
}

// NewInternalError creates an internal error.
func NewInternalError(message string, err error) *Error {
	return &Error{Class: ErrorClassInternal, Message: message, Err: err}
}

// WithStage adds the failing stage to an error.
func (e *Error) WithStage(stage string) *Error {
	e.Stage = stage
	return e
}

// WithCode adds an error code to an error.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithDetail adds a detail field to the error context.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Sentinels for errors.Is checks.
var (
	ErrLoad     = &Error{Class: ErrorClassLoad}
	ErrSchema   = &Error{Class: ErrorClassSchema}
	ErrSession  = &Error{Class: ErrorClassSession}
	ErrInternal = &Error{Class: ErrorClassInternal}
)

// Common error codes.
const (
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInvalidSyntax  = "INVALID_SYNTAX"
	ErrCodeUnreadable     = "UNREADABLE"
	ErrCodeInvalidConfig  = "INVALID_CONFIG"
	ErrCodeMissingSession = "MISSING_SESSION"
	ErrCodeUnknownEngine  = "UNKNOWN_ENGINE"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// Classify returns err as a *Error, classifying known library errors and
// treating everything else as internal. It returns nil for a nil err.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	var le *document.LoadError
	if errors.As(err, &le) {
		return NewLoadError("", le).WithCode(loadCode(le.Kind))
	}

	var me *session.MissingSessionError
	if errors.As(err, &me) {
		return NewSessionError("", me).WithCode(ErrCodeMissingSession)
	}

	var de *config.DecodeError
	if errors.As(err, &de) {
		return NewSchemaError("", de).WithCode(ErrCodeInvalidConfig)
	}

	return NewInternalError("unexpected failure", err).WithCode(ErrCodeInternal)
}

// ExitCode returns the exit status for err: 0 for nil, otherwise the status
// of its classification.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return Classify(err).ExitCode()
}

func loadCode(kind document.ErrorKind) string {
	switch kind {
	case document.KindNotFound:
		return ErrCodeNotFound
	case document.KindInvalidSyntax:
		return ErrCodeInvalidSyntax
	default:
		return ErrCodeUnreadable
	}
}
