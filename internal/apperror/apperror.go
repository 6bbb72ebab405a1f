package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a request-level error category
type Kind string

const (
	MissingPostID           Kind = "missing_post_id"
	InvalidSchemaVersion    Kind = "invalid_schema_version"
	InvalidChangesShape     Kind = "invalid_changes"
	PostNotFound            Kind = "post_not_found"
	InsufficientPermissions Kind = "insufficient_permissions"
	DocumentBuildFailed     Kind = "document_build_failed"
	ValidationFailed        Kind = "validation_failed"
	PersistenceFailed       Kind = "persistence_failed"
)

// statusByKind maps error kinds to HTTP status hints for the REST boundary
var statusByKind = map[Kind]int{
	MissingPostID:           http.StatusBadRequest,
	InvalidSchemaVersion:    http.StatusBadRequest,
	InvalidChangesShape:     http.StatusBadRequest,
	PostNotFound:            http.StatusNotFound,
	InsufficientPermissions: http.StatusForbidden,
	DocumentBuildFailed:     http.StatusInternalServerError,
	ValidationFailed:        http.StatusUnprocessableEntity,
	PersistenceFailed:       http.StatusInternalServerError,
}

// Error is a typed request error carrying an HTTP status hint
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status hint for the error
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New creates a typed error with a message
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a typed error wrapping an underlying cause
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind of an error, or "" when the error is untyped
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StatusOf returns the HTTP status for an error, defaulting to 500
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status()
	}
	return http.StatusInternalServerError
}
