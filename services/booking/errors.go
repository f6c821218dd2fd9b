package booking

import (
	"errors"
	"fmt"

	"petcare/database/repository"
)

// Kind classifies failures so callers can tell caller mistakes from infrastructure faults.
type Kind int

const (
	KindServer Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindExpired
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindExpired:
		return "expired"
	}
	return "server"
}

// Error is the typed error every booking operation returns.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFoundError(code, format string, args ...interface{}) *Error {
	return newError(KindNotFound, code, format, args...)
}

func ValidationError(code, format string, args ...interface{}) *Error {
	return newError(KindValidation, code, format, args...)
}

func ConflictError(code, format string, args ...interface{}) *Error {
	return newError(KindConflict, code, format, args...)
}

func ExpiredError(code, format string, args ...interface{}) *Error {
	return newError(KindExpired, code, format, args...)
}

// ServerError wraps an unexpected failure. The cause is kept for logs, not shown to clients.
func ServerError(err error, format string, args ...interface{}) *Error {
	e := newError(KindServer, "server_error", format, args...)
	e.Err = err
	return e
}

// FieldErrors builds a validation error carrying per-field messages.
func FieldErrors(fields map[string]string) *Error {
	e := ValidationError("invalid_input", "Validation failed")
	e.Fields = fields
	return e
}

// KindOf returns the kind of err. Untyped errors count as server errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

// FromRepo converts repository sentinels into typed errors.
func FromRepo(err error, what, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return NotFoundError(what+"_not_found", "%s %s not found", what, id)
	case errors.Is(err, repository.ErrVersionConflict):
		e := ConflictError("concurrent_update", "%s %s was modified concurrently, retry the request", what, id)
		e.Err = err
		return e
	case errors.Is(err, repository.ErrDuplicate):
		e := ConflictError("duplicate", "%s already exists", what)
		e.Err = err
		return e
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return ServerError(err, "failed to access %s", what)
}
