package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindPermission  Kind = "permission"
	KindConflict    Kind = "conflict"
	KindPersistence Kind = "persistence"
)

type Exception struct {
	Kind       Kind
	Field      string
	Message    string
	StatusCode int
	Err        error
}

func (e *Exception) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *Exception) Unwrap() error {
	return e.Err
}

// Is matches any Exception of the same kind, so callers can test against the
// package sentinels with errors.Is.
func (e *Exception) Is(target error) bool {
	t, ok := target.(*Exception)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation  = &Exception{Kind: KindValidation, Message: "validation failed", StatusCode: http.StatusBadRequest}
	ErrNotFound    = &Exception{Kind: KindNotFound, Message: "not found", StatusCode: http.StatusNotFound}
	ErrPermission  = &Exception{Kind: KindPermission, Message: "permission denied", StatusCode: http.StatusForbidden}
	ErrConflict    = &Exception{Kind: KindConflict, Message: "conflict", StatusCode: http.StatusConflict}
	ErrPersistence = &Exception{Kind: KindPersistence, Message: "persistence failure", StatusCode: http.StatusInternalServerError}
)

func Validation(field, message string) error {
	return &Exception{Kind: KindValidation, Field: field, Message: message, StatusCode: http.StatusBadRequest}
}

func Permission(message string) error {
	return &Exception{Kind: KindPermission, Message: message, StatusCode: http.StatusForbidden}
}

// Persistence wraps a store failure under a generic "failed to <op>" message.
// Errors that already carry a kind pass through untouched.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Exception
	if errors.As(err, &appErr) {
		return err
	}
	return &Exception{
		Kind:       KindPersistence,
		Message:    "failed to " + op,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// Field returns the offending field of a validation error, if any.
func Field(err error) string {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
