package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports malformed caller input (empty cart, missing
// shipping fields). Surfaced as 4xx and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports a business-rule violation such as insufficient stock
// or an illegal status transition. ProductID names the offending product when
// stock is the cause, so callers can show an actionable message. Never retried.
type ConflictError struct {
	Reason    string
	ProductID string
}

func (e *ConflictError) Error() string { return e.Reason }

func Conflictf(format string, args ...any) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// ExternalError wraps a failure of an external collaborator (payment gateway
// timeout or 5xx). Callers may retry with backoff.
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *ExternalError) Unwrap() error { return e.Err }

// IntegrityError reports a storage-level consistency failure (serialization
// conflict, unexpected constraint hit). Retried once internally with fresh
// data, then surfaced as a generic failure; the enclosing transaction has
// already rolled back so no partial effects remain.
type IntegrityError struct {
	Err error
}

func (e *IntegrityError) Error() string { return fmt.Sprintf("integrity: %v", e.Err) }
func (e *IntegrityError) Unwrap() error { return e.Err }
