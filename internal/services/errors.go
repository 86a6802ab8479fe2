package services

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError is a caller mistake that maps to 400.
type ValidationError struct {
	Message string
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Details, ", ")
}

func invalid(message string, details ...string) error {
	return &ValidationError{Message: message, Details: details}
}

// StatusError carries a client-facing message for one of the sentinel
// errors above.
type StatusError struct {
	Message string
	Kind    error
}

func (e *StatusError) Error() string { return e.Message }
func (e *StatusError) Unwrap() error { return e.Kind }

func notFound(what string) error {
	return &StatusError{Message: what + " not found", Kind: ErrNotFound}
}

func forbidden(action string) error {
	return &StatusError{Message: "not authorized to " + action, Kind: ErrForbidden}
}
