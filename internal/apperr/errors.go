// Package apperr holds the error taxonomy shared across the build pipeline.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceDir is fatal: the source directory is missing or unreadable.
	ErrSourceDir = errors.New("source directory unavailable")

	ErrMalformedHeader = errors.New("malformed header")
	ErrDuplicateSlug   = errors.New("duplicate slug")
	ErrMissingField    = errors.New("missing field")
	ErrInvalidField    = errors.New("invalid field")
)

// Skip reasons attached to skipped documents.
const (
	ReasonMalformedHeader = "MalformedHeader"
	ReasonMissingField    = "MissingField"
	ReasonInvalidField    = "InvalidField"
	ReasonDuplicateSlug   = "DuplicateSlug"
	ReasonUnreadable      = "Unreadable"
)

// FieldError reports a header field that failed validation.
type FieldError struct {
	Field  string
	Kind   error // ErrMissingField or ErrInvalidField
	Detail string
}

// MissingField returns a FieldError for an absent required field.
func MissingField(field string) *FieldError {
	return &FieldError{Field: field, Kind: ErrMissingField}
}

// InvalidField returns a FieldError for a present but unusable field.
func InvalidField(field, detail string) *FieldError {
	return &FieldError{Field: field, Kind: ErrInvalidField, Detail: detail}
}

func (e *FieldError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s(%q)", e.reason(), e.Field)
	}
	return fmt.Sprintf("%s(%q): %s", e.reason(), e.Field, e.Detail)
}

// Unwrap lets errors.Is match the kind sentinel.
func (e *FieldError) Unwrap() error { return e.Kind }

func (e *FieldError) reason() string {
	if e.Kind == ErrMissingField {
		return ReasonMissingField
	}
	return ReasonInvalidField
}

// Reason maps an error to a skip reason.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMalformedHeader):
		return ReasonMalformedHeader
	case errors.Is(err, ErrDuplicateSlug):
		return ReasonDuplicateSlug
	case errors.Is(err, ErrMissingField):
		return ReasonMissingField
	case errors.Is(err, ErrInvalidField):
		return ReasonInvalidField
	default:
		return ReasonUnreadable
	}
}
