// Package apperr is the error vocabulary of the service.
//
// It re-exports github.com/cockroachdb/errors so callers get stack traces and
// markers from one import, and defines the sentinels the transport layer maps
// onto status codes.
package apperr

import (
	"fmt"
	"sort"
	"strings"

	crdb "github.com/cockroachdb/errors"
)

var (
	New      = crdb.New
	Newf     = crdb.Newf
	Wrap     = crdb.Wrap
	Wrapf    = crdb.Wrapf
	Is       = crdb.Is
	IsAny    = crdb.IsAny
	As       = crdb.As
	Mark     = crdb.Mark
	WithHint = crdb.WithHint
)

var (
	// ErrValidation marks input rejected before any side effect.
	ErrValidation = New("validation failed")

	// ErrNotFound means the job or recipe is unknown or expired.
	ErrNotFound = New("not found")

	// ErrForbidden means the caller does not own the resource.
	ErrForbidden = New("forbidden")

	// ErrCapabilityUnavailable covers transport failures and timeouts of an
	// external detection or generation provider.
	ErrCapabilityUnavailable = New("capability unavailable")

	// ErrMalformedResponse is returned when a provider answered but the
	// payload could not be decoded into the expected shape.
	ErrMalformedResponse = New("invalid response shape")

	// ErrIncompleteRecipe is returned when a generated recipe lacks
	// ingredients or instructions.
	ErrIncompleteRecipe = New("incomplete recipe")

	// ErrInvalidTransition guards the detection job state machine.
	ErrInvalidTransition = New("invalid job status transition")
)

// ValidationError carries per-field messages for 4xx responses.
type ValidationError struct {
	Fields map[string]string
}

// NewValidation builds a ValidationError with a single field message.
func NewValidation(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add records a message for field and returns the receiver.
func (e *ValidationError) Add(field, msg string) *ValidationError {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
	return e
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
