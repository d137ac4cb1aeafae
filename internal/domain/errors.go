package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound: no booking/ticket/agent matches the identifier.
	ErrNotFound = errors.New("not found")

	// ErrConflict: the ticket already has a non-terminal booking.
	ErrConflict = errors.New("ticket already has an active booking")

	// ErrInvalidTransition: the booking is no longer pending.
	ErrInvalidTransition = errors.New("booking is no longer pending")

	// ErrExpired: confirm attempted after the hold lapsed.
	ErrExpired = errors.New("booking hold has expired")

	// ErrUnavailable: the backing store or a dependent service is unreachable.
	ErrUnavailable = errors.New("service unavailable")
)

// ValidationError carries field-keyed messages. It is resolved by user
// correction and never reaches the store layer.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = msg
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// ErrOrNil returns nil when no field failed, so callers can
// `if err := v.ErrOrNil(); err != nil`.
func (e *ValidationError) ErrOrNil() error {
	if e.Empty() {
		return nil
	}
	return e
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
