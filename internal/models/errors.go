package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation marks malformed or disallowed input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized marks missing, invalid or revoked credentials. Bad
	// passwords and unknown emails both map here.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound marks a resource that is absent or not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when an email is already registered.
	ErrEmailTaken = fmt.Errorf("%w: email is already registered", ErrValidation)
)

// ValidationError collects per-field rule violations.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records msg for key unless key already has a message.
func (e *ValidationError) Add(key, msg string) {
	if _, ok := e.Fields[key]; !ok {
		e.Fields[key] = msg
	}
}

// Check records msg for key when cond is false.
func (e *ValidationError) Check(cond bool, key, msg string) {
	if !cond {
		e.Add(key, msg)
	}
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) != 0
}

// Err returns e as an error, or nil when nothing failed.
func (e *ValidationError) Err() error {
	if !e.HasErrors() {
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
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
