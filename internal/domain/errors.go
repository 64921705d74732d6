package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid")
	ErrDuplicate    = errors.New("duplicate")
)

// Failure is an error of a known class carrying a client-facing message.
type Failure struct {
	Kind    error
	Message string
}

func (f *Failure) Error() string { return f.Message }
func (f *Failure) Unwrap() error { return f.Kind }

func Fail(kind error, format string, args ...any) error {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// DuplicateError reports a unique-constraint violation.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("Duplicate field value entered: %s %q already exists", e.Field, e.Value)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }
