package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that must map it onto a response.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// NotFoundError is returned when a lookup by id has no matching record.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// ValidationError is returned when input is missing a required field or
// carries a value outside its allowed set.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid is shorthand for building a ValidationError.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports which Kind err belongs to. Wrapped errors are unwrapped.
func KindOf(err error) Kind {
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return KindNotFound
	}
	var invalid *ValidationError
	if errors.As(err, &invalid) {
		return KindValidation
	}
	return KindInternal
}
