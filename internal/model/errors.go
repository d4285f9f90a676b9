package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode reports a malformed token stream or a scalar that cannot be converted.
	ErrDecode = errors.New("decode error")
	// ErrConsistency reports extracted field arrays that cannot form candlesticks.
	ErrConsistency = errors.New("consistency error")
	// ErrValidation reports a candlestick that breaks a price or timestamp invariant.
	ErrValidation = errors.New("validation error")
	// ErrPersistence reports a failed or rolled back write.
	ErrPersistence = errors.New("persistence error")
)

// FieldError names the field of a single candlestick that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrValidation }

// ValidationError locates the first invalid candlestick of a batch.
// Index is 1-based.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid candlestick at index %d: %s %s", e.Index, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
