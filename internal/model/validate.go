package model

import (
	"errors"
	"fmt"
	"math"
)

// Validate checks the candlestick invariants applied before persistence.
func (c Candlestick) Validate() error {
	if c.Timestamp <= 0 {
		return &FieldError{Field: "timestamp", Reason: fmt.Sprintf("must be positive, got %d", c.Timestamp)}
	}
	prices := []struct {
		name  string
		value float64
	}{
		{"open", c.Open},
		{"close", c.Close},
		{"low", c.Low},
		{"high", c.High},
	}
	for _, p := range prices {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return &FieldError{Field: p.name, Reason: fmt.Sprintf("must be a finite number, got %v", p.value)}
		}
		if p.value < 0 {
			return &FieldError{Field: p.name, Reason: fmt.Sprintf("must not be negative, got %v", p.value)}
		}
	}
	if c.Volume < 0 {
		return &FieldError{Field: "volume", Reason: fmt.Sprintf("must not be negative, got %d", c.Volume)}
	}
	if c.Low > c.High {
		return &FieldError{Field: "low", Reason: fmt.Sprintf("%v is above high %v", c.Low, c.High)}
	}
	if c.Open < c.Low || c.Open > c.High {
		return &FieldError{Field: "open", Reason: fmt.Sprintf("%v is outside [%v, %v]", c.Open, c.Low, c.High)}
	}
	if c.Close < c.Low || c.Close > c.High {
		return &FieldError{Field: "close", Reason: fmt.Sprintf("%v is outside [%v, %v]", c.Close, c.Low, c.High)}
	}
	return nil
}

// ValidateAll validates every candlestick and reports the first failure with its 1-based index.
func ValidateAll(candles []Candlestick) error {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			var fe *FieldError
			if errors.As(err, &fe) {
				return &ValidationError{Index: i + 1, Field: fe.Field, Reason: fe.Reason}
			}
			return fmt.Errorf("candlestick %d: %w", i+1, err)
		}
	}
	return nil
}
