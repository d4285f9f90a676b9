package collector

import (
	"fmt"
	"regexp"
	"slices"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9^.\-=]{1,15}$`)

var (
	validRanges    = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}
	validIntervals = []string{"1m", "2m", "5m", "15m", "30m", "60m", "90m", "1h", "1d", "5d", "1wk", "1mo", "3mo"}
)

// Validator rejects malformed requests before any network call.
type Validator struct{}

// Validate checks symbol, range, and interval.
func (Validator) Validate(symbol, rng, interval string) error {
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: symbol %q", ErrInvalidRequest, symbol)
	}
	if !slices.Contains(validRanges, rng) {
		return fmt.Errorf("%w: range %q", ErrInvalidRequest, rng)
	}
	if !slices.Contains(validIntervals, interval) {
		return fmt.Errorf("%w: interval %q", ErrInvalidRequest, interval)
	}
	return nil
}
