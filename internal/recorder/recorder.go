package recorder

import (
	"context"
	"fmt"

	"CandleKeeper/internal/model"
)

// Recorder persists candlesticks keyed by (symbol, timestamp).
//
// AddRows is all-or-nothing: either every candlestick is inserted or updated
// in place, or nothing is written and an error wrapping model.ErrPersistence
// is returned. Writing the same (symbol, timestamp) twice leaves one row
// holding the latest values.
type Recorder interface {
	AddRows(ctx context.Context, symbol string, candles []model.Candlestick) error
	AddRow(ctx context.Context, symbol string, c model.Candlestick) error
	// GetAllRowsByName returns the stored candlesticks of symbol by ascending timestamp.
	GetAllRowsByName(ctx context.Context, symbol string) ([]model.Candlestick, error)
	// ResetTable deletes every stored candlestick.
	ResetTable(ctx context.Context) error
	Close() error
}

// Column order of every insert.
const insertColumns = "timestamp, open, close, low, high, volume, symbol"

func insertArgs(symbol string, c model.Candlestick) []any {
	return []any{c.Timestamp, c.Open, c.Close, c.Low, c.High, c.Volume, symbol}
}

// checkBatch rejects a call before any I/O. Errors match both
// model.ErrPersistence and model.ErrValidation.
func checkBatch(symbol string, candles []model.Candlestick) error {
	if symbol == "" {
		return fmt.Errorf("%w: %w: symbol must not be empty", model.ErrPersistence, model.ErrValidation)
	}
	if len(candles) == 0 {
		return fmt.Errorf("%w: %w: no candlesticks to store for %s", model.ErrPersistence, model.ErrValidation, symbol)
	}
	if err := model.ValidateAll(candles); err != nil {
		return fmt.Errorf("%w: %s: %w", model.ErrPersistence, symbol, err)
	}
	return nil
}
