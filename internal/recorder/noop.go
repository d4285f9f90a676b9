package recorder

import (
	"context"

	"CandleKeeper/internal/model"
)

// NoopRecorder validates writes and stores nothing. Used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) AddRows(_ context.Context, symbol string, candles []model.Candlestick) error {
	return checkBatch(symbol, candles)
}

func (n *NoopRecorder) AddRow(ctx context.Context, symbol string, c model.Candlestick) error {
	return n.AddRows(ctx, symbol, []model.Candlestick{c})
}

func (n *NoopRecorder) GetAllRowsByName(_ context.Context, _ string) ([]model.Candlestick, error) {
	return nil, nil
}

func (n *NoopRecorder) ResetTable(_ context.Context) error { return nil }
func (n *NoopRecorder) Close() error                       { return nil }
