package recorder

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CandleKeeper/internal/model"
	"CandleKeeper/internal/parser"
)

func bar(ts int64, price float64) model.Candlestick {
	return model.Candlestick{
		Timestamp: ts,
		Open:      price,
		Close:     price + 1,
		Low:       price - 1,
		High:      price + 2,
		Volume:    1000,
	}
}

func newTestSQLite(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "candles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestClassifyBatch(t *testing.T) {
	tests := []struct {
		name      string
		counts    []int64
		submitted int
		wantErr   string
	}{
		{"all inserted", []int64{1, 1, 1}, 3, ""},
		{"updated in place", []int64{0, 0}, 2, ""},
		{"count unknown", []int64{RowCountUnknown, 1}, 2, ""},
		{"one failed", []int64{1, RowCountFailed, 1}, 3, "1 of 3 batch statements failed"},
		{"unexpected negative", []int64{-7, -1}, 2, "2 of 2 batch statements failed"},
		{"missing results", []int64{1}, 3, "1 of 3 batch statements reported success"},
		{"extra results", []int64{1, 1}, 1, "2 of 1 batch statements reported success"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyBatch(tt.counts, tt.submitted)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, model.ErrPersistence)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSQLite_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newTestSQLite(t)

	require.NoError(t, r.AddRows(ctx, "AAPL", []model.Candlestick{bar(1700000000, 10)}))
	require.NoError(t, r.AddRows(ctx, "AAPL", []model.Candlestick{bar(1700000000, 20)}))

	rows, err := r.GetAllRowsByName(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 20.0, rows[0].Open)
	assert.Equal(t, 21.0, rows[0].Close)
}

func TestSQLite_DuplicateKeyInsideOneBatch(t *testing.T) {
	ctx := context.Background()
	r := newTestSQLite(t)

	require.NoError(t, r.AddRows(ctx, "AAPL", []model.Candlestick{bar(5, 10), bar(5, 30)}))

	rows, err := r.GetAllRowsByName(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 30.0, rows[0].Open)
}

func TestSQLite_InvalidRecordRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	r := newTestSQLite(t)

	candles := []model.Candlestick{bar(1, 10), bar(2, 10), bar(3, 10), bar(4, 10)}
	candles[2].Low = 50

	err := r.AddRows(ctx, "AAPL", candles)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPersistence)
	assert.ErrorIs(t, err, model.ErrValidation)
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 3, ve.Index)

	rows, err := r.GetAllRowsByName(ctx, "AAPL")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLite_NonFinitePriceRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	r := newTestSQLite(t)

	tests := []struct {
		name  string
		mod   func(c *model.Candlestick)
		field string
	}{
		{"NaN open", func(c *model.Candlestick) { c.Open = math.NaN() }, "open"},
		{"infinite high", func(c *model.Candlestick) { c.High = math.Inf(1) }, "high"},
		{"negative infinite low", func(c *model.Candlestick) { c.Low = math.Inf(-1) }, "low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candles := []model.Candlestick{bar(1, 10), bar(2, 10)}
			tt.mod(&candles[1])

			err := r.AddRows(ctx, "AAPL", candles)
			require.ErrorIs(t, err, model.ErrValidation)
			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, 2, ve.Index)
			assert.Equal(t, tt.field, ve.Field)

			rows, err := r.GetAllRowsByName(ctx, "AAPL")
			require.NoError(t, err)
			assert.Empty(t, rows)
		})
	}
}

func TestSQLite_StatementFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	r := newTestSQLite(t)

	_, err := r.db.Exec(`CREATE TRIGGER reject_four BEFORE INSERT ON candlesticks
		WHEN NEW.timestamp = 4 BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	err = r.AddRows(ctx, "AAPL", []model.Candlestick{bar(1, 10), bar(2, 10), bar(3, 10), bar(4, 10), bar(5, 10)})
	require.ErrorIs(t, err, model.ErrPersistence)
	assert.Contains(t, err.Error(), "1 of 5 batch statements failed")

	rows, err := r.GetAllRowsByName(ctx, "AAPL")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newTestSQLite(t)

	in := []model.Candlestick{bar(300, 12.34), bar(100, 10.01), bar(200, 11.5)}
	require.NoError(t, r.AddRows(ctx, "MSFT", in))
	require.NoError(t, r.AddRow(ctx, "AAPL", bar(100, 99)))

	out, err := r.GetAllRowsByName(ctx, "MSFT")
	require.NoError(t, err)
	require.Len(t, out, 3)

	byTS := make(map[int64]model.Candlestick)
	for _, c := range in {
		byTS[c.Timestamp] = c
	}
	for i, got := range out {
		if i > 0 {
			assert.Greater(t, got.Timestamp, out[i-1].Timestamp)
		}
		want, ok := byTS[got.Timestamp]
		require.True(t, ok)
		assert.InDelta(t, want.Open, got.Open, 0.005)
		assert.InDelta(t, want.Close, got.Close, 0.005)
		assert.InDelta(t, want.Low, got.Low, 0.005)
		assert.InDelta(t, want.High, got.High, 0.005)
		assert.Equal(t, want.Volume, got.Volume)
	}
}

func TestSQLite_ParsedThreeMonthDocument(t *testing.T) {
	ctx := context.Background()
	r := newTestSQLite(t)

	doc, err := os.ReadFile(filepath.Join("..", "parser", "testdata", "yahoo_aapl_3mo_1d.json"))
	require.NoError(t, err)
	period, err := parser.ParseYahoo(string(doc))
	require.NoError(t, err)
	require.Equal(t, 60, period.Len())

	require.NoError(t, r.AddRows(ctx, period.Symbol(), period.Candlesticks()))
	rows, err := r.GetAllRowsByName(ctx, "AAPL")
	require.NoError(t, err)
	assert.Len(t, rows, 60)

	// Re-ingesting the same document updates in place.
	require.NoError(t, r.AddRows(ctx, period.Symbol(), period.Candlesticks()))
	rows, err = r.GetAllRowsByName(ctx, "AAPL")
	require.NoError(t, err)
	assert.Len(t, rows, 60)
}

func TestSQLite_SecondsAndMillisecondsAreDistinctKeys(t *testing.T) {
	ctx := context.Background()
	r := newTestSQLite(t)

	require.NoError(t, r.AddRow(ctx, "AAPL", bar(1700000000, 10)))
	require.NoError(t, r.AddRow(ctx, "AAPL", bar(1700000000000, 10)))

	rows, err := r.GetAllRowsByName(ctx, "AAPL")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSQLite_RejectsEmptyInput(t *testing.T) {
	ctx := context.Background()
	r := newTestSQLite(t)

	err := r.AddRows(ctx, "", []model.Candlestick{bar(1, 1)})
	assert.ErrorIs(t, err, model.ErrPersistence)
	assert.ErrorIs(t, err, model.ErrValidation)

	err = r.AddRows(ctx, "AAPL", nil)
	assert.ErrorIs(t, err, model.ErrPersistence)
}

func TestSQLite_CanceledContextWritesNothing(t *testing.T) {
	r := newTestSQLite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.AddRows(ctx, "AAPL", []model.Candlestick{bar(1, 1)})
	assert.ErrorIs(t, err, model.ErrPersistence)
	assert.ErrorIs(t, err, context.Canceled)

	rows, err := r.GetAllRowsByName(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLite_ResetTable(t *testing.T) {
	ctx := context.Background()
	r := newTestSQLite(t)

	require.NoError(t, r.AddRows(ctx, "AAPL", []model.Candlestick{bar(1, 1), bar(2, 1)}))
	require.NoError(t, r.ResetTable(ctx))

	rows, err := r.GetAllRowsByName(ctx, "AAPL")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestNoopRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewNoopRecorder()

	assert.NoError(t, r.AddRow(ctx, "AAPL", bar(1, 1)))
	bad := bar(1, 1)
	bad.Volume = -1
	assert.ErrorIs(t, r.AddRows(ctx, "AAPL", []model.Candlestick{bar(1, 1), bad}), model.ErrValidation)

	rows, err := r.GetAllRowsByName(ctx, "AAPL")
	assert.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, r.ResetTable(ctx))
	assert.NoError(t, r.Close())
}

var (
	_ Recorder = (*SQLiteRecorder)(nil)
	_ Recorder = (*PostgresRecorder)(nil)
	_ Recorder = (*NoopRecorder)(nil)
)
