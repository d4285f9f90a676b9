package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBar(ts int64) Candlestick {
	return Candlestick{Timestamp: ts, Open: 10, Close: 11, Low: 9.5, High: 11.5, Volume: 1000, Interval: "1d"}
}

func TestCandlestickValidate(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(c *Candlestick)
		field string
	}{
		{"valid", func(c *Candlestick) {}, ""},
		{"zero timestamp", func(c *Candlestick) { c.Timestamp = 0 }, "timestamp"},
		{"negative open", func(c *Candlestick) { c.Open = -1 }, "open"},
		{"negative low", func(c *Candlestick) { c.Low = -1 }, "low"},
		{"negative volume", func(c *Candlestick) { c.Volume = -5 }, "volume"},
		{"low above high", func(c *Candlestick) { c.Low = 12 }, "low"},
		{"open above high", func(c *Candlestick) { c.Open = 12 }, "open"},
		{"open below low", func(c *Candlestick) { c.Open = 9 }, "open"},
		{"close above high", func(c *Candlestick) { c.Close = 11.6 }, "close"},
		{"close below low", func(c *Candlestick) { c.Close = 9.4 }, "close"},
		{"NaN open", func(c *Candlestick) { c.Open = math.NaN() }, "open"},
		{"NaN close", func(c *Candlestick) { c.Close = math.NaN() }, "close"},
		{"infinite high", func(c *Candlestick) { c.High = math.Inf(1) }, "high"},
		{"negative infinite low", func(c *Candlestick) { c.Low = math.Inf(-1) }, "low"},
		{"flat bar", func(c *Candlestick) { c.Open, c.Close, c.Low, c.High = 5, 5, 5, 5 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validBar(1700000000)
			tt.mod(&c)
			err := c.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestValidateAll_NamesFirstOffendingIndex(t *testing.T) {
	bars := []Candlestick{validBar(1), validBar(2), validBar(3), validBar(4)}
	bars[2].High = 1
	bars[3].Timestamp = -1

	err := ValidateAll(bars)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 3, ve.Index)
	assert.Equal(t, "low", ve.Field)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "index 3")

	assert.NoError(t, ValidateAll(nil))
}

func TestValidateAll_RejectsNonFinitePrices(t *testing.T) {
	bars := []Candlestick{validBar(1), validBar(2)}
	bars[1].Open = math.NaN()

	var ve *ValidationError
	require.ErrorAs(t, ValidateAll(bars), &ve)
	assert.Equal(t, 2, ve.Index)
	assert.Equal(t, "open", ve.Field)
	assert.Contains(t, ve.Reason, "finite")
}

func TestTradingPeriod_RemoveInProgressOnlyOnce(t *testing.T) {
	p := NewTradingPeriod("AAPL", "3mo", "1d", []Candlestick{validBar(1), validBar(2), validBar(3)})

	assert.True(t, p.RemoveInProgress())
	assert.Equal(t, 2, p.Len())
	assert.False(t, p.RemoveInProgress())
	assert.Equal(t, 2, p.Len())

	last, ok := p.Last()
	require.True(t, ok)
	assert.Equal(t, int64(2), last.Timestamp)
}

func TestTradingPeriod_CandlesticksIsACopy(t *testing.T) {
	p := NewTradingPeriod("AAPL", "3mo", "1d", []Candlestick{validBar(1)})
	cs := p.Candlesticks()
	cs[0].Open = 999

	again := p.Candlesticks()
	assert.Equal(t, 10.0, again[0].Open)
	assert.Equal(t, "AAPL", p.Symbol())
	assert.Equal(t, "3mo", p.Range())
	assert.Equal(t, "1d", p.Interval())
}

func TestTradingPeriod_EmptyHasNoLast(t *testing.T) {
	p := NewTradingPeriod("", "", "", nil)
	_, ok := p.Last()
	assert.False(t, ok)
	assert.False(t, p.RemoveInProgress())
}
