package model

import "slices"

// Candlestick represents a single OHLCV price bar.
type Candlestick struct {
	Timestamp int64   `json:"timestamp"` // as delivered by the feed, usually seconds since epoch
	Open      float64 `json:"open"`
	Close     float64 `json:"close"`
	Low       float64 `json:"low"`
	High      float64 `json:"high"`
	Volume    int64   `json:"volume"`
	Interval  string  `json:"interval,omitempty"` // e.g. "1d", empty when unknown
}

// TradingPeriod is an ordered run of candlesticks for one requested range and interval.
// Candlesticks keep the order of the source feed and are never re-sorted.
type TradingPeriod struct {
	symbol   string
	rng      string
	interval string
	candles  []Candlestick
	trimmed  bool
}

// NewTradingPeriod creates a TradingPeriod that owns the given candlesticks.
func NewTradingPeriod(symbol, rng, interval string, candles []Candlestick) *TradingPeriod {
	return &TradingPeriod{
		symbol:   symbol,
		rng:      rng,
		interval: interval,
		candles:  candles,
	}
}

func (p *TradingPeriod) Symbol() string   { return p.symbol }
func (p *TradingPeriod) Range() string    { return p.rng }
func (p *TradingPeriod) Interval() string { return p.interval }
func (p *TradingPeriod) Len() int         { return len(p.candles) }

// Candlesticks returns a copy of the candlesticks in feed order.
func (p *TradingPeriod) Candlesticks() []Candlestick {
	return slices.Clone(p.candles)
}

// Last returns the most recent candlestick.
func (p *TradingPeriod) Last() (Candlestick, bool) {
	if len(p.candles) == 0 {
		return Candlestick{}, false
	}
	return p.candles[len(p.candles)-1], true
}

// RemoveInProgress drops the last candlestick, which belongs to a session that
// has not closed yet. It only ever removes one bar; later calls report false.
func (p *TradingPeriod) RemoveInProgress() bool {
	if p.trimmed || len(p.candles) == 0 {
		return false
	}
	p.candles = p.candles[:len(p.candles)-1]
	p.trimmed = true
	return true
}
