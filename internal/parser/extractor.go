package parser

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"CandleKeeper/internal/jsonstream"
	"CandleKeeper/internal/model"
)

// Extractor is a provider-specific Handler that collects candlestick fields
// from one document at a time. An Extractor is not safe for concurrent use.
type Extractor interface {
	jsonstream.Handler
	// Provider names the upstream envelope, e.g. "yahoo".
	Provider() string
	// Reset clears all state left by a previous document.
	Reset()
	// TradingPeriod returns the period built by OnEnd, or nil before a successful walk.
	TradingPeriod() *model.TradingPeriod
}

type field uint8

const (
	fieldTimestamp field = iota
	fieldOpen
	fieldClose
	fieldLow
	fieldHigh
	fieldVolume
	numFields
)

var fieldNames = [numFields]string{"timestamp", "open", "close", "low", "high", "volume"}

func (f field) String() string { return fieldNames[f] }

type label uint8

const (
	labelSymbol label = iota
	labelRange
	labelInterval
)

// schema maps full field paths to the accumulator or label they feed.
type schema struct {
	numbers map[string]field
	strings map[string]label
}

// accumulators hold one ordered column per recognized field.
type accumulators struct {
	ints   [numFields][]int64
	prices [numFields][]float64
}

func (a *accumulators) len(f field) int {
	if f == fieldTimestamp || f == fieldVolume {
		return len(a.ints[f])
	}
	return len(a.prices[f])
}

// extractor implements the callbacks shared by all providers; the embedding
// type only contributes its schema.
type extractor struct {
	jsonstream.NopHandler

	provider string
	schema   schema

	defaultRange    string
	defaultInterval string

	acc      accumulators
	symbol   string
	rng      string
	interval string
	period   *model.TradingPeriod
}

func newExtractor(provider string, s schema, rng, interval string) extractor {
	e := extractor{
		provider:        provider,
		schema:          s,
		defaultRange:    rng,
		defaultInterval: interval,
	}
	e.Reset()
	return e
}

func (e *extractor) Provider() string { return e.provider }

func (e *extractor) Reset() {
	e.acc = accumulators{}
	e.symbol = ""
	e.rng = e.defaultRange
	e.interval = e.defaultInterval
	e.period = nil
}

func (e *extractor) TradingPeriod() *model.TradingPeriod { return e.period }

func (e *extractor) OnNumber(path *jsonstream.Path, v json.Number) error {
	f, ok := e.schema.numbers[path.String()]
	if !ok {
		return nil
	}

	switch f {
	case fieldTimestamp:
		n, err := v.Int64()
		if err != nil {
			return fmt.Errorf("%w: %s: %q is not an integer", model.ErrDecode, path, v)
		}
		e.acc.ints[f] = append(e.acc.ints[f], n)
	case fieldVolume:
		n, err := parseVolume(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", model.ErrDecode, path, err)
		}
		e.acc.ints[f] = append(e.acc.ints[f], n)
	default:
		p, err := roundPrice(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", model.ErrDecode, path, err)
		}
		e.acc.prices[f] = append(e.acc.prices[f], p)
	}
	return nil
}

func (e *extractor) OnString(path *jsonstream.Path, v string) error {
	l, ok := e.schema.strings[path.String()]
	if !ok {
		return nil
	}

	switch l {
	case labelSymbol:
		if e.symbol == "" {
			e.symbol = v
		}
	case labelRange:
		e.rng = v
	case labelInterval:
		e.interval = v
	}
	return nil
}

// OnEnd checks that every populated column matches the timestamp column and
// assembles the trading period.
func (e *extractor) OnEnd() error {
	want := e.acc.len(fieldTimestamp)
	if want == 0 {
		return fmt.Errorf("%w: no candlestick data found", model.ErrConsistency)
	}
	for f := fieldOpen; f < numFields; f++ {
		if got := e.acc.len(f); got != 0 && got != want {
			return fmt.Errorf("%w: inconsistent data arrays: %s has %d values, expected %d",
				model.ErrConsistency, f, got, want)
		}
	}

	candles, err := assemble(&e.acc, e.interval)
	if err != nil {
		return err
	}
	e.period = model.NewTradingPeriod(e.symbol, e.rng, e.interval, candles)
	return nil
}

// roundPrice rounds half-up to two decimal places on the decimal
// representation, falling back to the unrounded value.
func roundPrice(v json.Number) (float64, error) {
	d, err := decimal.NewFromString(v.String())
	if err == nil {
		f, _ := d.Round(2).Float64()
		return f, nil
	}
	f, ferr := v.Float64()
	if ferr != nil {
		return 0, fmt.Errorf("%q is not a number", v)
	}
	return f, nil
}

// parseVolume accepts integers and float literals with an integral value
// such as 1.2e6, which some feeds emit for large volumes.
func parseVolume(v json.Number) (int64, error) {
	if n, err := v.Int64(); err == nil {
		return n, nil
	}
	f, err := v.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return 0, fmt.Errorf("%q is not an integral volume", v)
	}
	return int64(f), nil
}
