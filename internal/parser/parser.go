// Package parser turns provider chart documents into trading periods in a
// single streaming pass.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"CandleKeeper/internal/jsonstream"
	"CandleKeeper/internal/model"
)

// ErrUnknownProvider is returned by NewExtractor for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown data provider")

// NewExtractor returns the extractor for provider. rng and interval label the
// resulting period when the document does not carry them.
func NewExtractor(provider, rng, interval string) (Extractor, error) {
	switch strings.ToLower(provider) {
	case ProviderYahoo:
		return NewYahooExtractor(rng, interval), nil
	case ProviderPolygon:
		return NewPolygonExtractor(rng, interval), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// Parse walks doc once with ex and returns the assembled trading period.
// A document either yields a complete period or an error wrapping
// model.ErrDecode or model.ErrConsistency.
func Parse(doc string, ex Extractor) (*model.TradingPeriod, error) {
	ex.Reset()
	if err := jsonstream.WalkString(doc, ex); err != nil {
		return nil, fmt.Errorf("parse %s document: %w", ex.Provider(), err)
	}
	period := ex.TradingPeriod()
	if period == nil {
		return nil, fmt.Errorf("parse %s document: %w: no trading period assembled", ex.Provider(), model.ErrConsistency)
	}
	return period, nil
}

// ParseYahoo parses a Yahoo Finance chart document.
func ParseYahoo(doc string) (*model.TradingPeriod, error) {
	return Parse(doc, NewYahooExtractor("", ""))
}
