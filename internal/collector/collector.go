package collector

import (
	"context"
	"fmt"

	"CandleKeeper/internal/model"
	"CandleKeeper/internal/parser"
)

// MockFetcher returns canned documents for development and testing.
type MockFetcher struct {
	Provider  string            // defaults to "yahoo"
	Documents map[string]string // keyed by symbol
	Err       error
	Calls     int
}

func (m *MockFetcher) Name() string {
	if m.Provider == "" {
		return parser.ProviderYahoo
	}
	return m.Provider
}

func (m *MockFetcher) FetchData(_ context.Context, symbol, _, _ string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	doc, ok := m.Documents[symbol]
	if !ok {
		return "", fmt.Errorf("%w: mock: no document for %s", ErrFetch, symbol)
	}
	return doc, nil
}

// Collector validates a request, fetches the document and parses it.
type Collector struct {
	Fetcher   Fetcher
	Validator Validator
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// Collect returns the trading period for symbol over rng at interval.
func (c *Collector) Collect(ctx context.Context, symbol, rng, interval string) (*model.TradingPeriod, error) {
	if err := c.Validator.Validate(symbol, rng, interval); err != nil {
		return nil, err
	}

	doc, err := c.Fetcher.FetchData(ctx, symbol, rng, interval)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	ex, err := parser.NewExtractor(c.Fetcher.Name(), rng, interval)
	if err != nil {
		return nil, err
	}
	period, err := parser.Parse(doc, ex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	return period, nil
}
