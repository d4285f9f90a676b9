package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"CandleKeeper/internal/parser"
)

// DefaultPolygonBaseURL is the Polygon.io REST host.
const DefaultPolygonBaseURL = "https://api.polygon.io"

// PolygonFetcher implements Fetcher using the Polygon.io aggregates API.
type PolygonFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Now     func() time.Time
}

// NewPolygonFetcher creates a new fetcher with optional proxy support.
func NewPolygonFetcher(baseURL, apiKey, proxyURL string) *PolygonFetcher {
	if baseURL == "" {
		baseURL = DefaultPolygonBaseURL
	}
	return &PolygonFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
		Now:     time.Now,
	}
}

func (f *PolygonFetcher) Name() string { return parser.ProviderPolygon }

// polygonTimespans maps chart intervals to an aggregate multiplier and timespan.
var polygonTimespans = map[string]struct {
	mult     int
	timespan string
}{
	"1m":  {1, "minute"},
	"2m":  {2, "minute"},
	"5m":  {5, "minute"},
	"15m": {15, "minute"},
	"30m": {30, "minute"},
	"60m": {1, "hour"},
	"90m": {90, "minute"},
	"1h":  {1, "hour"},
	"1d":  {1, "day"},
	"5d":  {5, "day"},
	"1wk": {1, "week"},
	"1mo": {1, "month"},
	"3mo": {1, "quarter"},
}

// rangeStart returns the first day covered by a chart range ending at now.
func rangeStart(rng string, now time.Time) (time.Time, bool) {
	switch rng {
	case "1d":
		return now.AddDate(0, 0, -1), true
	case "5d":
		return now.AddDate(0, 0, -5), true
	case "1mo":
		return now.AddDate(0, -1, 0), true
	case "3mo":
		return now.AddDate(0, -3, 0), true
	case "6mo":
		return now.AddDate(0, -6, 0), true
	case "1y":
		return now.AddDate(-1, 0, 0), true
	case "2y":
		return now.AddDate(-2, 0, 0), true
	case "5y":
		return now.AddDate(-5, 0, 0), true
	case "10y":
		return now.AddDate(-10, 0, 0), true
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), true
	case "max":
		return time.Unix(0, 0).UTC(), true
	}
	return time.Time{}, false
}

// FetchData returns the /v2/aggs document for symbol over rng at interval.
func (f *PolygonFetcher) FetchData(ctx context.Context, symbol, rng, interval string) (string, error) {
	span, ok := polygonTimespans[interval]
	if !ok {
		return "", fmt.Errorf("%w: polygon has no timespan for interval %q", ErrInvalidRequest, interval)
	}
	now := f.Now().UTC()
	from, ok := rangeStart(rng, now)
	if !ok {
		return "", fmt.Errorf("%w: polygon has no window for range %q", ErrInvalidRequest, rng)
	}

	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/%s/%s/%s?adjusted=true&sort=asc&limit=50000",
		f.BaseURL, url.PathEscape(symbol), span.mult, span.timespan,
		from.Format(time.DateOnly), now.Format(time.DateOnly))

	header := http.Header{}
	if f.APIKey != "" {
		header.Set("Authorization", "Bearer "+f.APIKey)
	}

	body, err := getDocument(ctx, f.Client, "polygon", endpoint, header, "error")
	if err != nil {
		return "", err
	}
	switch status := gjson.GetBytes(body, "status").String(); status {
	case "OK", "DELAYED", "":
	default:
		msg := gjson.GetBytes(body, "message").String()
		return "", fmt.Errorf("%w: polygon status %s: %s", ErrFetch, status, msg)
	}
	return string(body), nil
}
