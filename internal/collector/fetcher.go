package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

var (
	// ErrFetch reports a network failure, a non-200 status, or a response
	// that is empty, malformed, or an error envelope from the provider.
	ErrFetch = errors.New("fetch error")
	// ErrInvalidRequest reports a symbol, range, or interval rejected before fetching.
	ErrInvalidRequest = errors.New("invalid request")
)

// Fetcher retrieves one raw chart document from an upstream provider.
// Name returns the provider identifier understood by parser.NewExtractor.
type Fetcher interface {
	FetchData(ctx context.Context, symbol, rng, interval string) (string, error)
	Name() string
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// getDocument performs the GET and returns the body once it is known to be
// a non-empty JSON document. errorPath locates the provider's error message,
// which is reported for both non-200 and 200 responses.
func getDocument(ctx context.Context, client *http.Client, provider, endpoint string, header http.Header, errorPath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: build request: %v", ErrFetch, provider, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrFetch, provider, err)
	}

	apiErr := ""
	if gjson.ValidBytes(body) {
		if r := gjson.GetBytes(body, errorPath); r.Exists() && r.String() != "" {
			apiErr = r.String()
		}
	}

	if resp.StatusCode != http.StatusOK {
		if apiErr != "" {
			return nil, fmt.Errorf("%w: %s: status %d: %s", ErrFetch, provider, resp.StatusCode, apiErr)
		}
		return nil, fmt.Errorf("%w: %s: status %d, body: %s", ErrFetch, provider, resp.StatusCode, truncate(body, 200))
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: %s: empty response body", ErrFetch, provider)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s: malformed JSON response", ErrFetch, provider)
	}
	if apiErr != "" {
		return nil, fmt.Errorf("%w: %s api error: %s", ErrFetch, provider, apiErr)
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
