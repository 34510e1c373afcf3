// Package ncei is a client for the NCEI Access Services search and data APIs.
package ncei

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/station-search/internal/resilience"
)

const (
	// DefaultBaseURL is the public Access Services root.
	DefaultBaseURL = "https://www.ncei.noaa.gov/access/services"

	// DefaultMinInterval is the minimum spacing between requests. The
	// service is shared and throttles aggressive callers.
	DefaultMinInterval = 100 * time.Millisecond

	searchPath = "/search/v1/data"
	dataPath   = "/data/v1"
)

// Client queries NCEI for stations and station data.
type Client interface {
	// SearchStations lists stations inside a bounding box for a dataset and
	// date range. An empty search is an empty result, not an error.
	SearchStations(ctx context.Context, req SearchRequest) (*SearchResult, error)

	// FetchData downloads daily records for one or more stations.
	FetchData(ctx context.Context, req DataRequest) (*DataResult, error)
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithBaseURL overrides the service root, mainly for tests.
func WithBaseURL(base string) Option {
	return func(c *HTTPClient) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// WithMinInterval sets the minimum delay enforced before every request.
func WithMinInterval(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.minInterval = d
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *HTTPClient) {
		c.retry = cfg
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// HTTPClient implements Client over net/http.
type HTTPClient struct {
	baseURL     string
	httpClient  *http.Client
	userAgent   string
	minInterval time.Duration
	limiter     *rate.Limiter
	retry       resilience.RetryConfig
}

// New creates an HTTPClient. Every request, retries included, waits on a
// limiter spaced at the minimum interval; the initial token is drained so
// the first request is delayed too.
func New(opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		userAgent:   "station-search/1.0",
		minInterval: DefaultMinInterval,
		retry:       resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.minInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(c.minInterval), 1)
		c.limiter.Allow()
	} else {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("ncei", "request")
	}
	return c
}

// get performs a rate limited GET with retries and returns the body of a
// 2xx response. Non-2xx responses become *APIError; retryable statuses are
// additionally marked transient.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "ncei: rate limit wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "ncei: build request")
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		zap.L().Debug("ncei: request", zap.String("url", reqURL))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "ncei: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrap(err, "ncei: read body"), resp.StatusCode)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := parseAPIError(resp.StatusCode, body)
			if resilience.RetryableStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(apiErr, resp.StatusCode)
			}
			return nil, apiErr
		}
		return body, nil
	})
}
