package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultUserAgent mimics a desktop browser; the anonymous JSON endpoints
// throttle obvious bot agents harder.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/66.0.3359.181 Safari/537.36"

const (
	mediaTypeJSON = "application/json"
	mediaTypeAny  = "*/*"
)

// Client performs paced GET requests and classifies failures.
// It never retries.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     *slog.Logger
}

// NewClient builds a Client. An interval of zero disables pacing and a
// timeout of zero keeps the transport default.
func NewClient(userAgent string, interval, timeout time.Duration, logger *slog.Logger) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Get fetches url and returns the body of a 200 response.
func (c *Client) Get(ctx context.Context, url, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("HTTP GET", "url", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failure to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		if header := resp.Header.Get("Retry-After"); header != "" {
			return nil, &RateLimitError{URL: url, RetryAfter: parseRetryAfter(header), Header: header}
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Reason: reason(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", url, err)
	}
	return body, nil
}

// FetchJSON decodes the JSON body at url into v.
func (c *Client) FetchJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url, mediaTypeJSON)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedBody, url, err)
	}
	return nil
}

// FetchBytes returns the raw body at url.
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	return c.Get(ctx, url, mediaTypeAny)
}

func reason(resp *http.Response) string {
	r := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	if r = strings.TrimSpace(r); r != "" {
		return r
	}
	return http.StatusText(resp.StatusCode)
}

// parseRetryAfter accepts delay-seconds or an HTTP date. Unparseable values
// yield zero; the raw header is kept on the error either way.
func parseRetryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
