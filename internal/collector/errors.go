package collector

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedBody is returned when a successful response does not decode.
var ErrMalformedBody = errors.New("malformed response body")

// StatusError is a response with any status other than 200.
type StatusError struct {
	URL        string
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failure to fetch data. Code: %d, Reason: %s, Url: %s", e.StatusCode, e.Reason, e.URL)
}

// RateLimitError is a 429 response that carried a Retry-After header.
// Nothing retries it; the crawl of the current target stops.
type RateLimitError struct {
	URL        string
	RetryAfter time.Duration
	Header     string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s (Retry-After: %q), Url: %s", e.RetryAfter, e.Header, e.URL)
}

// IsRateLimited reports whether err wraps a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
