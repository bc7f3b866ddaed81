package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DefaultRetryAfter is the backoff applied when a rate-limit response does
// not carry a parseable suggested delay.
const DefaultRetryAfter = 10 * time.Second

// RateLimitError reports that the provider throttled the request. RetryAfter
// carries the server-suggested wait, or DefaultRetryAfter when the response
// did not include one.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// AsRateLimit reports whether err is (or wraps) a RateLimitError.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// Rate-limit messages suggest a wait like "Please try again in 3s" or
// "try again in 1.5s".
var retryAfterPattern = regexp.MustCompile(`(?i)try again in ([0-9]+(?:\.[0-9]+)?)s`)

// suggestedWait extracts the suggested retry delay from an error message,
// falling back to DefaultRetryAfter.
func suggestedWait(msg string) time.Duration {
	m := retryAfterPattern.FindStringSubmatch(msg)
	if m == nil {
		return DefaultRetryAfter
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return DefaultRetryAfter
	}
	return time.Duration(secs * float64(time.Second))
}
