package upstream

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RateLimitError marks an upstream failure as a rate limit and optionally
// carries the upstream's retry-after hint. Adapters around the identity
// provider and tenant directory should return it when they can recognize a
// throttling response.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.Err == nil {
		return "rate limited"
	}
	return fmt.Sprintf("rate limited: %s", e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// statusCoder is satisfied by transport errors that expose an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// Message fragments that identify a throttling response when the upstream
// error carries no structured signal.
var rateLimitPatterns = []string{
	"rate limit",
	"too many requests",
	"throttl",
	"quota exceeded",
}

// Classify reports whether err carries rate-limit signals and returns the
// upstream's retry-after hint when one was supplied (zero otherwise).
// Recognized signals, in order: an explicit RateLimitError, a 429 or 503
// status code, and known message patterns.
func Classify(err error) (retryAfter time.Duration, limited bool) {
	if err == nil {
		return 0, false
	}

	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle.RetryAfter, true
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case 429, 503:
			return 0, true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range rateLimitPatterns {
		if strings.Contains(msg, pattern) {
			return 0, true
		}
	}

	return 0, false
}
