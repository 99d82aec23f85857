package upstream

import "errors"

var (
	// ErrRateLimited indicates the operation is throttled by the upstream.
	// Callers should fall back to a stale cached value where one exists.
	ErrRateLimited = errors.New("upstream.rate_limited")
)
