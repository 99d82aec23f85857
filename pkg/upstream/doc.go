// Package upstream wraps identity provider and tenant directory calls with
// rate-limit awareness.
//
// The Fetcher classifies failures into rate limits (absorbed via backoff
// bookkeeping, surfaced as ErrRateLimited so callers can serve stale cache)
// and fatal errors (propagated untouched). It never sleeps: instead of
// blocking, it records a not-before timestamp per operation key in a
// caller-owned State map and short-circuits calls that arrive inside the
// blocked window.
//
// The State map is request-scoped by construction — each request-scoped
// cache owns one — so one user's throttling never delays another's.
package upstream
