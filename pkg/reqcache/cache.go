package reqcache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/leaddesk/authkit/pkg/fingerprint"
	"github.com/leaddesk/authkit/pkg/upstream"
)

// Recorder receives cache observability events. Implementations must not
// block; every hit and miss on the hot path passes through here.
type Recorder interface {
	CacheHit(ctx context.Context, requestID, key string)
	CacheMiss(ctx context.Context, requestID, key string)
	FingerprintMismatch(ctx context.Context, requestID, key string)
}

// Config holds cache freshness settings.
type Config struct {
	// FreshTTL is how long an entry is served unconditionally.
	FreshTTL time.Duration `env:"SESSION_FRESH_TTL" envDefault:"15m"`
	// StaleTTL is the additional grace window during which an entry is
	// served only as a fallback when the upstream is rate limited.
	StaleTTL time.Duration `env:"SESSION_STALE_TTL" envDefault:"5m"`
}

// DefaultConfig returns the default freshness windows.
func DefaultConfig() Config {
	return Config{
		FreshTTL: 15 * time.Minute,
		StaleTTL: 5 * time.Minute,
	}
}

type entry struct {
	value       any
	fetchedAt   time.Time
	fingerprint string
}

// Cache is a request-scoped lookup cache for resolved principals and tenant
// lists. A Cache must be constructed fresh for every inbound request and
// discarded when the request completes; it is never stored in a package
// variable or shared between requests. The cache also owns the request's
// upstream rate-limit state, so throttling bookkeeping dies with the request
// too.
type Cache struct {
	mu          sync.Mutex
	requestID   string
	fingerprint string
	entries     map[string]entry
	state       upstream.State
	fetcher     *upstream.Fetcher
	recorder    Recorder
	cfg         Config
	now         func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithFetcher sets the rate-limited fetcher used on misses.
func WithFetcher(f *upstream.Fetcher) Option {
	return func(c *Cache) {
		if f != nil {
			c.fetcher = f
		}
	}
}

// WithRecorder sets the diagnostic sink for hit/miss events.
func WithRecorder(r Recorder) Option {
	return func(c *Cache) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithConfig overrides the freshness windows.
func WithConfig(cfg Config) Option {
	return func(c *Cache) {
		if cfg.FreshTTL > 0 {
			c.cfg.FreshTTL = cfg.FreshTTL
		}
		if cfg.StaleTTL > 0 {
			c.cfg.StaleTTL = cfg.StaleTTL
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache bound to one request. requestID identifies the request
// for diagnostics; fp is the client fingerprint every cached entry is
// validated against before being served.
func New(requestID, fp string, opts ...Option) *Cache {
	c := &Cache{
		requestID:   requestID,
		fingerprint: fp,
		entries:     make(map[string]entry),
		state:       upstream.NewState(),
		fetcher:     upstream.New(upstream.DefaultConfig()),
		recorder:    noopRecorder{},
		cfg:         DefaultConfig(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestID returns the request this cache belongs to.
func (c *Cache) RequestID() string {
	return c.requestID
}

// Fingerprint returns the client fingerprint the cache validates against.
func (c *Cache) Fingerprint() string {
	return c.fingerprint
}

// Fetcher returns the rate-limited fetcher bound to this cache.
func (c *Cache) Fetcher() *upstream.Fetcher {
	return c.fetcher
}

// State returns the request-scoped rate-limit state map.
func (c *Cache) State() upstream.State {
	return c.state
}

// FetchedAt reports when the entry under key was fetched. The second return
// is false when no entry exists.
func (c *Cache) FetchedAt(key string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return e.fetchedAt, true
}

// GetOrFetch returns the cached value under key when it is fresh and its
// fingerprint matches the request's, otherwise fetches through the
// rate-limited fetcher and caches the result.
//
// A fingerprint mismatch is treated as a miss and reported to the recorder
// as an anomaly candidate. When the fetch is rate limited, a stale (but not
// void) entry with a matching fingerprint is served instead; with no such
// entry the rate-limit error propagates and the caller decides — for
// principal resolution that means deny, never serve someone else's data.
func GetOrFetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	// The fingerprint attached to the context wins over the one captured at
	// construction: if a cache instance ever leaks across requests, the two
	// disagree and the mismatch tripwire below fires.
	currentFP := fingerprint.FromContext(ctx)
	if currentFP == "" {
		currentFP = c.fingerprint
	}

	c.mu.Lock()
	now := c.now()

	mismatch := false
	e, exists := c.entries[key]
	if exists {
		age := now.Sub(e.fetchedAt)
		switch {
		case age >= c.cfg.FreshTTL+c.cfg.StaleTTL:
			// Void entries must never be served. Purge immediately.
			delete(c.entries, key)
			exists = false
		case e.fingerprint != currentFP:
			delete(c.entries, key)
			exists = false
			mismatch = true
		case age < c.cfg.FreshTTL:
			if v, ok := e.value.(T); ok {
				c.mu.Unlock()
				c.recorder.CacheHit(ctx, c.requestID, key)
				return v, nil
			}
			// Type mismatch between callers of the same key.
			delete(c.entries, key)
			exists = false
		}
	}
	c.mu.Unlock()

	if mismatch {
		c.recorder.FingerprintMismatch(ctx, c.requestID, key)
	}
	c.recorder.CacheMiss(ctx, c.requestID, key)

	v, err := upstream.Do(ctx, c.fetcher, c.state, key, fn)
	if err == nil {
		c.mu.Lock()
		c.entries[key] = entry{value: v, fetchedAt: now, fingerprint: currentFP}
		c.mu.Unlock()
		return v, nil
	}

	// Stale fallback applies only to rate limiting; fatal upstream errors
	// must not be papered over with old data.
	if errors.Is(err, upstream.ErrRateLimited) && exists {
		if stale, ok := e.value.(T); ok {
			return stale, nil
		}
	}

	return zero, err
}

type noopRecorder struct{}

func (noopRecorder) CacheHit(context.Context, string, string)            {}
func (noopRecorder) CacheMiss(context.Context, string, string)           {}
func (noopRecorder) FingerprintMismatch(context.Context, string, string) {}
