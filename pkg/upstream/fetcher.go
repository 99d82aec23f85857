package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leaddesk/authkit/pkg/backoff"
)

// RateLimitState tracks consecutive rate-limit failures for one operation.
type RateLimitState struct {
	Attempts      int
	WindowResetAt time.Time
}

// State maps operation keys to their rate-limit state. A State belongs to
// exactly one request; it is owned by the caller and never shared.
type State map[string]*RateLimitState

// NewState returns an empty per-request rate-limit state map.
func NewState() State {
	return make(State)
}

// Config holds fetcher retry settings.
type Config struct {
	MaxRetries int           `env:"UPSTREAM_MAX_RETRIES" envDefault:"3"`
	BaseDelay  time.Duration `env:"UPSTREAM_BASE_DELAY" envDefault:"1s"`
	MaxDelay   time.Duration `env:"UPSTREAM_MAX_DELAY" envDefault:"8s"`
}

// DefaultConfig returns the default fetcher configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   8 * time.Second,
	}
}

// Fetcher wraps calls to the identity provider and tenant directory with
// rate-limit classification and exponential backoff bookkeeping. The fetcher
// itself is stateless; all mutable state lives in the caller-supplied State.
type Fetcher struct {
	cfg      Config
	strategy backoff.Strategy
	log      *slog.Logger
	now      func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithStrategy overrides the backoff strategy.
func WithStrategy(s backoff.Strategy) Option {
	return func(f *Fetcher) {
		if s != nil {
			f.strategy = s
		}
	}
}

// WithLogger supplies a logger for rate-limit events.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// New creates a Fetcher from the given config.
func New(cfg Config, opts ...Option) *Fetcher {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	f := &Fetcher{
		cfg: cfg,
		strategy: backoff.Exponential{
			Base:       cfg.BaseDelay,
			Max:        cfg.MaxDelay,
			Multiplier: 2,
		},
		log: slog.New(slog.DiscardHandler),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Do invokes fn unless operationKey is currently rate limited.
//
// Success clears any backoff state for the key. A failure classified as a
// rate limit records the attempt, computes the next allowed attempt time
// (retry-after hint wins over the backoff strategy), and returns
// ErrRateLimited so the caller can attempt a stale-cache fallback. Any other
// failure propagates unchanged. When the key has exhausted MaxRetries and
// the window has not reset yet, fn is not invoked at all.
func Do[T any](ctx context.Context, f *Fetcher, state State, operationKey string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	now := f.now()
	if st, ok := state[operationKey]; ok {
		if now.Before(st.WindowResetAt) && st.Attempts >= f.cfg.MaxRetries {
			return zero, fmt.Errorf("%w: operation %q blocked until %s",
				ErrRateLimited, operationKey, st.WindowResetAt.Format(time.RFC3339))
		}
	}

	v, err := fn(ctx)
	if err == nil {
		delete(state, operationKey)
		return v, nil
	}

	retryAfter, limited := Classify(err)
	if !limited {
		return zero, err
	}

	st, ok := state[operationKey]
	if !ok {
		st = &RateLimitState{}
		state[operationKey] = st
	}
	st.Attempts++

	delay := retryAfter
	if delay <= 0 {
		delay = f.strategy.NextDelay(st.Attempts)
	}
	st.WindowResetAt = now.Add(delay)

	f.log.WarnContext(ctx, "upstream rate limited",
		slog.String("operation", operationKey),
		slog.Int("attempts", st.Attempts),
		slog.Duration("retry_in", delay),
	)

	return zero, errors.Join(ErrRateLimited, err)
}
