package upstream_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaddesk/authkit/pkg/upstream"
)

func newTestFetcher(now time.Time) *upstream.Fetcher {
	return upstream.New(upstream.DefaultConfig(), upstream.WithClock(func() time.Time { return now }))
}

func TestDo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns value and clears state on success", func(t *testing.T) {
		t.Parallel()

		f := newTestFetcher(time.Now())
		state := upstream.NewState()
		state["op"] = &upstream.RateLimitState{Attempts: 2, WindowResetAt: time.Now().Add(-time.Minute)}

		v, err := upstream.Do(ctx, f, state, "op", func(context.Context) (string, error) {
			return "value", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "value", v)
		assert.NotContains(t, state, "op")
	})

	t.Run("fatal errors propagate unchanged", func(t *testing.T) {
		t.Parallel()

		f := newTestFetcher(time.Now())
		state := upstream.NewState()
		fatal := errors.New("connection refused")

		_, err := upstream.Do(ctx, f, state, "op", func(context.Context) (string, error) {
			return "", fatal
		})
		require.ErrorIs(t, err, fatal)
		assert.NotErrorIs(t, err, upstream.ErrRateLimited)
		assert.Empty(t, state)
	})

	t.Run("rate limit records backoff window", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		f := newTestFetcher(now)
		state := upstream.NewState()

		_, err := upstream.Do(ctx, f, state, "op", func(context.Context) (string, error) {
			return "", &upstream.RateLimitError{Err: errors.New("429")}
		})
		require.ErrorIs(t, err, upstream.ErrRateLimited)

		st := state["op"]
		require.NotNil(t, st)
		assert.Equal(t, 1, st.Attempts)
		assert.Equal(t, now.Add(time.Second), st.WindowResetAt)
	})

	t.Run("retry-after hint overrides strategy", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		f := newTestFetcher(now)
		state := upstream.NewState()

		_, err := upstream.Do(ctx, f, state, "op", func(context.Context) (string, error) {
			return "", &upstream.RateLimitError{RetryAfter: 42 * time.Second}
		})
		require.ErrorIs(t, err, upstream.ErrRateLimited)
		assert.Equal(t, now.Add(42*time.Second), state["op"].WindowResetAt)
	})

	t.Run("short-circuits after max retries inside window", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		f := newTestFetcher(now)
		state := upstream.NewState()
		state["op"] = &upstream.RateLimitState{Attempts: 3, WindowResetAt: now.Add(time.Minute)}

		called := false
		_, err := upstream.Do(ctx, f, state, "op", func(context.Context) (string, error) {
			called = true
			return "value", nil
		})
		require.ErrorIs(t, err, upstream.ErrRateLimited)
		assert.False(t, called)
	})

	t.Run("calls again once window has passed", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		f := newTestFetcher(now)
		state := upstream.NewState()
		state["op"] = &upstream.RateLimitState{Attempts: 3, WindowResetAt: now.Add(-time.Second)}

		v, err := upstream.Do(ctx, f, state, "op", func(context.Context) (string, error) {
			return "recovered", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "recovered", v)
	})

	t.Run("attempts below max retry immediately", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		f := newTestFetcher(now)
		state := upstream.NewState()
		state["op"] = &upstream.RateLimitState{Attempts: 1, WindowResetAt: now.Add(time.Minute)}

		called := false
		_, err := upstream.Do(ctx, f, state, "op", func(context.Context) (string, error) {
			called = true
			return "value", nil
		})
		require.NoError(t, err)
		assert.True(t, called)
	})
}

func TestClassify(t *testing.T) {
	t.Parallel()

	t.Run("rate limit error with hint", func(t *testing.T) {
		t.Parallel()

		retryAfter, limited := upstream.Classify(&upstream.RateLimitError{RetryAfter: 5 * time.Second})
		assert.True(t, limited)
		assert.Equal(t, 5*time.Second, retryAfter)
	})

	t.Run("wrapped rate limit error", func(t *testing.T) {
		t.Parallel()

		wrapped := errors.Join(errors.New("directory call failed"), &upstream.RateLimitError{RetryAfter: time.Second})
		retryAfter, limited := upstream.Classify(wrapped)
		assert.True(t, limited)
		assert.Equal(t, time.Second, retryAfter)
	})

	t.Run("message patterns", func(t *testing.T) {
		t.Parallel()

		for _, msg := range []string{
			"upstream returned: Too Many Requests",
			"request throttled",
			"rate limit exceeded for key",
			"quota exceeded",
		} {
			_, limited := upstream.Classify(errors.New(msg))
			assert.True(t, limited, msg)
		}
	})

	t.Run("fatal errors are not limited", func(t *testing.T) {
		t.Parallel()

		_, limited := upstream.Classify(errors.New("invalid credential"))
		assert.False(t, limited)

		_, limited = upstream.Classify(nil)
		assert.False(t, limited)
	})
}
