package sessionstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaddesk/authkit/pkg/sessionstore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func TestMemoryStore_Sessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("set and get round-trip", func(t *testing.T) {
		t.Parallel()

		store := sessionstore.NewMemoryStore()
		rec := &sessionstore.SessionRecord{
			UserID:              "u1",
			CurrentTenantID:     "t1",
			AccessibleTenantIDs: []string{"t1", "t2"},
			LastActivityAt:      time.Now(),
			Fingerprint:         "fp",
			IPAddress:           "203.0.113.7",
		}

		require.NoError(t, store.SetSession(ctx, "u1", rec, time.Hour))

		got, err := store.GetSession(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, rec.CurrentTenantID, got.CurrentTenantID)
		assert.Equal(t, rec.AccessibleTenantIDs, got.AccessibleTenantIDs)

		// The returned record is a copy; mutating it must not touch the store.
		got.CurrentTenantID = "t2"
		again, err := store.GetSession(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "t1", again.CurrentTenantID)
	})

	t.Run("missing session", func(t *testing.T) {
		t.Parallel()

		store := sessionstore.NewMemoryStore()
		_, err := store.GetSession(ctx, "ghost")
		assert.ErrorIs(t, err, sessionstore.ErrSessionNotFound)
	})

	t.Run("session expires with TTL", func(t *testing.T) {
		t.Parallel()

		clk := newFakeClock()
		store := sessionstore.NewMemoryStore(sessionstore.WithClock(clk.Now))

		require.NoError(t, store.SetSession(ctx, "u1", &sessionstore.SessionRecord{UserID: "u1"}, time.Hour))
		clk.Advance(2 * time.Hour)

		_, err := store.GetSession(ctx, "u1")
		assert.ErrorIs(t, err, sessionstore.ErrSessionNotFound)
	})

	t.Run("nil record rejected", func(t *testing.T) {
		t.Parallel()

		store := sessionstore.NewMemoryStore()
		assert.ErrorIs(t, store.SetSession(ctx, "u1", nil, time.Hour), sessionstore.ErrInvalidRecord)
	})

	t.Run("list active sessions skips expired", func(t *testing.T) {
		t.Parallel()

		clk := newFakeClock()
		store := sessionstore.NewMemoryStore(sessionstore.WithClock(clk.Now))

		require.NoError(t, store.SetSession(ctx, "u1", &sessionstore.SessionRecord{UserID: "u1"}, time.Minute))
		require.NoError(t, store.SetSession(ctx, "u2", &sessionstore.SessionRecord{UserID: "u2"}, time.Hour))
		clk.Advance(30 * time.Minute)

		sessions, err := store.ListActiveSessions(ctx)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "u2", sessions[0].UserID)
	})
}

func TestMemoryStore_Locks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("second acquire denied while held", func(t *testing.T) {
		t.Parallel()

		store := sessionstore.NewMemoryStore()

		lockID, err := store.TryAcquireLock(ctx, "u1", "t1", 30*time.Second)
		require.NoError(t, err)
		require.NotEmpty(t, lockID)

		_, err = store.TryAcquireLock(ctx, "u1", "t2", 30*time.Second)
		assert.ErrorIs(t, err, sessionstore.ErrLockDenied)
	})

	t.Run("locks for different users are independent", func(t *testing.T) {
		t.Parallel()

		store := sessionstore.NewMemoryStore()

		_, err := store.TryAcquireLock(ctx, "u1", "t1", 30*time.Second)
		require.NoError(t, err)

		_, err = store.TryAcquireLock(ctx, "u2", "t1", 30*time.Second)
		assert.NoError(t, err)
	})

	t.Run("lock acquirable again after TTL", func(t *testing.T) {
		t.Parallel()

		clk := newFakeClock()
		store := sessionstore.NewMemoryStore(sessionstore.WithClock(clk.Now))

		_, err := store.TryAcquireLock(ctx, "u1", "t1", 30*time.Second)
		require.NoError(t, err)

		// One second past the TTL the abandoned lock must be reacquirable.
		clk.Advance(31 * time.Second)
		lockID, err := store.TryAcquireLock(ctx, "u1", "t2", 30*time.Second)
		require.NoError(t, err)
		assert.NotEmpty(t, lockID)
	})

	t.Run("release requires matching lock id", func(t *testing.T) {
		t.Parallel()

		store := sessionstore.NewMemoryStore()

		lockID, err := store.TryAcquireLock(ctx, "u1", "t1", 30*time.Second)
		require.NoError(t, err)

		released, err := store.ReleaseLock(ctx, "u1", "wrong-id")
		require.NoError(t, err)
		assert.False(t, released)

		released, err = store.ReleaseLock(ctx, "u1", lockID)
		require.NoError(t, err)
		assert.True(t, released)
	})

	t.Run("release is idempotent", func(t *testing.T) {
		t.Parallel()

		store := sessionstore.NewMemoryStore()

		lockID, err := store.TryAcquireLock(ctx, "u1", "t1", 30*time.Second)
		require.NoError(t, err)

		released, err := store.ReleaseLock(ctx, "u1", lockID)
		require.NoError(t, err)
		assert.True(t, released)

		released, err = store.ReleaseLock(ctx, "u1", lockID)
		require.NoError(t, err)
		assert.False(t, released)
	})

	t.Run("stale release cannot free a reacquired lock", func(t *testing.T) {
		t.Parallel()

		clk := newFakeClock()
		store := sessionstore.NewMemoryStore(sessionstore.WithClock(clk.Now))

		staleID, err := store.TryAcquireLock(ctx, "u1", "t1", 30*time.Second)
		require.NoError(t, err)

		clk.Advance(31 * time.Second)
		freshID, err := store.TryAcquireLock(ctx, "u1", "t2", 30*time.Second)
		require.NoError(t, err)

		released, err := store.ReleaseLock(ctx, "u1", staleID)
		require.NoError(t, err)
		assert.False(t, released)

		held, ok := store.HeldLock("u1")
		require.True(t, ok)
		assert.Equal(t, freshID, held.LockID)
	})

	t.Run("concurrent acquires admit exactly one", func(t *testing.T) {
		t.Parallel()

		store := sessionstore.NewMemoryStore()

		const attempts = 50
		var wg sync.WaitGroup
		results := make(chan error, attempts)

		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.TryAcquireLock(ctx, "u1", "t1", 30*time.Second)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		acquired := 0
		for err := range results {
			if err == nil {
				acquired++
			} else {
				assert.ErrorIs(t, err, sessionstore.ErrLockDenied)
			}
		}
		assert.Equal(t, 1, acquired)
	})
}
