package sessionstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memSession struct {
	rec       SessionRecord
	expiresAt time.Time
}

type memLock struct {
	lock      SwitchLock
	expiresAt time.Time
}

// MemoryStore implements Store with process-local maps. It honors the same
// TTL semantics as RedisStore and exists for tests and single-process
// development; it cannot provide cross-process exclusion.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memSession
	locks    map[string]memLock
	now      func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		sessions: make(map[string]memSession),
		locks:    make(map[string]memLock),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryStore) SetSession(ctx context.Context, userID string, rec *SessionRecord, ttl time.Duration) error {
	if rec == nil || userID == "" {
		return ErrInvalidRecord
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *rec
	cp.AccessibleTenantIDs = slices.Clone(rec.AccessibleTenantIDs)
	m.sessions[userID] = memSession{rec: cp, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, userID string) (*SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.now().After(entry.expiresAt) {
		delete(m.sessions, userID)
		return nil, ErrSessionNotFound
	}

	cp := entry.rec
	cp.AccessibleTenantIDs = slices.Clone(entry.rec.AccessibleTenantIDs)
	return &cp, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}

func (m *MemoryStore) TryAcquireLock(ctx context.Context, userID, targetTenantID string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if held, ok := m.locks[userID]; ok && now.Before(held.expiresAt) {
		return "", ErrLockDenied
	}

	lock := SwitchLock{
		UserID:         userID,
		TargetTenantID: targetTenantID,
		LockID:         uuid.New().String(),
		AcquiredAt:     now,
	}
	m.locks[userID] = memLock{lock: lock, expiresAt: now.Add(ttl)}
	return lock.LockID, nil
}

func (m *MemoryStore) ReleaseLock(ctx context.Context, userID, lockID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	held, ok := m.locks[userID]
	if !ok || m.now().After(held.expiresAt) || held.lock.LockID != lockID {
		return false, nil
	}

	delete(m.locks, userID)
	return true, nil
}

func (m *MemoryStore) ListActiveSessions(ctx context.Context) ([]SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	sessions := make([]SessionRecord, 0, len(m.sessions))
	for userID, entry := range m.sessions {
		if now.After(entry.expiresAt) {
			delete(m.sessions, userID)
			continue
		}
		cp := entry.rec
		cp.AccessibleTenantIDs = slices.Clone(entry.rec.AccessibleTenantIDs)
		sessions = append(sessions, cp)
	}
	return sessions, nil
}

// HeldLock reports the live switch lock for a user, if any. Test helper.
func (m *MemoryStore) HeldLock(userID string) (SwitchLock, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	held, ok := m.locks[userID]
	if !ok || m.now().After(held.expiresAt) {
		return SwitchLock{}, false
	}
	return held.lock, true
}
