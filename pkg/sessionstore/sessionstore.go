package sessionstore

import (
	"context"
	"time"
)

// SessionRecord is the durable per-user session state shared across process
// instances. The record is keyed by user ID; CurrentTenantID is only ever
// mutated while holding that user's switch lock.
type SessionRecord struct {
	UserID              string    `json:"user_id"`
	CurrentTenantID     string    `json:"current_tenant_id"`
	AccessibleTenantIDs []string  `json:"accessible_tenant_ids,omitempty"`
	LastActivityAt      time.Time `json:"last_activity_at"`
	Fingerprint         string    `json:"fingerprint,omitempty"`
	IPAddress           string    `json:"ip_address,omitempty"`
}

// Touch updates the last activity time.
func (r *SessionRecord) Touch() {
	if r == nil {
		return
	}
	r.LastActivityAt = time.Now()
}

// SwitchLock is the ephemeral mutual-exclusion record for an in-flight
// tenant switch. Existence of the lock key is the exclusion signal; the
// LockID lets only the acquirer release it.
type SwitchLock struct {
	UserID         string    `json:"user_id"`
	TargetTenantID string    `json:"target_tenant_id"`
	LockID         string    `json:"lock_id"`
	AcquiredAt     time.Time `json:"acquired_at"`
}

// Store is the distributed session store contract. Any backend offering
// atomic set-if-not-exists with TTL plus an atomic check-and-delete
// satisfies it; RedisStore is the production implementation and MemoryStore
// backs tests and single-process development.
type Store interface {
	// SetSession persists the session record with the given TTL,
	// overwriting any previous record for the user.
	SetSession(ctx context.Context, userID string, rec *SessionRecord, ttl time.Duration) error

	// GetSession loads the session record. Returns ErrSessionNotFound when
	// no record exists or it has expired.
	GetSession(ctx context.Context, userID string) (*SessionRecord, error)

	// DeleteSession removes the session record. Deleting a missing record
	// is not an error.
	DeleteSession(ctx context.Context, userID string) error

	// TryAcquireLock atomically acquires the tenant-switch lock for the
	// user with the given TTL. On success it returns a fresh lock ID. When
	// another switch is in flight it returns ErrLockDenied without
	// blocking.
	TryAcquireLock(ctx context.Context, userID, targetTenantID string, ttl time.Duration) (string, error)

	// ReleaseLock releases the lock only if lockID still matches the
	// stored lock. It reports whether a lock was actually released;
	// releasing an expired or reacquired lock is a no-op returning false.
	ReleaseLock(ctx context.Context, userID, lockID string) (bool, error)

	// ListActiveSessions enumerates all live session records. Meant for
	// operational reporting, not the request hot path.
	ListActiveSessions(ctx context.Context) ([]SessionRecord, error)
}

const (
	sessionKeyPrefix = "session:user:"
	lockKeyPrefix    = "lock:tenant_switch:"
)

func sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

func lockKey(userID string) string {
	return lockKeyPrefix + userID
}
