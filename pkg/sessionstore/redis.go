package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when the stored lock ID matches
// the caller's. Check and delete must be one atomic step so an expired lock
// that another attempt has since reacquired cannot be released by the stale
// holder.
var releaseScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
	return 0
end
local lock = cjson.decode(raw)
if lock.lock_id == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore implements Store on a Redis-compatible server. Lock acquisition
// maps to SET NX EX, release to a server-side script, and session records to
// JSON values with a sliding TTL.
type RedisStore struct {
	client    redis.UniversalClient
	opTimeout time.Duration
	scanCount int64
}

// NewRedisStore wraps the given client. cfg supplies the per-operation
// timeout; TTLs are passed per call by the owners of each record type.
func NewRedisStore(client redis.UniversalClient, cfg Config) *RedisStore {
	opTimeout := cfg.OpTimeout
	if opTimeout <= 0 {
		opTimeout = 2 * time.Second
	}
	return &RedisStore{
		client:    client,
		opTimeout: opTimeout,
		scanCount: 100,
	}
}

func (s *RedisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// SetSession persists the record under session:user:{userID} with the given
// TTL. Every write resets the TTL, giving the record a sliding expiry.
func (s *RedisStore) SetSession(ctx context.Context, userID string, rec *SessionRecord, ttl time.Duration) error {
	if rec == nil || userID == "" {
		return ErrInvalidRecord
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Set(ctx, sessionKey(userID), payload, ttl).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) GetSession(ctx context.Context, userID string) (*SessionRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var rec SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errors.Join(ErrInvalidRecord, err)
	}
	return &rec, nil
}

func (s *RedisStore) DeleteSession(ctx context.Context, userID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// TryAcquireLock performs an atomic set-if-not-exists with TTL on
// lock:tenant_switch:{userID}. The TTL is the backstop against a crashed
// holder; there is no lock extension.
func (s *RedisStore) TryAcquireLock(ctx context.Context, userID, targetTenantID string, ttl time.Duration) (string, error) {
	lock := SwitchLock{
		UserID:         userID,
		TargetTenantID: targetTenantID,
		LockID:         uuid.New().String(),
		AcquiredAt:     time.Now(),
	}

	payload, err := json.Marshal(lock)
	if err != nil {
		return "", err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ok, err := s.client.SetNX(ctx, lockKey(userID), payload, ttl).Result()
	if err != nil {
		return "", errors.Join(ErrStoreUnavailable, err)
	}
	if !ok {
		return "", ErrLockDenied
	}
	return lock.LockID, nil
}

// ReleaseLock runs the atomic check-and-delete script. A second release with
// the same arguments finds no matching lock and reports false without error.
func (s *RedisStore) ReleaseLock(ctx context.Context, userID, lockID string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	deleted, err := releaseScript.Run(ctx, s.client, []string{lockKey(userID)}, lockID).Int()
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}
	return deleted == 1, nil
}

// ListActiveSessions walks the session key space with SCAN and loads each
// record. Records that expire mid-scan are skipped.
func (s *RedisStore) ListActiveSessions(ctx context.Context) ([]SessionRecord, error) {
	var (
		sessions []SessionRecord
		cursor   uint64
	)

	for {
		scanCtx, cancel := s.withTimeout(ctx)
		keys, next, err := s.client.Scan(scanCtx, cursor, sessionKeyPrefix+"*", s.scanCount).Result()
		cancel()
		if err != nil {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}

		for _, key := range keys {
			getCtx, cancel := s.withTimeout(ctx)
			raw, err := s.client.Get(getCtx, key).Bytes()
			cancel()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return nil, errors.Join(ErrStoreUnavailable, err)
			}

			var rec SessionRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				continue
			}
			sessions = append(sessions, rec)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return sessions, nil
}
