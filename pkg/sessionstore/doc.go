// Package sessionstore persists durable session state and tenant-switch
// locks in a distributed key-value store shared by all process instances.
//
// The store is the single source of truth for "which tenant is active" and
// "is a switch in flight". Session records live under session:user:{userID}
// with a sliding TTL; switch locks live under lock:tenant_switch:{userID}
// with a short TTL that bounds the damage of a crashed lock holder.
//
// Lock semantics: acquisition is a single atomic set-if-not-exists with TTL,
// release is a single atomic compare-and-delete keyed on the lock ID handed
// out at acquisition. Acquisition never blocks — a held lock means the
// caller is told ErrLockDenied immediately.
//
//	client, err := sessionstore.Connect(ctx, cfg)
//	if err != nil { ... }
//	store := sessionstore.NewRedisStore(client, cfg)
//
//	lockID, err := store.TryAcquireLock(ctx, userID, targetTenant, cfg.LockTTL)
//	if err != nil { ... }
//	defer store.ReleaseLock(ctx, userID, lockID)
package sessionstore
