package switcher

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/leaddesk/authkit/pkg/logger"
	"github.com/leaddesk/authkit/pkg/principal"
	"github.com/leaddesk/authkit/pkg/reqcache"
	"github.com/leaddesk/authkit/pkg/sessionstore"
	"github.com/leaddesk/authkit/pkg/statemachine"
)

// Switch attempt states.
const (
	StateRequested        statemachine.State = "requested"
	StateLockAcquired     statemachine.State = "lock_acquired"
	StateValidating       statemachine.State = "validating"
	StateApplying         statemachine.State = "applying"
	StateCommitted        statemachine.State = "committed"
	StateLockDenied       statemachine.State = "lock_denied"
	StateValidationFailed statemachine.State = "validation_failed"
	StateApplyFailed      statemachine.State = "apply_failed"
)

const (
	eventAcquire  statemachine.Event = "acquire"
	eventDeny     statemachine.Event = "deny"
	eventValidate statemachine.Event = "validate"
	eventReject   statemachine.Event = "reject"
	eventApply    statemachine.Event = "apply"
	eventFail     statemachine.Event = "fail"
	eventCommit   statemachine.Event = "commit"
)

// attempt carries per-attempt data through the state machine guards.
type attempt struct {
	userID         string
	targetTenantID string
	lockID         string
}

// newAttemptMachine builds the lifecycle machine for one switch attempt.
// The apply transition is guarded on a held lock, so a coding error that
// skips acquisition cannot reach the mutation step.
func newAttemptMachine() *statemachine.Machine {
	holdingLock := func(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
		a, ok := data.(*attempt)
		return ok && a.lockID != ""
	}

	return statemachine.New(StateRequested,
		statemachine.Transition{From: StateRequested, To: StateLockAcquired, Event: eventAcquire},
		statemachine.Transition{From: StateRequested, To: StateLockDenied, Event: eventDeny},
		statemachine.Transition{From: StateLockAcquired, To: StateValidating, Event: eventValidate},
		statemachine.Transition{From: StateValidating, To: StateValidationFailed, Event: eventReject},
		statemachine.Transition{From: StateValidating, To: StateApplying, Event: eventApply, Guards: []statemachine.Guard{holdingLock}},
		statemachine.Transition{From: StateApplying, To: StateApplyFailed, Event: eventFail},
		statemachine.Transition{From: StateApplying, To: StateCommitted, Event: eventCommit},
	)
}

// Config holds switch coordination settings.
type Config struct {
	LockTTL    time.Duration `env:"SWITCH_LOCK_TTL" envDefault:"30s"`
	SessionTTL time.Duration `env:"SESSION_STORE_TTL" envDefault:"24h"`
}

// DefaultConfig returns the default coordination settings.
func DefaultConfig() Config {
	return Config{
		LockTTL:    30 * time.Second,
		SessionTTL: 24 * time.Hour,
	}
}

// Coordinator serializes tenant switches per user through the distributed
// session store's switch lock. At most one attempt per user is in flight at
// any instant across all process instances; concurrent attempts for the
// same user receive ErrLockDenied immediately rather than queueing.
type Coordinator struct {
	store    sessionstore.Store
	resolver *principal.Resolver
	cfg      Config
	log      *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger supplies a logger for attempt transitions.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithConfig overrides the coordination settings.
func WithConfig(cfg Config) Option {
	return func(c *Coordinator) {
		if cfg.LockTTL > 0 {
			c.cfg.LockTTL = cfg.LockTTL
		}
		if cfg.SessionTTL > 0 {
			c.cfg.SessionTTL = cfg.SessionTTL
		}
	}
}

// New creates a Coordinator over the given store and resolver.
func New(store sessionstore.Store, resolver *principal.Resolver, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    store,
		resolver: resolver,
		cfg:      DefaultConfig(),
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Switch atomically moves the principal's active tenant to targetTenantID.
//
// The attempt walks acquire-lock, validate-target, apply, commit. Failures
// are terminal: a denied lock surfaces as ErrLockDenied (retryable conflict,
// caller decides), an inaccessible target as ErrValidationFailed, a store
// failure during apply as ErrApplyFailed. An unreachable store fails the
// switch closed — there is no unprotected fallback path. Whatever the
// outcome, an acquired lock is always released on the way out.
func (c *Coordinator) Switch(ctx context.Context, cache *reqcache.Cache, p *principal.Principal, targetTenantID string) (*sessionstore.SessionRecord, error) {
	if p == nil || p.ID == "" {
		return nil, principal.ErrAuthenticationFailed
	}
	if targetTenantID == "" {
		return nil, ErrValidationFailed
	}

	a := &attempt{userID: p.ID, targetTenantID: targetTenantID}
	m := newAttemptMachine()

	lockID, err := c.store.TryAcquireLock(ctx, p.ID, targetTenantID, c.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, sessionstore.ErrLockDenied) {
			_ = m.Fire(ctx, eventDeny, a)
			c.log.InfoContext(ctx, "tenant switch denied, another switch in flight",
				logger.UserID(p.ID), logger.TenantID(targetTenantID))
			return nil, ErrLockDenied
		}
		// Store unreachable: refuse the switch rather than mutate
		// without exclusion.
		return nil, err
	}
	a.lockID = lockID
	_ = m.Fire(ctx, eventAcquire, a)

	defer func() {
		// Release must run even when the surrounding request context is
		// already cancelled; the lock TTL is only the crash backstop.
		released, rerr := c.store.ReleaseLock(context.WithoutCancel(ctx), p.ID, lockID)
		if rerr != nil {
			c.log.ErrorContext(ctx, "switch lock release failed, waiting on TTL",
				logger.UserID(p.ID), logger.Error(rerr))
		} else if !released {
			c.log.WarnContext(ctx, "switch lock already expired at release",
				logger.UserID(p.ID))
		}
	}()

	_ = m.Fire(ctx, eventValidate, a)

	allowed, err := c.validateTarget(ctx, cache, p, targetTenantID)
	if err != nil {
		_ = m.Fire(ctx, eventReject, a)
		return nil, errors.Join(ErrValidationFailed, err)
	}
	if !allowed {
		_ = m.Fire(ctx, eventReject, a)
		c.log.InfoContext(ctx, "tenant switch target not accessible",
			logger.UserID(p.ID), logger.TenantID(targetTenantID))
		return nil, ErrValidationFailed
	}

	if err := m.Fire(ctx, eventApply, a); err != nil {
		return nil, errors.Join(ErrApplyFailed, err)
	}

	rec, err := c.apply(ctx, cache, p, targetTenantID)
	if err != nil {
		_ = m.Fire(ctx, eventFail, a)
		return nil, errors.Join(ErrApplyFailed, err)
	}

	_ = m.Fire(ctx, eventCommit, a)
	c.log.InfoContext(ctx, "tenant switch committed",
		logger.UserID(p.ID), logger.TenantID(targetTenantID))
	return rec, nil
}

// validateTarget confirms the principal may activate the target tenant.
// Super-admins validate against the directory's enablement flag, regular
// users against their explicit grant list.
func (c *Coordinator) validateTarget(ctx context.Context, cache *reqcache.Cache, p *principal.Principal, targetTenantID string) (bool, error) {
	if p.IsSuperAdmin() {
		return c.resolver.TenantEnabled(ctx, cache, targetTenantID)
	}
	return p.CanAccessTenant(targetTenantID), nil
}

// apply mutates the session record under the held lock.
func (c *Coordinator) apply(ctx context.Context, cache *reqcache.Cache, p *principal.Principal, targetTenantID string) (*sessionstore.SessionRecord, error) {
	rec, err := c.store.GetSession(ctx, p.ID)
	switch {
	case errors.Is(err, sessionstore.ErrSessionNotFound):
		rec = &sessionstore.SessionRecord{UserID: p.ID}
	case err != nil:
		return nil, err
	}

	rec.CurrentTenantID = targetTenantID
	rec.AccessibleTenantIDs = slices.Clone(p.TenantIDs)
	if cache != nil {
		rec.Fingerprint = cache.Fingerprint()
	}
	rec.Touch()

	if err := c.store.SetSession(ctx, p.ID, rec, c.cfg.SessionTTL); err != nil {
		return nil, err
	}
	return rec, nil
}
