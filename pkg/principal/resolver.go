package principal

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/leaddesk/authkit/pkg/logger"
	"github.com/leaddesk/authkit/pkg/reqcache"
)

// Resolver resolves principals and their tenant lists through the
// request-scoped cache. All upstream calls flow through the cache's
// rate-limited fetcher; a stale cached value may be served during upstream
// throttling, but past the stale window resolution fails closed.
type Resolver struct {
	idp IdentityProvider
	dir TenantDirectory
	log *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger supplies a logger for resolution failures.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewResolver creates a Resolver over the given identity provider and
// tenant directory.
func NewResolver(idp IdentityProvider, dir TenantDirectory, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		idp: idp,
		dir: dir,
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve verifies the credential and returns the principal, cache-first.
// Any failure, including exhaustion of the stale fallback, is reported as
// ErrAuthenticationFailed: the caller denies access, it never serves another
// identity.
func (r *Resolver) Resolve(ctx context.Context, cache *reqcache.Cache, credential string) (*Principal, error) {
	if credential == "" {
		return nil, ErrAuthenticationFailed
	}

	// The cache key derives from a hash so raw credentials never appear in
	// cache keys or logs.
	key := "principal:" + credentialDigest(credential)

	p, err := reqcache.GetOrFetch(ctx, cache, key, func(ctx context.Context) (*Principal, error) {
		return r.idp.VerifyCredential(ctx, credential)
	})
	if err != nil {
		r.log.WarnContext(ctx, "principal resolution failed",
			logger.RequestID(cache.RequestID()), logger.Error(err))
		return nil, errors.Join(ErrAuthenticationFailed, err)
	}
	if p == nil || p.ID == "" {
		return nil, ErrAuthenticationFailed
	}
	return p, nil
}

// AccessibleTenants returns the tenants the principal may switch to,
// cache-first under a per-user key so concurrent resolutions within one
// request never collide.
func (r *Resolver) AccessibleTenants(ctx context.Context, cache *reqcache.Cache, p *Principal) ([]TenantSummary, error) {
	if p == nil || p.ID == "" {
		return nil, ErrAuthenticationFailed
	}

	return reqcache.GetOrFetch(ctx, cache, "tenants:"+p.ID, func(ctx context.Context) ([]TenantSummary, error) {
		return r.dir.ListAccessibleTenants(ctx, p)
	})
}

// TenantEnabled reports whether the tenant is enabled in the directory,
// cache-first. Used for validating super-admin switch targets.
func (r *Resolver) TenantEnabled(ctx context.Context, cache *reqcache.Cache, tenantID string) (bool, error) {
	if tenantID == "" {
		return false, nil
	}

	return reqcache.GetOrFetch(ctx, cache, "tenant_enabled:"+tenantID, func(ctx context.Context) (bool, error) {
		return r.dir.IsTenantEnabled(ctx, tenantID)
	})
}

func credentialDigest(credential string) string {
	return strconv.FormatUint(xxhash.Sum64String(credential), 16)
}
