package authflow

import (
	"context"

	"github.com/leaddesk/authkit/pkg/principal"
	"github.com/leaddesk/authkit/pkg/reqcache"
)

type principalKey struct{}
type cacheKey struct{}

// PrincipalFromContext returns the authenticated principal, or nil when the
// request did not pass the middleware.
func PrincipalFromContext(ctx context.Context) *principal.Principal {
	p, _ := ctx.Value(principalKey{}).(*principal.Principal)
	return p
}

// CacheFromContext returns the request-scoped cache, or nil when the request
// did not pass the middleware.
func CacheFromContext(ctx context.Context) *reqcache.Cache {
	c, _ := ctx.Value(cacheKey{}).(*reqcache.Cache)
	return c
}

func withPrincipal(ctx context.Context, p *principal.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func withCache(ctx context.Context, c *reqcache.Cache) context.Context {
	return context.WithValue(ctx, cacheKey{}, c)
}
