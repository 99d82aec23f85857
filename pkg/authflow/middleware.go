package authflow

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/leaddesk/authkit/pkg/clientip"
	"github.com/leaddesk/authkit/pkg/diagnostic"
	"github.com/leaddesk/authkit/pkg/fingerprint"
	"github.com/leaddesk/authkit/pkg/logger"
	"github.com/leaddesk/authkit/pkg/principal"
	"github.com/leaddesk/authkit/pkg/reqcache"
	"github.com/leaddesk/authkit/pkg/requestid"
)

const sessionCookieName = "sid"

type options struct {
	log        *slog.Logger
	credential func(*http.Request) string
	sessionID  func(*http.Request) string
	cacheOpts  []reqcache.Option
}

// Option configures the middleware.
type Option func(*options)

// WithLogger sets the logger for authentication failures.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithCredentialExtractor overrides how the credential is read off the
// request. The default checks the Authorization bearer header, then the
// auth_token cookie.
func WithCredentialExtractor(fn func(*http.Request) string) Option {
	return func(o *options) {
		if fn != nil {
			o.credential = fn
		}
	}
}

// WithSessionIDExtractor overrides how the session identifier is read for
// diagnostic events. The default reads the sid cookie.
func WithSessionIDExtractor(fn func(*http.Request) string) Option {
	return func(o *options) {
		if fn != nil {
			o.sessionID = fn
		}
	}
}

// WithCacheOptions forwards options to the per-request cache, typically the
// upstream fetcher and TTL config.
func WithCacheOptions(opts ...reqcache.Option) Option {
	return func(o *options) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}

// BearerCredential extracts the bearer token from the Authorization header,
// falling back to the auth_token cookie.
func BearerCredential(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie("auth_token"); err == nil {
		return c.Value
	}
	return ""
}

func cookieSessionID(r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// Middleware authenticates every request. It constructs a fresh cache for
// each request, resolves the principal through it, records diagnostic
// events, and stores both in the request context. Unauthenticated requests
// are rejected with 401 and never reach the wrapped handler.
func Middleware(res *principal.Resolver, det *diagnostic.Detector, opts ...Option) func(http.Handler) http.Handler {
	if res == nil {
		panic("authflow: nil resolver")
	}
	if det == nil {
		det = diagnostic.New()
	}

	o := &options{
		log:        slog.New(slog.DiscardHandler),
		credential: BearerCredential,
		sessionID:  cookieSessionID,
	}
	for _, opt := range opts {
		opt(o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			fp := fingerprint.FromContext(ctx)
			if fp == "" {
				fp = fingerprint.Generate(r)
				ctx = fingerprint.WithContext(ctx, fp)
			}
			reqID := requestid.FromContext(ctx)

			rec := newEventRecorder(det, diagnostic.Event{
				SessionID:   o.sessionID(r),
				RequestID:   reqID,
				IPAddress:   clientip.GetIP(r),
				Fingerprint: fp,
				Path:        r.URL.Path,
			})

			// The cache lives and dies with this request. Holding it
			// anywhere longer-lived reintroduces cross-user leakage.
			cacheOpts := make([]reqcache.Option, 0, len(o.cacheOpts)+1)
			cacheOpts = append(cacheOpts, o.cacheOpts...)
			cacheOpts = append(cacheOpts, reqcache.WithRecorder(rec))
			cache := reqcache.New(reqID, fp, cacheOpts...)

			p, err := res.Resolve(ctx, cache, o.credential(r))
			if err != nil {
				rec.record(diagnostic.ActionResolve)
				o.log.WarnContext(ctx, "authentication failed",
					logger.RequestID(reqID),
					logger.Error(err),
				)
				writeError(w, http.StatusUnauthorized, "authentication_failed")
				return
			}
			rec.setUser(p.ID)
			rec.record(diagnostic.ActionResolve)

			ctx = withPrincipal(ctx, p)
			ctx = withCache(ctx, cache)
			ctx = withRecorder(ctx, rec)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type recorderKey struct{}

func withRecorder(ctx context.Context, rec *eventRecorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, rec)
}

func recorderFromContext(ctx context.Context) *eventRecorder {
	rec, _ := ctx.Value(recorderKey{}).(*eventRecorder)
	return rec
}
