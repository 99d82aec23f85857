package authflow

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/leaddesk/authkit/pkg/diagnostic"
	"github.com/leaddesk/authkit/pkg/fingerprint"
	"github.com/leaddesk/authkit/pkg/httpserver"
	"github.com/leaddesk/authkit/pkg/principal"
	"github.com/leaddesk/authkit/pkg/requestid"
	"github.com/leaddesk/authkit/pkg/sessionstore"
	"github.com/leaddesk/authkit/pkg/switcher"
)

// RouterOptions carries the wired dependencies for the auth surface.
type RouterOptions struct {
	Resolver    *principal.Resolver
	Coordinator *switcher.Coordinator
	Detector    *diagnostic.Detector
	Store       sessionstore.Store

	// HealthCheck is the readiness probe dependency, typically the session
	// store's Healthcheck. Optional.
	HealthCheck func(context.Context) error

	// MiddlewareOptions are forwarded to the auth middleware.
	MiddlewareOptions []Option
}

// Router assembles the HTTP surface: request identity middlewares, the auth
// middleware, the switch endpoint, and the super-admin ops report. The
// health endpoint sits outside authentication so probes work without a
// credential.
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(fingerprint.Middleware)

	var checks []func(context.Context) error
	if opts.HealthCheck != nil {
		checks = append(checks, opts.HealthCheck)
	}
	r.Get("/healthz", httpserver.HealthCheckHandler(nil, checks...))

	r.Group(func(authed chi.Router) {
		authed.Use(Middleware(opts.Resolver, opts.Detector, opts.MiddlewareOptions...))
		authed.Post("/switch", SwitchHandler(opts.Coordinator))
		authed.Get("/ops/report", ReportHandler(opts.Detector, opts.Store))
	})

	return r
}
