// Package authflow wires the authentication pipeline into HTTP: a
// middleware that builds a fresh request-scoped cache and resolves the
// principal on every request, a tenant-switch endpoint backed by the
// distributed lock coordinator, and a super-admin ops report.
//
// The middleware is where request scoping is enforced structurally. The
// cache is constructed inside the handler chain for each inbound request
// and handed down via context; no package-level cache exists, so one
// request's identity can never be observed by another.
//
// Usage:
//
//	router := authflow.Router(authflow.RouterOptions{
//		Resolver:    resolver,
//		Coordinator: coordinator,
//		Detector:    detector,
//		Store:       store,
//		HealthCheck: sessionstore.Healthcheck(client),
//	})
//	srv.Run(ctx, router)
//
// Error mapping on /switch: 409 when another switch holds the user's lock,
// 403 when the target tenant is not accessible, 503 when the session store
// is unreachable. Authentication failures anywhere yield 401 and never a
// cached identity.
package authflow
