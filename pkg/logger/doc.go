// Package logger builds configured slog.Logger instances with automatic
// context attribute injection.
//
// The factory wraps the chosen slog handler (JSON or text) with a
// ContextHandler that pulls request-scoped values such as request IDs out of
// the context on every log call:
//
//	log := logger.New(
//	    logger.WithProduction("authkit"),
//	    logger.WithContextValue("request_id", requestid.ContextKey()),
//	)
//	log.InfoContext(ctx, "principal resolved", logger.UserID(p.ID))
//
// Attribute helpers (Error, UserID, TenantID, RequestID, ...) keep log keys
// consistent across packages.
package logger
