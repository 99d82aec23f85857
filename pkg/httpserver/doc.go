// Package httpserver provides a graceful HTTP server wrapper for the auth
// and ops surfaces. Run blocks until the context ends or an interrupt/TERM
// signal arrives, then drains in-flight requests within the shutdown timeout.
//
// Usage:
//
//	cfg := config.MustLoad[httpserver.Config]()
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server exited", logger.Error(err))
//	}
package httpserver
