// Package httpserver runs an HTTP server with graceful shutdown and provides
// liveness and readiness handlers.
//
// # Usage
//
//	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    return err
//	}
//
// Run blocks until ctx is done or the process receives SIGINT or SIGTERM.
// It then stops accepting connections and waits for in-flight requests for
// up to Config.ShutdownTimeout. Calling Run on a server that is already
// running returns ErrAlreadyRunning.
//
// # Configuration
//
// Config is parsed from the environment with the config package:
//
//   - HTTP_ADDR: listen address, ":8080" by default
//   - HTTP_READ_HEADER_TIMEOUT, HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT,
//     HTTP_IDLE_TIMEOUT: the matching http.Server timeouts
//   - HTTP_SHUTDOWN_TIMEOUT: how long shutdown waits for in-flight requests
//
// WithListener serves on an existing listener instead of Config.Addr, which
// lets tests bind to port 0. Started is closed once the server accepts
// connections, and Addr reports the bound address.
//
// # Health Checks
//
// HealthCheckHandler with no checks is a liveness probe that always answers
// "ALIVE". With checks it is a readiness probe: every check runs with the
// request context, and the first failure is logged and answered with 500
// "NOT_READY":
//
//	r.Get("/healthz", httpserver.HealthCheckHandler(log))
//	r.Get("/readyz", httpserver.HealthCheckHandler(log, redis.Healthcheck(client)))
//
// # Errors
//
// Listener failures are joined with ErrStart, and shutdown failures with
// ErrShutdown.
package httpserver
