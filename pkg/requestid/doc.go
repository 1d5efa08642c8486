// Package requestid tags every HTTP request with an identifier and makes it
// available to handlers and log records.
//
// Middleware reads the incoming X-Request-ID header and keeps it when it is
// 1 to 128 characters of letters, digits, '-' or '_'. Anything else,
// including a missing header, is replaced with a fresh UUID, so values from
// the client can never inject arbitrary text into logs. The identifier is
// stored in the request context and echoed in the response header.
//
// # Usage
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
//
//	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
//	    id := requestid.FromContext(r.Context())
//	    // ...
//	})
//
// # Logging
//
// LoggerExtractor plugs into the logger package so that every record logged
// with a request context carries a request_id attribute without handlers
// adding it themselves:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	log.InfoContext(r.Context(), "handled") // ... request_id=5f0c...
//
// Records logged without a request context get no attribute.
//
// # Context Helpers
//
// WithContext and FromContext store and read the identifier directly, which
// is useful in background work started from a request and in tests.
// FromContext returns an empty string when no identifier is set.
package requestid
