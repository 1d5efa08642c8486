package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/dmitrymomot/keygate/pkg/httpserver"
	"github.com/dmitrymomot/keygate/pkg/requestid"
)

// Handler returns the router serving every route of the adapter.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(
		requestid.Middleware,
		s.resolver.Middleware,
		accessLog(s.log, s.metrics),
		recoverer(s.log),
		cors.New(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", AdminTokenHeader},
			ExposedHeaders: []string{"Retry-After", requestid.Header},
		}).Handler,
		limitBody,
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render(w, r, Message(http.StatusNotFound, MsgNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render(w, r, Message(http.StatusMethodNotAllowed, MsgMethodNotAllowed))
	})

	r.Get("/healthz", httpserver.HealthCheckHandler(s.log))
	r.Get("/readyz", httpserver.HealthCheckHandler(s.log, s.checks...))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/check", s.wrap(s.check))

		r.Route("/api-keys", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/", s.wrap(s.createKey))
			r.Get("/", s.wrap(s.listKeys))
			r.Get("/{key}", s.wrap(s.getKey))
			r.Put("/{key}/limits", s.wrap(s.updateLimits))
			r.Get("/{key}/usage", s.wrap(s.getUsage))
		})
	})

	return r
}
