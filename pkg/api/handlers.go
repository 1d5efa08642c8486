package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/keygate/pkg/binder"
	"github.com/dmitrymomot/keygate/pkg/clientip"
	"github.com/dmitrymomot/keygate/pkg/logger"
	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
)

var (
	bindJSON  = binder.JSON()
	bindQuery = binder.Query()
	bindPath  = binder.Path(chi.URLParam)
)

// handlerFunc returns the Response to render for a request.
type handlerFunc func(r *http.Request) Response

// wrap adapts h to http.HandlerFunc, logging the errors it returns.
func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h(r)
		if errResp, ok := resp.(errorResponse); ok {
			s.logError(r, errResp.err)
		}
		render(w, r, resp)
	}
}

// render writes resp; a failed write cannot be reported to the client.
func render(w http.ResponseWriter, r *http.Request, resp Response) {
	_ = resp.Render(w, r)
}

func (s *Server) logError(r *http.Request, err error) {
	info := classifyError(err)
	s.log.LogAttrs(r.Context(), info.LogLevel, "request error",
		logger.Error(err),
		logger.Status(info.StatusCode),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// requireAdmin guards the admin routes with the AdminGuard.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.FromContext(r.Context())
		err := s.admin.Authorize(ip, r.Header.Get(AdminTokenHeader))
		if err == nil {
			next.ServeHTTP(w, r)
			return
		}

		reason := "unauthorized"
		if errors.Is(err, ErrAdminThrottled) {
			reason = "throttled"
		}
		s.metrics.AdminFailuresTotal.WithLabelValues(reason).Inc()
		s.log.WarnContext(r.Context(), "admin request rejected",
			logger.Error(err),
			slog.String("ip", ip),
			slog.String("path", r.URL.Path),
		)
		render(w, r, Error(err))
	})
}

// check handles POST /v1/check. Denied checks answer 429 with the decision.
func (s *Server) check(r *http.Request) Response {
	req := checkRequest{Cost: 1}
	if err := bindJSON(r, &req); err != nil {
		s.metrics.ChecksTotal.WithLabelValues(resultInvalid).Inc()
		return Error(err)
	}
	if err := s.validate.Struct(req); err != nil {
		s.metrics.ChecksTotal.WithLabelValues(resultInvalid).Inc()
		return Error(err)
	}

	ctx := r.Context()
	s.metrics.CheckCost.Observe(float64(req.Cost))

	decision, err := s.limiter.Check(ctx, req.APIKey, req.Cost)
	if err != nil {
		switch {
		case errors.Is(err, ratelimiter.ErrUnknownKey):
			s.metrics.ChecksTotal.WithLabelValues(resultUnknownKey).Inc()
		case errors.Is(err, ratelimiter.ErrInvalidCost):
			s.metrics.ChecksTotal.WithLabelValues(resultInvalid).Inc()
		default:
			s.metrics.ChecksTotal.WithLabelValues(resultError).Inc()
		}
		return Error(err)
	}

	if err := s.usage.Record(ctx, req.APIKey, decision.Allowed); err != nil {
		s.metrics.UsageRecordErrors.Inc()
		s.log.WarnContext(ctx, "failed to record usage", logger.APIKey(req.APIKey), logger.Error(err))
	}

	s.log.DebugContext(ctx, "check",
		logger.APIKey(req.APIKey),
		logger.Cost(req.Cost),
		logger.Allowed(decision.Allowed),
		slog.Int("remaining", decision.RemainingTokens),
	)

	if !decision.Allowed {
		s.metrics.ChecksTotal.WithLabelValues(resultThrottled).Inc()
		return deniedResponse{decision: decision}
	}
	s.metrics.ChecksTotal.WithLabelValues(resultAllowed).Inc()
	return JSON(http.StatusOK, newDecisionResponse(decision))
}

// deniedResponse renders a 429 decision with Retry-After when known.
type deniedResponse struct {
	decision *ratelimiter.Decision
}

func (d deniedResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if secs := int(d.decision.RetryAfter().Seconds()); secs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	return JSON(http.StatusTooManyRequests, newDecisionResponse(d.decision)).Render(w, r)
}

// createKey handles POST /v1/api-keys.
func (s *Server) createKey(r *http.Request) Response {
	req := defaultCreateKeyRequest()
	if err := bindJSON(r, &req); err != nil {
		return Error(err)
	}
	if err := s.validate.Struct(req); err != nil {
		return Error(err)
	}

	key, err := s.keys.Create(r.Context(), req.params())
	if err != nil {
		return Error(err)
	}
	return JSON(http.StatusCreated, createKeyResponse{APIKey: key})
}

// listKeys handles GET /v1/api-keys.
func (s *Server) listKeys(r *http.Request) Response {
	all, err := s.keys.ListAll(r.Context())
	if err != nil {
		return Error(err)
	}

	out := make(map[string]configViewResponse, len(all))
	for key, view := range all {
		out[key] = newConfigViewResponse(view)
	}
	return JSON(http.StatusOK, out)
}

// getKey handles GET /v1/api-keys/{key}.
func (s *Server) getKey(r *http.Request) Response {
	var p keyPath
	if err := s.bindKey(r, &p); err != nil {
		return Error(err)
	}

	view, err := s.keys.GetDetails(r.Context(), p.Key)
	if err != nil {
		return Error(err)
	}
	return JSON(http.StatusOK, newConfigViewResponse(*view))
}

// updateLimits handles PUT /v1/api-keys/{key}/limits.
func (s *Server) updateLimits(r *http.Request) Response {
	var p keyPath
	if err := s.bindKey(r, &p); err != nil {
		return Error(err)
	}

	var req limitsRequest
	if err := bindJSON(r, &req); err != nil {
		return Error(err)
	}

	if err := s.keys.UpdateLimits(r.Context(), p.Key, req.update()); err != nil {
		return Error(err)
	}
	return Empty()
}

// getUsage handles GET /v1/api-keys/{key}/usage?from=&to=.
func (s *Server) getUsage(r *http.Request) Response {
	var p keyPath
	if err := s.bindKey(r, &p); err != nil {
		return Error(err)
	}

	var q usageQuery
	if err := bindQuery(r, &q); err != nil {
		return Error(err)
	}

	ctx := r.Context()
	if _, err := s.keys.Config(ctx, p.Key); err != nil {
		return Error(err)
	}

	from, to := s.usage.DefaultRange(q.From, q.To)
	series, err := s.usage.Range(ctx, p.Key, from, to)
	if err != nil {
		return Error(err)
	}
	return JSON(http.StatusOK, newUsageResponse(from, to, series))
}

func (s *Server) bindKey(r *http.Request, p *keyPath) error {
	if err := bindPath(r, p); err != nil {
		return err
	}
	return s.validate.Struct(p)
}
