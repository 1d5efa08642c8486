package api

import (
	"time"

	"github.com/dmitrymomot/keygate/pkg/apikey"
	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
	"github.com/dmitrymomot/keygate/pkg/usage"
)

type checkRequest struct {
	APIKey string `json:"apiKey" validate:"required"`
	Cost   int    `json:"cost" validate:"gt=0"`
}

type decisionResponse struct {
	Allowed         bool `json:"allowed"`
	RemainingTokens int  `json:"remainingTokens"`
	Limit           int  `json:"limit"`
	ResetInSeconds  int  `json:"resetInSeconds"`
}

func newDecisionResponse(d *ratelimiter.Decision) decisionResponse {
	return decisionResponse{
		Allowed:         d.Allowed,
		RemainingTokens: d.RemainingTokens,
		Limit:           d.Limit,
		ResetInSeconds:  d.ResetInSeconds,
	}
}

type createKeyRequest struct {
	Name        string                `json:"name" validate:"required"`
	Description *string               `json:"description"`
	Status      ratelimiter.Status    `json:"status"`
	Algorithm   ratelimiter.Algorithm `json:"algorithm"`
	RefillRate  int                   `json:"refillRate"`
	Capacity    int                   `json:"capacity"`
}

// defaultCreateKeyRequest pre-fills the fields a client may omit.
func defaultCreateKeyRequest() createKeyRequest {
	p := apikey.DefaultCreateParams("")
	return createKeyRequest{
		Status:     p.Status,
		Algorithm:  p.Algorithm,
		RefillRate: p.RefillRate,
		Capacity:   p.Capacity,
	}
}

func (req createKeyRequest) params() apikey.CreateParams {
	return apikey.CreateParams{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Algorithm:   req.Algorithm,
		Capacity:    req.Capacity,
		RefillRate:  req.RefillRate,
	}
}

type createKeyResponse struct {
	APIKey string `json:"ApiKey"`
}

type limitsRequest struct {
	Algorithm  ratelimiter.Algorithm `json:"algorithm"`
	RefillRate int                   `json:"refillRate"`
	Capacity   int                   `json:"capacity"`
}

func (req limitsRequest) update() ratelimiter.LimitUpdate {
	return ratelimiter.LimitUpdate{
		Algorithm:  req.Algorithm,
		RefillRate: req.RefillRate,
		Capacity:   req.Capacity,
	}
}

type keyPath struct {
	Key string `path:"key" validate:"required"`
}

type usageQuery struct {
	From time.Time `query:"from"`
	To   time.Time `query:"to"`
}

// configViewResponse is the PascalCase projection of a key.
type configViewResponse struct {
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Status      string `json:"Status"`
	Algorithm   string `json:"Algorithm"`
	Capacity    int    `json:"Capacity"`
	RefillRate  int    `json:"RefillRate"`
	CreatedAt   string `json:"CreatedAt"`
}

func newConfigViewResponse(v ratelimiter.ConfigView) configViewResponse {
	return configViewResponse{
		Name:        v.Name,
		Description: v.Description,
		Status:      v.Status.String(),
		Algorithm:   v.Algorithm.String(),
		Capacity:    v.Capacity,
		RefillRate:  v.RefillRate,
		CreatedAt:   v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type hourResponse struct {
	Hour      string `json:"hour"`
	Allowed   int64  `json:"allowed"`
	Throttled int64  `json:"throttled"`
}

type usageResponse struct {
	From   string         `json:"from"`
	To     string         `json:"to"`
	Hours  []hourResponse `json:"hours"`
	Totals usage.Totals   `json:"totals"`
}

func newUsageResponse(from, to time.Time, series []ratelimiter.HourlyUsage) usageResponse {
	hours := make([]hourResponse, 0, len(series))
	for _, h := range series {
		hours = append(hours, hourResponse{
			Hour:      h.Hour.UTC().Format(time.RFC3339),
			Allowed:   h.Allowed,
			Throttled: h.Throttled,
		})
	}
	return usageResponse{
		From:   from.UTC().Format(time.RFC3339),
		To:     to.UTC().Format(time.RFC3339),
		Hours:  hours,
		Totals: usage.Summarize(series),
	}
}
