package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/keygate/pkg/apikey"
	"github.com/dmitrymomot/keygate/pkg/binder"
	"github.com/dmitrymomot/keygate/pkg/ratelimiter"
	"github.com/dmitrymomot/keygate/pkg/usage"
)

// Response messages.
const (
	MsgBadRequest        = "Bad request - Invalid or missing arguments."
	MsgInvalidAPIKey     = "Unauthorized - Invalid ApiKey."
	MsgMissingAdminToken = "Unauthorized - Missing Admin Token."
	MsgNotFound          = "Not Found."
	MsgMethodNotAllowed  = "Method not allowed."
	MsgTooManyAttempts   = "Too many failed attempts."
	MsgServerError       = "Server Error."
)

var (
	// ErrBadRequest indicates a request that could not be decoded.
	ErrBadRequest = errors.New("bad request")

	// ErrAdminUnauthorized indicates a missing or wrong admin token.
	ErrAdminUnauthorized = errors.New("admin token missing or invalid")

	// ErrAdminThrottled indicates a client that failed admin auth too often.
	ErrAdminThrottled = errors.New("too many failed admin attempts")
)

// ErrorInfo contains classified error information
type ErrorInfo struct {
	StatusCode int
	Message    string
	LogLevel   slog.Level
}

// classifyError maps an operation error to its HTTP status and message.
func classifyError(err error) ErrorInfo {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, ErrAdminThrottled):
		return clientError(http.StatusTooManyRequests, MsgTooManyAttempts)
	case errors.Is(err, ErrAdminUnauthorized):
		return clientError(http.StatusUnauthorized, MsgMissingAdminToken)
	case errors.Is(err, ratelimiter.ErrUnknownKey):
		return clientError(http.StatusUnauthorized, MsgInvalidAPIKey)
	case errors.Is(err, ratelimiter.ErrNotFound):
		return clientError(http.StatusNotFound, MsgNotFound)
	case errors.Is(err, ErrBadRequest),
		errors.As(err, &validationErrs),
		errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrUnsupportedMediaType),
		errors.Is(err, binder.ErrFailedToParseQuery),
		errors.Is(err, binder.ErrFailedToParsePath),
		errors.Is(err, ratelimiter.ErrInvalidCost),
		errors.Is(err, ratelimiter.ErrInvalidLimits),
		errors.Is(err, ratelimiter.ErrMalformedRecord),
		errors.Is(err, apikey.ErrInvalidParams),
		errors.Is(err, usage.ErrInvalidRange),
		errors.Is(err, usage.ErrRangeTooLarge):
		return clientError(http.StatusBadRequest, MsgBadRequest)
	default:
		return ErrorInfo{
			StatusCode: http.StatusInternalServerError,
			Message:    MsgServerError,
			LogLevel:   slog.LevelError,
		}
	}
}

func clientError(status int, msg string) ErrorInfo {
	return ErrorInfo{StatusCode: status, Message: msg, LogLevel: slog.LevelWarn}
}
