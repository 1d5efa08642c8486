package logger

import (
	"log/slog"
	"time"
)

// apiKeyVisible is how many leading characters of an API key are logged.
const apiKeyVisible = 4

// Error records err under "error". Nil errors give an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// APIKey records a masked API key under "api_key": the first four characters
// followed by "***". Keys are secrets and are never logged in full.
func APIKey(key string) slog.Attr {
	if key == "" {
		return slog.Attr{}
	}
	if len(key) <= apiKeyVisible {
		return slog.String("api_key", "***")
	}
	return slog.String("api_key", key[:apiKeyVisible]+"***")
}

// Cost records the token cost of a check.
func Cost(cost int) slog.Attr {
	return slog.Int("cost", cost)
}

// Allowed records an admission outcome.
func Allowed(allowed bool) slog.Attr {
	return slog.Bool("allowed", allowed)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Status records an HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int("status", code)
}

// Duration records an elapsed time under "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
