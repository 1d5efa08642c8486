package cmd

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/keygate/pkg/httpserver"
	"github.com/dmitrymomot/keygate/pkg/redis"
)

// Store drivers.
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// ErrMissingAdminToken is returned by serve when ADMIN_TOKEN is empty.
var ErrMissingAdminToken = errors.New("ADMIN_TOKEN must be set")

// Config is the process configuration, parsed from the environment.
type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppName string `env:"APP_NAME" envDefault:"keygate"`

	AdminToken      string  `env:"ADMIN_TOKEN"`
	AdminRateLimit  float64 `env:"ADMIN_RATE_LIMIT" envDefault:"1"`
	AdminRateBurst  int     `env:"ADMIN_RATE_BURST" envDefault:"10"`
	AdminMaxClients int     `env:"ADMIN_MAX_CLIENTS" envDefault:"10000"`

	StoreDriver    string `env:"STORE_DRIVER" envDefault:"redis"`
	StoreAtomic    bool   `env:"STORE_ATOMIC" envDefault:"false"`
	StoreKeyPrefix string `env:"STORE_KEY_PREFIX"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5174" envSeparator:","`
	TrustedIPHeaders   []string `env:"TRUSTED_IP_HEADERS" envSeparator:","`

	Redis redis.Config
	HTTP  httpserver.Config
}

// Validate checks values the env tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverRedis, DriverMemory, c.StoreDriver)
	}
	if c.AdminRateLimit <= 0 {
		return fmt.Errorf("ADMIN_RATE_LIMIT must be positive, got %v", c.AdminRateLimit)
	}
	if c.AdminRateBurst <= 0 {
		return fmt.Errorf("ADMIN_RATE_BURST must be positive, got %d", c.AdminRateBurst)
	}
	return nil
}
