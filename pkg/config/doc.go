// Package config provides a type-safe, generic way to load application
// configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`:
//
//   - Loads values from one or more `.env` files. The default list is just
//     `.env` in the working directory; files that do not exist are skipped.
//   - Parses the process environment into any struct using `env` and
//     `envDefault` field tags, optionally under a common prefix.
//   - Runs the struct's Validate method after parsing when it implements
//     Validator, so rules the tags cannot express live next to the fields.
//
// Values already present in the process environment win over the ones read
// from files, since godotenv never overwrites a set variable.
//
// # Usage
//
// Describe the configuration with tags:
//
//	type Config struct {
//	    Addr       string        `env:"HTTP_ADDR" envDefault:":8080"`
//	    RedisURL   string        `env:"REDIS_URL,required"`
//	    Timeout    time.Duration `env:"TIMEOUT" envDefault:"5s"`
//	    Origins    []string      `env:"ORIGINS" envSeparator:","`
//	}
//
//	func (c *Config) Validate() error {
//	    if c.Timeout <= 0 {
//	        return errors.New("TIMEOUT must be positive")
//	    }
//	    return nil
//	}
//
// Then load it, optionally from explicit env files:
//
//	cfg, err := config.Load[Config](config.WithEnvFiles("./deploy/.env"))
//	if err != nil {
//	    return err
//	}
//
// Nested structs are parsed too, which lets packages such as redis and
// httpserver ship their own Config types that an application embeds.
//
// # Error Handling
//
// Failures are joined with a sentinel that can be checked with errors.Is:
//
//   - ErrLoadingEnvFile: an env file exists but could not be read or parsed.
//   - ErrParsingConfig: a value is missing, required or malformed.
//   - ErrInvalidConfig: Validate returned an error.
//
// # See Also
//
//   - https://github.com/joho/godotenv
//   - https://github.com/caarlos0/env
package config
