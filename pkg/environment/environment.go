package environment

import "strings"

// Environment names the deployment the process runs in.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Parse normalizes an APP_ENV value. Short aliases ("dev", "stage", "prod")
// are accepted; anything unknown is Development.
func Parse(v string) Environment {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	default:
		return Development
	}
}

func (e Environment) String() string { return string(e) }

// IsDevelopment reports whether e is Development.
func (e Environment) IsDevelopment() bool { return e == Development }
