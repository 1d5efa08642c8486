// Package environment names the deployment an instance runs in.
//
// Parse normalizes the APP_ENV setting into Development, Staging or
// Production. It is case-insensitive, trims spaces and accepts the short
// aliases "dev", "stage" and "prod". Unknown values fall back to
// Development so that a typo never enables production behaviour silently:
//
//	env := environment.Parse(os.Getenv("APP_ENV"))
//	if env.IsDevelopment() {
//	    // text logs at debug level
//	}
//
// The logger package uses the parsed value to pick its format and level.
package environment
