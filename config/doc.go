// Package config provides configuration loading and validation for the spaces
// server.
//
// The package handles YAML configuration files, dotenv files, environment
// variables and CLI flags with automatic merging and validation using
// go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (SPACES_ prefix), including those exported from
//     dotenv files
//  4. CLI flags
//
// Dotenv files are selected with an "env-file" flag. Without it a .env file in
// the working directory is loaded when present. A dotenv file never overrides
// a variable that is already set.
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with SPACES_ prefix:
//   - server.port → SPACES_SERVER_PORT
//   - log.level → SPACES_LOG_LEVEL
//   - cors.enabled → SPACES_CORS_ENABLED
//
// The storage settings also accept a short form:
//   - spaces.access_key → SPACES_ACCESS_KEY
//   - spaces.secret_key → SPACES_SECRET_KEY
//   - spaces.region → SPACES_REGION
//   - spaces.bucket_name → SPACES_BUCKET_NAME
//   - spaces.endpoint_url_template → SPACES_ENDPOINT_URL_TEMPLATE
//
// # Validation
//
// Every storage setting is required and the endpoint must resolve to an
// http(s) URL. Port must be 1-65535, env must be development or production and
// log level must be debug, info, warn, or error.
package config
