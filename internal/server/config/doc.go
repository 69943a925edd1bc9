// Package config provides the snapwatch-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation of addresses, intervals and sources
//   - sanitize.go: Copy with credentials masked, for logging
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and SNAPWATCH_ environment variables, where "__" separates levels:
//
//	SNAPWATCH_POLL__INTERVAL=5s
//	SNAPWATCH_SERVER__HTTP__RATE_LIMIT=20
//
// Sources can only be declared in the file.
package config
