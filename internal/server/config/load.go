package config

import (
	"fmt"

	"github.com/yndnr/snapwatch-go/internal/infra/confloader"
)

// EnvSeparator separates nesting levels in SNAPWATCH_ variables, so that
// single underscores inside key names survive.
const EnvSeparator = "__"

// Load builds the configuration from defaults, the file at path (optional)
// and the environment, then verifies it.
func Load(path string) (*ServerConfig, error) {
	cfg := Default()

	opts := []confloader.Option{confloader.WithEnvSeparator(EnvSeparator)}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
