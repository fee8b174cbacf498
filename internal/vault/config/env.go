package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "DRIPVAULT_"

// parseEnv overlays cfg with DRIPVAULT_* variables. Unset variables keep the
// current values.
func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
