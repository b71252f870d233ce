package config

import "github.com/caarlos0/env/v11"

// parseEnv overlays Config with MANHOLE_* environment variables. Unset
// variables leave fields untouched.
func parseEnv(cfg *Config) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
