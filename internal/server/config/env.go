package config

import (
	"os"
	"time"
)

// Environment variable names recognized by parseEnv.
const (
	EnvAddress     = "WAVELENGTH_ADDRESS"
	EnvDatabaseDSN = "WAVELENGTH_DATABASE_DSN"
	EnvSecretKey   = "WAVELENGTH_SECRET_KEY"
	EnvTokenTTL    = "WAVELENGTH_TOKEN_TTL"
)

// parseEnv overlays Config fields from the environment. Unset variables
// leave the existing values untouched. The TTL uses Go duration syntax
// ("1h", "30m"); an unparseable value panics, matching the JSON overlay's
// fail-fast behavior.
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv(EnvAddress); ok && v != "" {
		config.EndpointAddr = v
	}
	if v, ok := os.LookupEnv(EnvDatabaseDSN); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv(EnvSecretKey); ok && v != "" {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv(EnvTokenTTL); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.TokenValidityDuration = d
	}
}
