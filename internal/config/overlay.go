package config

import (
	"os"
	"strconv"
	"strings"
)

// OverlayEnv applies deployment overrides from the environment.
// Unset or unparsable variables leave the file value in place.
func OverlayEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("ALUMNI_HTTP_PORT")); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = p
		}
	}
	if v := strings.TrimSpace(os.Getenv("ALUMNI_STORE_DRIVER")); v != "" {
		cfg.Store.Driver = v
	}
	if v := strings.TrimSpace(os.Getenv("ALUMNI_POSTGRES_DSN")); v != "" {
		cfg.Store.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("ALUMNI_COLLECTOR_BASE_URL")); v != "" {
		cfg.Collector.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ALUMNI_LOG_LEVEL")); v != "" {
		cfg.App.LogLevel = v
	}
}
