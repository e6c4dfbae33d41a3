package config

import (
	"os"
	"strconv"
	"strings"
)

// OverlayEnv applies LINKEDVA_* environment overrides on top of cfg.
func OverlayEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("LINKEDVA_DATA_DIR")); v != "" {
		cfg.App.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("LINKEDVA_PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("LINKEDVA_STORE_BACKEND")); v != "" {
		cfg.Store.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("LINKEDVA_REDIS_ADDR")); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("LINKEDVA_BROWSER_URL")); v != "" {
		cfg.Browser.RemoteURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LINKEDVA_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
}
