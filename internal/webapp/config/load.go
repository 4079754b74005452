package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:            ":8090",
			ShutdownTimeout: 15 * time.Second,
		},
		CoreAPI: CoreAPIConfig{
			BaseURL:    "http://localhost:8080",
			Timeout:    30 * time.Second,
			MaxRetries: 1,
		},
		Projection: ProjectionConfig{
			Path: "webapp.db",
		},
	}
}

// Load reads the YAML config, then lets environment variables override the
// settings that differ per deployment.
func Load() (*Config, error) {
	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(os.Getenv("WEBAPP_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "webapp.yaml")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}

	if cfgPath != "" {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfgPath, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("WEBAPP_ADDR")); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("CORE_API_BASE_URL")); v != "" {
		cfg.CoreAPI.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("WEBAPP_PROJECTION_PATH")); v != "" {
		cfg.Projection.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		cfg.Env = v
	}

	if strings.TrimSpace(cfg.CoreAPI.BaseURL) == "" {
		return nil, fmt.Errorf("core_api.base_url is required")
	}
	return cfg, nil
}
