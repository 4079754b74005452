package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WEBAPP_CONFIG_PATH", "")
	t.Setenv("WEBAPP_ADDR", "")
	t.Setenv("CORE_API_BASE_URL", "")
	t.Setenv("WEBAPP_PROJECTION_PATH", "")
	t.Setenv("ENV", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":8090" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.CoreAPI.BaseURL != "http://localhost:8080" {
		t.Fatalf("base url = %q", cfg.CoreAPI.BaseURL)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "webapp.yaml")
	data := []byte("env: production\nhttp:\n  addr: \":9000\"\n  shutdown_timeout: 5s\ncore_api:\n  base_url: http://core:8080\n  timeout: 10s\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("WEBAPP_CONFIG_PATH", path)
	t.Setenv("WEBAPP_ADDR", ":9001")
	t.Setenv("CORE_API_BASE_URL", "")
	t.Setenv("WEBAPP_PROJECTION_PATH", "")
	t.Setenv("ENV", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "production" {
		t.Fatalf("env = %q", cfg.Env)
	}
	// Env beats the file.
	if cfg.HTTP.Addr != ":9001" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.CoreAPI.BaseURL != "http://core:8080" {
		t.Fatalf("base url = %q", cfg.CoreAPI.BaseURL)
	}
	if cfg.CoreAPI.Timeout != 10*time.Second {
		t.Fatalf("timeout = %s", cfg.CoreAPI.Timeout)
	}
}
