package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}

	if cfg.Upstream.BaseURL != "https://api.distriweb.example" {
		t.Fatalf("unexpected upstream base url: %q", cfg.Upstream.BaseURL)
	}

	if got := cfg.Upstream.Timeout; got != 15*time.Second {
		t.Fatalf("expected default upstream timeout 15s, got %v", got)
	}

	if cfg.Storage.Backend != StorageBackendSQLite {
		t.Fatalf("expected default sqlite backend, got %q", cfg.Storage.Backend)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RelativeUpstreamURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvUpstreamBaseURL, "/not/absolute")

	if _, err := Load(); err == nil {
		t.Fatal("expected relative upstream url to return an error")
	}
}

func TestLoad_RedisBackendRequiresAddress(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageBackend, StorageBackendRedis)

	if _, err := Load(); err == nil {
		t.Fatal("expected redis backend without address to return an error")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.Storage.IsRedis() {
		t.Fatal("expected redis backend to be selected")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvUpstreamBaseURL, "https://api.distriweb.example")
}
