package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 100*time.Second {
		t.Errorf("timeout = %s", cfg.API.Timeout)
	}
	if cfg.Search.Debounce != 500*time.Millisecond {
		t.Errorf("debounce = %s", cfg.Search.Debounce)
	}
	if cfg.TokenStore.Kind != TokenStoreFile {
		t.Errorf("token store = %q", cfg.TokenStore.Kind)
	}
	if cfg.DevServer.TokenTTL != 24*time.Hour || cfg.DevServer.LockoutAttempts != 5 {
		t.Errorf("devserver = %+v", cfg.DevServer)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TASKEE_API_BASE_URL", "https://api.example.com/")
	t.Setenv("TASKEE_API_TIMEOUT", "5s")
	t.Setenv("TASKEE_SEARCH_DEBOUNCE", "250ms")
	t.Setenv("TASKEE_TOKEN_STORE", "redis")
	t.Setenv("TASKEE_REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("TASKEE_DEVSERVER_CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "https://api.example.com" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second || cfg.Search.Debounce != 250*time.Millisecond {
		t.Errorf("durations = %s %s", cfg.API.Timeout, cfg.Search.Debounce)
	}
	if cfg.TokenStore.Kind != TokenStoreRedis || cfg.Redis.URL != "redis://localhost:6379/1" {
		t.Errorf("token store = %+v redis = %+v", cfg.TokenStore, cfg.Redis)
	}
	if got := cfg.DevServer.CORSOrigins; len(got) != 2 || got[1] != "http://b.test" {
		t.Errorf("cors origins = %v", got)
	}
}

func TestLoadRejectsRedisWithoutURL(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TASKEE_TOKEN_STORE", "redis")
	t.Setenv("TASKEE_REDIS_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TASKEE_TOKEN_STORE", "sqlite")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadConfigFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "taskee.yaml")
	body := "api:\n  base_url: http://file.test\nsearch:\n  debounce: 1s\n"
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", p)
	t.Setenv("TASKEE_SEARCH_DEBOUNCE", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "http://file.test" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	// Environment wins over the file.
	if cfg.Search.Debounce != 2*time.Second {
		t.Errorf("debounce = %s", cfg.Search.Debounce)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}
