package config

import (
	"testing"
	"time"
)

func TestLoad_DefaultsAndRequired(t *testing.T) {
	t.Setenv("GATEWAY_TOKEN", "secret")
	t.Setenv("DATABASE_URL", "file.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "5200" {
		t.Fatalf("expected default port 5200, got %q", cfg.Port)
	}
	if cfg.StoreBackend != "gorm" {
		t.Fatalf("expected default store backend gorm, got %q", cfg.StoreBackend)
	}
	if cfg.FlushInterval != 2*time.Second {
		t.Fatalf("expected 2s flush interval, got %v", cfg.FlushInterval)
	}
	if cfg.SessionIdle != 30*time.Minute {
		t.Fatalf("expected 30m session idle TTL, got %v", cfg.SessionIdle)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %#v", cfg.AllowedOrigins)
	}
	if cfg.R2.Enabled() {
		t.Fatalf("expected R2 exports disabled without a bucket")
	}
}

func TestLoad_MissingGatewayToken(t *testing.T) {
	t.Setenv("GATEWAY_TOKEN", "")
	if _, _, err := Load(); err == nil {
		t.Fatalf("expected error when GATEWAY_TOKEN is missing")
	}
}

func TestValidate_RejectsUnknownBackend(t *testing.T) {
	cfg := Config{DBDriver: "postgres", DatabaseURL: "postgres://x", StoreBackend: "etcd", FlushInterval: time.Second, SessionIdle: time.Hour}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown store backend")
	}
}

func TestValidate_RedisNeedsAddr(t *testing.T) {
	cfg := Config{DBDriver: "postgres", DatabaseURL: "postgres://x", StoreBackend: "redis", FlushInterval: time.Second, SessionIdle: time.Hour}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when REDIS_ADDR is missing")
	}
	cfg.RedisAddr = "localhost:6379"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_DatabaseAlwaysRequired(t *testing.T) {
	cfg := Config{DBDriver: "sqlite", StoreBackend: "memory", FlushInterval: time.Second, SessionIdle: time.Hour}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is missing")
	}
}

func TestValidate_SessionIdleFloor(t *testing.T) {
	cfg := Config{DBDriver: "sqlite", DatabaseURL: "file.db", StoreBackend: "memory", FlushInterval: time.Second, SessionIdle: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for a sub-minute SESSION_IDLE_TTL")
	}
}
