package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RECORD_STORE", "memory")
	t.Setenv("CORS_ORIGINS", "http://localhost:4200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.GetRecordStoreBackend() != RecordStoreMemory {
		t.Fatalf("expected memory backend, got %q", cfg.GetRecordStoreBackend())
	}
	if cfg.GetLookupTimeout() != 10*time.Second {
		t.Fatalf("expected 10s lookup timeout, got %s", cfg.GetLookupTimeout())
	}
	if cfg.IsNotifyEnabled() {
		t.Fatalf("expected notify relay to be disabled without REDIS_URL")
	}
}

func TestLoadRequiresDatabaseForPostgres(t *testing.T) {
	t.Setenv("RECORD_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is missing for postgres backend")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("RECORD_STORE", "sqlite")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
}

func TestLoadWildcardOriginEnablesAllowAll(t *testing.T) {
	t.Setenv("RECORD_STORE", "memory")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.GetCORSAllowAll() {
		t.Fatalf("expected wildcard origin to enable CORS allow all")
	}
}
