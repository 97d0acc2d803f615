package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// validEnv sets the minimum required env vars for a valid config.
func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORAGE_CONNECTION_STRING", "UseDevelopmentStorage=true")
	t.Setenv("AUTH_TEST_MODE", "true")
	t.Setenv("AUTH_TEST_SECRET", "local-dev-secret")
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

func TestLoadFromEnvWithDefaults(t *testing.T) {
	validEnv(t)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("unexpected default port: %d", cfg.Server.Port)
	}
	if cfg.Storage.CompaniesTable != "companies" || cfg.Storage.NotifyQueue != "notifications" {
		t.Fatalf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Redis.CacheTTL != 5*time.Minute || cfg.Redis.DeduperTTL != 24*time.Hour {
		t.Fatalf("unexpected redis defaults: %+v", cfg.Redis)
	}
	if cfg.Notify.WeeklyReviewDay != "Sunday" {
		t.Fatalf("unexpected review day: %s", cfg.Notify.WeeklyReviewDay)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	validEnv(t)
	dir := t.TempDir()
	path := writeYAML(t, dir, `
server:
  port: 9090
storage:
  connection_string: "UseDevelopmentStorage=true"
  companies_table: "companies_test"
auth:
  test_mode: true
log:
  level: "debug"
  format: "text"
`)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("unexpected port: %d", cfg.Server.Port)
	}
	if cfg.Storage.CompaniesTable != "companies_test" {
		t.Fatalf("unexpected table: %s", cfg.Storage.CompaniesTable)
	}
	if cfg.Log.Format != "text" {
		t.Fatalf("unexpected log format: %s", cfg.Log.Format)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	validEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestValidateAuthRequiresDomain(t *testing.T) {
	validEnv(t)
	t.Setenv("AUTH_TEST_MODE", "false")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without auth domain and audience")
	}

	t.Setenv("AUTH_DOMAIN", "bms.example.auth0.com")
	t.Setenv("AUTH_AUDIENCE", "https://api.bms.example.com")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load with auth: %v", err)
	}
	if cfg.Auth.JWKSURL() != "https://bms.example.auth0.com/.well-known/jwks.json" {
		t.Fatalf("unexpected jwks url: %s", cfg.Auth.JWKSURL())
	}
	if cfg.Auth.Issuer() != "https://bms.example.auth0.com/" {
		t.Fatalf("unexpected issuer: %s", cfg.Auth.Issuer())
	}
}

func TestValidateTestModeRequiresSecret(t *testing.T) {
	validEnv(t)
	t.Setenv("AUTH_TEST_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without test secret")
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	validEnv(t)
	t.Setenv("LOG_FORMAT", "xml")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for bad log format")
	}
}
