package config

import (
	"os"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "ADMIN_EMAIL", "ADMIN_PASSWORD", "SESSION_SECRET", "DB_PATH",
		"PORT", "LOG_LEVEL", "LOG_FORMAT", "SEED_FILE", "SEED_ON_START",
	} {
		t.Setenv(key, "")
	}
	// Load reads .env from the working directory; run from an empty one.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, warnings := Load()

	if cfg.DBPath != defaultDBPath || cfg.Port != defaultPort {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.IsDev() || !cfg.SeedOnStart {
		t.Fatalf("expected dev env with seeding, got %+v", cfg)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected log defaults: %+v", cfg)
	}
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", warnings)
	}
}

func TestLoad_ProdDisablesSeedUnlessRequested(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("ADMIN_EMAIL", "owner@example.com")
	t.Setenv("ADMIN_PASSWORD", "secret")
	t.Setenv("SESSION_SECRET", "s3")

	cfg, warnings := Load()
	if cfg.IsDev() || cfg.SeedOnStart {
		t.Fatalf("prod must not seed by default: %+v", cfg)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}

	t.Setenv("SEED_ON_START", "true")
	cfg, _ = Load()
	if !cfg.SeedOnStart {
		t.Fatalf("SEED_ON_START=true must enable seeding")
	}
}
