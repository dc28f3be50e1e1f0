package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	defaultDBPath    = "./dev.db"
	defaultPort      = "8080"
	defaultEnv       = "dev"
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	DBPath        string
	Port          string
	LogLevel      string
	LogFormat     string
	SeedFile      string
	SeedOnStart   bool
}

// Load reads environment variables and returns a populated Config together
// with warnings about settings the server can run without.
func Load() (Config, []string) {
	// Best-effort: load local dev environment variables.
	_, _ = loadDotEnv(".env")

	cfg := Config{
		Env:           strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DBPath:        os.Getenv("DB_PATH"),
		Port:          os.Getenv("PORT"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		LogFormat:     os.Getenv("LOG_FORMAT"),
		SeedFile:      os.Getenv("SEED_FILE"),
	}

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = defaultLogFormat
	}

	cfg.SeedOnStart = cfg.IsDev()
	if raw := strings.TrimSpace(os.Getenv("SEED_ON_START")); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.SeedOnStart = v
		}
	}

	var warnings []string
	if cfg.AdminEmail == "" {
		warnings = append(warnings, "ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		warnings = append(warnings, "ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		warnings = append(warnings, "SESSION_SECRET is not set")
	}

	return cfg, warnings
}

// IsDev reports whether the app runs in local development mode.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development"
}
