package config

import (
	"log"
	"os"
)

const (
	defaultDBPath = "./fleet.db"
	defaultPort   = "8080"
	defaultEnv    = "dev"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	DBPath string
	Port   string
	Env    string
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	_ = loadDotEnv(".env")

	cfg := Config{
		DBPath: os.Getenv("DB_PATH"),
		Port:   os.Getenv("PORT"),
		Env:    os.Getenv("ENV"),
	}

	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.Env == "" {
		log.Printf("warning: ENV is not set, assuming %s", defaultEnv)
		cfg.Env = defaultEnv
	}

	return cfg
}

// IsDev reports whether the app runs in local development mode, where
// migrations are applied automatically at startup.
func (c Config) IsDev() bool {
	return c.Env == defaultEnv
}
