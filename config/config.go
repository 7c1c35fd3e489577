package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the QMS server.
type Config struct {
	Port          string        `env:"PORT" envDefault:"8080"`
	DatabasePath  string        `env:"DATABASE_PATH" envDefault:"qms.db"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	AdminUsername string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string        `env:"ADMIN_PASSWORD" envDefault:"admin123"`
}

// Load reads the optional .env file and parses configuration from the
// environment. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}
