package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the process configuration, loaded from the environment.
type Config struct {
	Addr          string        `env:"ADDR" envDefault:":8080"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`
	RoomRetention time.Duration `env:"ROOM_RETENTION" envDefault:"24h"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
