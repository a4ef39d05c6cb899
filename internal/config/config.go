package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	LockfilePath string        `env:"LOCKFILE_PATH"`
	ServerPort   string        `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	MetadataURL  string        `env:"METADATA_URL" envDefault:"https://valorant-api.com"`
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"3s"`

	// pause before each non-self MMR lookup when the live match rank cache is rebuilt
	MMRFetchDelay time.Duration `env:"MMR_FETCH_DELAY" envDefault:"300ms"`

	Presence PresenceConfig
}

type PresenceConfig struct {
	Enabled bool   `env:"PRESENCE_ENABLED" envDefault:"true"`
	Details string `env:"PRESENCE_DETAILS" envDefault:"Playing Valorant with Downfall"`
	State   string `env:"PRESENCE_STATE"`
	Every   int    `env:"PRESENCE_EVERY" envDefault:"10"`
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("lockfile_path", cfg.LockfilePath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("tick_interval", cfg.TickInterval).
		Dur("mmr_fetch_delay", cfg.MMRFetchDelay).
		Bool("presence_enabled", cfg.Presence.Enabled).
		Msg("configuration loaded")

	return cfg, nil
}

// Parse reads the process environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if c.MMRFetchDelay < 0 {
		return fmt.Errorf("MMR_FETCH_DELAY must not be negative, got %s", c.MMRFetchDelay)
	}
	if c.Presence.Every <= 0 {
		return fmt.Errorf("PRESENCE_EVERY must be positive, got %d", c.Presence.Every)
	}
	return nil
}

var Module = fx.Provide(Load)
