package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, loaded from the environment
type Config struct {
	// Host and Port are the HTTP listen address
	Host string `env:"ARENA_HOST"`
	Port int    `env:"ARENA_PORT" envDefault:"8080"`

	// StorageType selects the storage backend: memory, sqlite or redis
	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	// SQLitePath is the database file when StorageType is sqlite
	SQLitePath string `env:"SQLITE_PATH" envDefault:"arena.db"`
	// RedisURL is the connection URL when StorageType is redis
	RedisURL string `env:"REDIS_URL"`

	// JWTSecret is the shared secret of the external token issuer
	JWTSecret string `env:"JWT_SECRET,required"`
	// JWTIssuer, when set, must match the token's iss claim
	JWTIssuer string `env:"JWT_ISSUER"`

	// LevelsPath is the level threshold table file
	LevelsPath string `env:"LEVELS_PATH" envDefault:"data/levels.json"`

	// CORSOrigin is the allowed cross-origin value ("*" when empty)
	CORSOrigin string `env:"CORS_ORIGIN"`

	// DefaultRoom is the room joined when a join message names none
	DefaultRoom string `env:"DEFAULT_ROOM"`
}

// Load parses the configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
