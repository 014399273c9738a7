package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/petrhn/arena-server/internal/dependencies/clock"
	"github.com/petrhn/arena-server/internal/levels"
	"github.com/petrhn/arena-server/internal/realtime"
	"github.com/petrhn/arena-server/internal/services/identity"
	"github.com/petrhn/arena-server/internal/services/progression"
	"github.com/petrhn/arena-server/internal/storage"
	"github.com/petrhn/arena-server/internal/storage/gormstore"
	"github.com/petrhn/arena-server/internal/storage/memory"
	redisstorage "github.com/petrhn/arena-server/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeSQLite = "sqlite"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	Storage storage.Storage
	Clock   clock.Clock

	Levels             *levels.Table
	ProgressionService *progression.Service
	Binder             *identity.Service
	Verifier           identity.Verifier

	Registry *realtime.Registry
	Relay    *realtime.Relay
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// Levels is the level threshold table (required)
	Levels *levels.Table
	// Verifier checks externally issued tokens (required)
	Verifier identity.Verifier
	// StorageType selects the storage backend ("memory", "sqlite" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// SQLitePath is the database file (required if StorageType is sqlite)
	SQLitePath string
	// RedisConfig holds Redis connection settings (required if StorageType is redis)
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Levels == nil {
		return nil, errors.New("Levels table is required")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("Verifier is required")
	}

	clk := clock.New()

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	var store storage.Storage
	switch storageType {
	case StorageTypeMemory:
		store = memory.New(clk)
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		gormStore, err := gormstore.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = gormStore
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig, clk)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'sqlite' or 'redis'")
	}

	return newWithDependencies(store, clk, cfg.Levels, cfg.Verifier, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, table *levels.Table, verifier identity.Verifier, logger *slog.Logger) *App {
	progressionService := progression.New(store, table, logger)
	binder := identity.New(progressionService, logger)
	registry := realtime.NewRegistry(logger)
	relay := realtime.NewRelay(registry, logger)

	return &App{
		Storage:            store,
		Clock:              clk,
		Levels:             table,
		ProgressionService: progressionService,
		Binder:             binder,
		Verifier:           verifier,
		Registry:           registry,
		Relay:              relay,
	}
}

// Close releases the application's resources: the registry tears down
// live sessions, then the storage backend closes its connections.
func (a *App) Close() error {
	a.Registry.Close()
	return a.Storage.Close()
}
