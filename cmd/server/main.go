package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/petrhn/arena-server/internal/api"
	"github.com/petrhn/arena-server/internal/config"
	"github.com/petrhn/arena-server/internal/factory"
	"github.com/petrhn/arena-server/internal/levels"
	"github.com/petrhn/arena-server/internal/realtime"
	"github.com/petrhn/arena-server/internal/services/identity"
	redisstorage "github.com/petrhn/arena-server/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// A missing thresholds file is survivable: the resolver falls back
	// to keeping every player at their current level.
	table, err := levels.LoadFromFile(cfg.LevelsPath, logger)
	if err != nil {
		logger.Warn("could not load level thresholds",
			slog.String("path", cfg.LevelsPath),
			slog.String("error", err.Error()))
		table = levels.NewTable(nil)
	}

	verifier := identity.NewJWTVerifier([]byte(cfg.JWTSecret), cfg.JWTIssuer)

	// Build factory config
	factoryCfg := factory.Config{
		Logger:      logger,
		Levels:      table,
		Verifier:    verifier,
		StorageType: cfg.StorageType,
		SQLitePath:  cfg.SQLitePath,
	}

	// Configure Redis if storage type is redis
	if factoryCfg.StorageType == factory.StorageTypeRedis {
		if cfg.RedisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("close error", slog.String("error", err.Error()))
		}
	}()

	// Create websocket handler
	realtimeHandler := realtime.NewHandler(realtime.HandlerConfig{
		Registry:    app.Registry,
		Relay:       app.Relay,
		Verifier:    app.Verifier,
		Logger:      logger,
		DefaultRoom: cfg.DefaultRoom,
	})

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		Verifier:           app.Verifier,
		Binder:             app.Binder,
		ProgressionService: app.ProgressionService,
		RealtimeHandler:    realtimeHandler,
		CORSOrigin:         cfg.CORSOrigin,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
