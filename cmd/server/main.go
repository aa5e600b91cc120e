/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the ticket booking server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load .env, YAML config and TICKET_* overrides, then validate
  3. Open the document store (memory, sqlite or redis)
  4. Create engine, verifier and API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  --config    YAML config file (default: $TICKET_CONFIG)
  --env-file  .env file to load (default: .env.{environment}, then .env)
  --port      HTTP server port
  --store     Store driver: memory, sqlite, redis
  --db        SQLite database path, ":memory:" for in-memory

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (server.shutdown_timeout, 30s)
  3. Close the store
  4. Exit

EXAMPLES:
  # Development, in-memory store
  ./server

  # SQLite file
  ./server --store=sqlite --db=./data/tickets.db

  # Redis, production config
  TICKET_ENV=production TICKET_JWT_SECRET=... ./server --config=/etc/ticket-engine.yaml --store=redis

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration layers
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/spf13/pflag"
	"github.com/warp/ticket-engine/api"
	"github.com/warp/ticket-engine/auth"
	"github.com/warp/ticket-engine/booking"
	"github.com/warp/ticket-engine/booking/store"
	"github.com/warp/ticket-engine/config"
	"github.com/warp/ticket-engine/store/redis"
	"github.com/warp/ticket-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// documentStore is a booking store the server can reset and close.
type documentStore interface {
	booking.DocumentStore
	api.Resetter
	Close() error
}

type memoryStore struct{ *store.Memory }

func (memoryStore) Close() error { return nil }

func run() error {
	// Flags
	configPath := pflag.String("config", os.Getenv("TICKET_CONFIG"), "YAML config file")
	envFile := pflag.String("env-file", "", ".env file to load")
	port := pflag.Int("port", 0, "HTTP server port (overrides config)")
	driver := pflag.String("store", "", "store driver: memory, sqlite, redis (overrides config)")
	dbPath := pflag.String("db", "", "SQLite database path (overrides config)")
	pflag.Parse()

	env := config.Environment(os.Getenv("TICKET_ENV"))
	if env == "" {
		env = config.Development
	}
	loadedEnv, err := config.LoadDotEnv(env, *envFile)
	if err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *driver != "" {
		cfg.Store.Driver = *driver
	}
	if *dbPath != "" {
		cfg.Store.SQLitePath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if loadedEnv != "" {
		logger.Info("loaded environment file", "file", loadedEnv)
	}

	// Initialize store
	docs, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer docs.Close()

	loc, _ := cfg.Location()
	engine := booking.NewEngine(docs,
		booking.WithLocation(loc),
		booking.WithLogger(logger),
		booking.WithCommitAttempts(cfg.Booking.CommitAttempts),
	)

	// Initialize handler
	handler := api.NewHandler(engine, auth.NewJWTVerifier(cfg.Auth.Secret, cfg.Auth.Issuer), logger)
	handler.Store = docs

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigin: cfg.Server.AllowedOrigin,
		RateLimit:     cfg.Server.RateLimit,
		RateBurst:     cfg.Server.RateBurst,
		DevRoutes:     cfg.DevRoutes(),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"port", cfg.Server.Port, "environment", cfg.Environment,
			"store", cfg.Store.Driver, "time_zone", cfg.Booking.TimeZone)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func openStore(cfg *config.Config) (documentStore, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return s, nil

	case config.DriverRedis:
		s := redis.New(goredis.NewClient(&goredis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		}), cfg.Store.RedisPrefix)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Store.RedisAddr, err)
		}
		return s, nil

	default:
		return memoryStore{store.NewMemory()}, nil
	}
}
