// Package config provides configuration loading for the ticket engine server.
//
// Configuration is layered, later layers winning:
//   - Default() values
//   - an optional YAML file (--config flag or TICKET_CONFIG)
//   - the file's environment section (development, staging, production)
//   - TICKET_* environment variables, optionally read from .env files
//   - command-line flags, applied by cmd/server
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // booking dates need the zone database on minimal images

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// DevSecret signs tokens when no secret is configured. Rejected in production.
const DevSecret = "dev-secret"

// Config is the server configuration.
type Config struct {
	Environment Environment   `yaml:"environment"`
	Server      ServerConfig  `yaml:"server"`
	Store       StoreConfig   `yaml:"store"`
	Auth        AuthConfig    `yaml:"auth"`
	Booking     BookingConfig `yaml:"booking"`
	Log         LogConfig     `yaml:"log"`

	// Per-environment overrides, applied after the base config is loaded.
	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains the sections that can be overridden per environment.
type Overrides struct {
	Server *ServerConfig `yaml:"server,omitempty"`
	Store  *StoreConfig  `yaml:"store,omitempty"`
	Log    *LogConfig    `yaml:"log,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port int `yaml:"port"`

	// AllowedOrigin is the single origin allowed by CORS.
	AllowedOrigin string `yaml:"allowed_origin"`

	// RateLimit is the sustained request rate, per second, across all clients.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`

	// ShutdownTimeout bounds the drain of in-flight requests. Default: 30s
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	// Driver is one of memory, sqlite, redis.
	Driver string `yaml:"driver"`

	SQLitePath string `yaml:"sqlite_path"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

// AuthConfig configures identity token verification.
type AuthConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// BookingConfig configures the booking engine.
type BookingConfig struct {
	// TimeZone decides which calendar day is "today". Default: Asia/Jakarta
	TimeZone string `yaml:"time_zone"`

	CommitAttempts int `yaml:"commit_attempts"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			Port:            8080,
			AllowedOrigin:   "https://tubes-cc-tt43g1-kel7-web.vercel.app",
			RateLimit:       100,
			RateBurst:       200,
			ShutdownTimeout: "30s",
		},
		Store: StoreConfig{
			Driver:      DriverMemory,
			SQLitePath:  "tickets.db",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "ticket-engine",
		},
		Auth: AuthConfig{
			Secret: DevSecret,
			Issuer: "ticket-engine",
		},
		Booking: BookingConfig{
			TimeZone:       "Asia/Jakarta",
			CommitAttempts: 5,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// not empty) and TICKET_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if env := os.Getenv("TICKET_ENV"); env != "" {
		cfg.Environment = Environment(env)
	}
	cfg.applyEnvironmentOverrides()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads TICKET_* variables from .env files. An explicit file must
// exist; otherwise .env.{environment} then .env are tried, and a missing
// file is not an error. Variables already set in the process win.
func LoadDotEnv(env Environment, explicit string) (string, error) {
	if explicit != "" {
		if err := godotenv.Load(explicit); err != nil {
			return "", fmt.Errorf("load env file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, name := range []string{".env." + string(env), ".env"} {
		if err := godotenv.Load(name); err == nil {
			return name, nil
		}
	}
	return "", nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &Overrides{Log: &LogConfig{Level: "warn"}}
		}
	}

	if overrides == nil {
		return
	}

	if o := overrides.Server; o != nil {
		if o.Port != 0 {
			c.Server.Port = o.Port
		}
		if o.AllowedOrigin != "" {
			c.Server.AllowedOrigin = o.AllowedOrigin
		}
		if o.RateLimit != 0 {
			c.Server.RateLimit = o.RateLimit
		}
		if o.RateBurst != 0 {
			c.Server.RateBurst = o.RateBurst
		}
		if o.ShutdownTimeout != "" {
			c.Server.ShutdownTimeout = o.ShutdownTimeout
		}
	}

	if o := overrides.Store; o != nil {
		if o.Driver != "" {
			c.Store.Driver = o.Driver
		}
		if o.SQLitePath != "" {
			c.Store.SQLitePath = o.SQLitePath
		}
		if o.RedisAddr != "" {
			c.Store.RedisAddr = o.RedisAddr
		}
		if o.RedisPassword != "" {
			c.Store.RedisPassword = o.RedisPassword
		}
		if o.RedisDB != 0 {
			c.Store.RedisDB = o.RedisDB
		}
		if o.RedisPrefix != "" {
			c.Store.RedisPrefix = o.RedisPrefix
		}
	}

	if o := overrides.Log; o != nil && o.Level != "" {
		c.Log.Level = o.Level
	}
}

// applyEnv applies TICKET_* environment variables.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"TICKET_ALLOWED_ORIGIN":   &c.Server.AllowedOrigin,
		"TICKET_SHUTDOWN_TIMEOUT": &c.Server.ShutdownTimeout,
		"TICKET_STORE":            &c.Store.Driver,
		"TICKET_DB":               &c.Store.SQLitePath,
		"TICKET_REDIS_ADDR":       &c.Store.RedisAddr,
		"TICKET_REDIS_PASSWORD":   &c.Store.RedisPassword,
		"TICKET_REDIS_PREFIX":     &c.Store.RedisPrefix,
		"TICKET_JWT_SECRET":       &c.Auth.Secret,
		"TICKET_JWT_ISSUER":       &c.Auth.Issuer,
		"TICKET_TIMEZONE":         &c.Booking.TimeZone,
		"TICKET_LOG_LEVEL":        &c.Log.Level,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"TICKET_PORT":            &c.Server.Port,
		"TICKET_RATE_BURST":      &c.Server.RateBurst,
		"TICKET_REDIS_DB":        &c.Store.RedisDB,
		"TICKET_COMMIT_ATTEMPTS": &c.Booking.CommitAttempts,
	}
	for name, dst := range ints {
		v, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv("TICKET_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TICKET_RATE_LIMIT: %w", err)
		}
		c.Server.RateLimit = f
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Location returns the booking time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Booking.TimeZone)
}

// ShutdownTimeout returns the drain timeout, 30s if unset or invalid.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// LogLevel returns the slog level named by Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level)))
	return level, err
}

// DevRoutes reports whether the development-only endpoints are mounted.
func (c *Config) DevRoutes() bool { return c.Environment == Development }

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case Development, Staging, Production:
	default:
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.AllowedOrigin == "" {
		errs = append(errs, errors.New("server.allowed_origin is required"))
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		errs = append(errs, errors.New("server.rate_limit and server.rate_burst must be positive"))
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout: %w", err))
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite driver"))
		}
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver: %q", c.Store.Driver))
	}

	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("auth.secret is required"))
	} else if c.Environment == Production && c.Auth.Secret == DevSecret {
		errs = append(errs, errors.New("auth.secret must be set in production"))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("booking.time_zone: %w", err))
	}
	if c.Booking.CommitAttempts < 1 {
		errs = append(errs, fmt.Errorf("booking.commit_attempts must be at least 1"))
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}
