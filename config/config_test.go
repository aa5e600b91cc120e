package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "https://tubes-cc-tt43g1-kel7-web.vercel.app", cfg.Server.AllowedOrigin)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout())
	assert.True(t, cfg.DevRoutes())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
}

func TestLoad_FileAndEnvironmentSection(t *testing.T) {
	path := writeFile(t, "ticket.yaml", `
environment: staging
server:
  port: 9000
store:
  driver: sqlite
  sqlite_path: /var/lib/tickets/base.db
booking:
  time_zone: UTC
staging:
  store:
    sqlite_path: /var/lib/tickets/staging.db
  log:
    level: debug
production:
  store:
    sqlite_path: /var/lib/tickets/prod.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Staging, cfg.Environment)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/var/lib/tickets/staging.db", cfg.Store.SQLitePath)
	assert.False(t, cfg.DevRoutes())

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_EnvironmentVariablesWin(t *testing.T) {
	path := writeFile(t, "ticket.yaml", "server:\n  port: 9000\n")
	t.Setenv("TICKET_PORT", "9100")
	t.Setenv("TICKET_STORE", "redis")
	t.Setenv("TICKET_REDIS_ADDR", "cache:6379")
	t.Setenv("TICKET_RATE_LIMIT", "2.5")
	t.Setenv("TICKET_JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 2.5, cfg.Server.RateLimit)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
}

func TestLoad_EnvSelectsEnvironmentSection(t *testing.T) {
	path := writeFile(t, "ticket.yaml", `
production:
  server:
    allowed_origin: https://tickets.example.com
`)
	t.Setenv("TICKET_ENV", "production")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Production, cfg.Environment)
	assert.Equal(t, "https://tickets.example.com", cfg.Server.AllowedOrigin)
}

func TestLoad_ProductionDefaults(t *testing.T) {
	t.Setenv("TICKET_ENV", "production")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)

	err = cfg.Validate()
	assert.ErrorContains(t, err, "auth.secret must be set in production")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "server: [unclosed"))
	assert.Error(t, err)

	t.Setenv("TICKET_PORT", "eighty")
	_, err = Load("")
	assert.ErrorContains(t, err, "TICKET_PORT")
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Environment = "qa"
	cfg.Server.Port = 0
	cfg.Store.Driver = "postgres"
	cfg.Booking.TimeZone = "Mars/Olympus"
	cfg.Booking.CommitAttempts = 0
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"invalid environment",
		"server.port",
		"unknown store driver",
		"booking.time_zone",
		"booking.commit_attempts",
		"log.level",
	} {
		assert.ErrorContains(t, err, want)
	}
}

func TestValidate_DriverRequirements(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = DriverSQLite
	cfg.Store.SQLitePath = ""
	assert.ErrorContains(t, cfg.Validate(), "store.sqlite_path")

	cfg = Default()
	cfg.Store.Driver = DriverRedis
	cfg.Store.RedisAddr = ""
	assert.ErrorContains(t, cfg.Validate(), "store.redis_addr")
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, "custom.env", "TICKET_DOTENV_PROBE=from-file\n")
	t.Setenv("TICKET_DOTENV_PROBE", "")
	os.Unsetenv("TICKET_DOTENV_PROBE")

	loaded, err := LoadDotEnv(Development, path)
	require.NoError(t, err)
	assert.Equal(t, path, loaded)
	assert.Equal(t, "from-file", os.Getenv("TICKET_DOTENV_PROBE"))

	_, err = LoadDotEnv(Development, filepath.Join(t.TempDir(), "nope.env"))
	assert.Error(t, err)
}
