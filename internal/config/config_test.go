package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"CHAMICORE_SANDWICH_LISTEN_ADDR",
	"CHAMICORE_SANDWICH_DB_DRIVER",
	"CHAMICORE_SANDWICH_DB_DSN",
	"CHAMICORE_SANDWICH_LOG_LEVEL",
	"CHAMICORE_SANDWICH_DEV_MODE",
	"CHAMICORE_SANDWICH_METRICS_ENABLED",
	"CHAMICORE_SANDWICH_TRACES_ENABLED",
	"CHAMICORE_SANDWICH_OTLP_ENDPOINT",
	"CHAMICORE_NATS_URL",
	"CHAMICORE_SANDWICH_NATS_STREAM",
	"CHAMICORE_SANDWICH_RATE_LIMIT_RPS",
	"CHAMICORE_SANDWICH_RATE_LIMIT_BURST",
	"CHAMICORE_SANDWICH_CORS_ORIGINS",
	"CHAMICORE_SANDWICH_DB_MAX_OPEN_CONNS",
	"CHAMICORE_SANDWICH_DB_MAX_IDLE_CONNS",
	"CHAMICORE_SANDWICH_DB_CONN_MAX_LIFETIME",
	"CHAMICORE_SANDWICH_SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, defaultDSN, cfg.DBDSN)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.TracesEnabled)
	assert.Equal(t, defaultOTLPEndpoint, cfg.OTLPEndpoint)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, defaultNATSStream, cfg.NATSStream)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.Equal(t, defaultRateLimitBurst, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, defaultMaxOpenConns, cfg.DBMaxOpenConns)
	assert.Equal(t, defaultMaxIdleConns, cfg.DBMaxIdleConns)
	assert.Equal(t, defaultConnMaxLifetime, cfg.DBConnMaxLifetime)
	assert.Equal(t, defaultShutdownTimeout, cfg.ShutdownTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAMICORE_SANDWICH_LISTEN_ADDR", ":9999")
	t.Setenv("CHAMICORE_SANDWICH_DB_DRIVER", " SQLite ")
	t.Setenv("CHAMICORE_SANDWICH_DB_DSN", "/var/lib/sandwich.db")
	t.Setenv("CHAMICORE_SANDWICH_LOG_LEVEL", "DEBUG")
	t.Setenv("CHAMICORE_SANDWICH_DEV_MODE", "yes")
	t.Setenv("CHAMICORE_SANDWICH_METRICS_ENABLED", "off")
	t.Setenv("CHAMICORE_SANDWICH_TRACES_ENABLED", "true")
	t.Setenv("CHAMICORE_NATS_URL", " nats://nats:4222 ")
	t.Setenv("CHAMICORE_SANDWICH_RATE_LIMIT_RPS", "12.5")
	t.Setenv("CHAMICORE_SANDWICH_RATE_LIMIT_BURST", "5")
	t.Setenv("CHAMICORE_SANDWICH_CORS_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("CHAMICORE_SANDWICH_DB_MAX_OPEN_CONNS", "4")
	t.Setenv("CHAMICORE_SANDWICH_DB_MAX_IDLE_CONNS", "10")
	t.Setenv("CHAMICORE_SANDWICH_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/var/lib/sandwich.db", cfg.DBDSN)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.False(t, cfg.MetricsEnabled)
	assert.True(t, cfg.TracesEnabled)
	assert.Equal(t, "nats://nats:4222", cfg.NATSURL)
	assert.Equal(t, 12.5, cfg.RateLimitRPS)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 4, cfg.DBMaxOpenConns)
	assert.Equal(t, 4, cfg.DBMaxIdleConns)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAMICORE_SANDWICH_DEV_MODE", "maybe")
	t.Setenv("CHAMICORE_SANDWICH_RATE_LIMIT_RPS", "-1")
	t.Setenv("CHAMICORE_SANDWICH_RATE_LIMIT_BURST", "0")
	t.Setenv("CHAMICORE_SANDWICH_DB_CONN_MAX_LIFETIME", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.DevMode)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.Equal(t, defaultRateLimitBurst, cfg.RateLimitBurst)
	assert.Equal(t, defaultConnMaxLifetime, cfg.DBConnMaxLifetime)
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAMICORE_SANDWICH_DB_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHAMICORE_SANDWICH_DB_DRIVER")
}

func TestLoad_BlankDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAMICORE_SANDWICH_DB_DSN", "   ")

	_, err := Load()
	require.EqualError(t, err, "CHAMICORE_SANDWICH_DB_DSN is required")
}
