// Package main is the entry point for the chamicore-sandwich service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"git.cscs.ch/openchami/chamicore-sandwich/api"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/config"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/dbutil"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/events"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/metrics"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/server"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/store"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/telemetry"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.DevMode {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "sandwich").Str("version", version).Logger()
	}

	logger := log.With().Str("component", "main").Logger()
	logger.Info().Str("version", version).Str("commit", commit).Str("build_date", buildDate).Msg("starting chamicore-sandwich")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownOTel, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "chamicore-sandwich",
		ServiceVersion: version,
		TracesEnabled:  cfg.TracesEnabled,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize OpenTelemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := shutdownOTel(shutdownCtx); shutdownErr != nil {
			logger.Error().Err(shutdownErr).Msg("failed to shut down OpenTelemetry")
		}
	}()

	dialect, err := store.ParseDialect(cfg.DBDriver)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid database driver")
	}

	if dialect == store.DialectPostgres {
		if schemaErr := ensurePostgresSchema(ctx, cfg.DBDSN); schemaErr != nil {
			logger.Fatal().Err(schemaErr).Msg("failed to ensure sandwich schema exists")
		}
	}

	result, err := dbutil.RunMigrations(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to run database migrations")
	}
	logger.Info().Uint("version", result.Version).Bool("dirty", result.Dirty).Msg("database migration complete")

	db, err := dbutil.Connect(ctx, dbutil.PoolConfig{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DBDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	logger.Info().Str("driver", cfg.DBDriver).Msg("connected to database")

	opts := []server.Option{server.WithOpenAPISpec(api.OpenAPISpec)}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		opts = append(opts, server.WithMetrics(m))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		natsPublisher, natsErr := events.NewNATSPublisher(events.NATSConfig{
			URL:    cfg.NATSURL,
			Stream: cfg.NATSStream,
		})
		if natsErr != nil {
			logger.Fatal().Err(natsErr).Msg("failed to connect to NATS")
		}
		defer func() {
			if closeErr := natsPublisher.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close NATS connection")
			}
		}()
		publisher = natsPublisher
		logger.Info().Str("stream", cfg.NATSStream).Msg("publishing change events to NATS")
	} else {
		logger.Info().Msg("CHAMICORE_NATS_URL not set; change events disabled")
	}
	if m != nil {
		publisher = m.InstrumentPublisher(publisher)
	}
	opts = append(opts, server.WithPublisher(publisher))

	st := store.New(db, dialect)
	srv := server.New(st, cfg, version, commit, buildDate, opts...)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case serveErr := <-errCh:
		logger.Error().Err(serveErr).Msg("HTTP server error")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error().Err(shutdownErr).Msg("HTTP server shutdown error")
	}
	logger.Info().Msg("server stopped gracefully")
}

// ensurePostgresSchema creates the sandwich schema named by search_path in
// the DSN so migrations have somewhere to land.
func ensurePostgresSchema(ctx context.Context, dsn string) error {
	db, err := dbutil.Connect(ctx, dbutil.PoolConfig{Driver: dbutil.DriverPostgres, DSN: dsn})
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS sandwich")
	return err
}
