// Command cuetrack is the main entry point for the cuetrack tracking server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cuetrack/cuetrack/internal/config"
	"github.com/cuetrack/cuetrack/internal/observe"
	"github.com/cuetrack/cuetrack/internal/script"
	"github.com/cuetrack/cuetrack/internal/server"
	"github.com/cuetrack/cuetrack/internal/track"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cuetrack: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("cuetrack starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Observability ─────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "cuetrack",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Script store ──────────────────────────────────────────────────────────
	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise script store", "err", err)
		return 1
	}
	defer closeStore()

	// ── Session manager + server ──────────────────────────────────────────────
	sessions := track.NewSessionManager(track.Config{
		LookaheadWords:      cfg.Tracking.LookaheadWords,
		ConfidenceThreshold: cfg.Tracking.ConfidenceThreshold,
		MaxTranscriptLen:    cfg.Tracking.MaxTranscriptLength,
		MatchExpiry:         cfg.Tracking.MatchExpiry,
		PrefixLen:           cfg.Tracking.NormalizedPrefixLength,
		SimilarityThreshold: cfg.Tracking.SimilarityThreshold,
		PhoneticThreshold:   cfg.Tracking.PhoneticThreshold,
	}, metrics)

	srv := server.New(cfg.Server.ListenAddr, store, sessions, metrics)

	slog.Info("server ready, press Ctrl+C to shut down")
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// loadConfig reads the config file, falling back to the all-defaults config
// when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("config file not found, using defaults", "path", path)
		cfg = &config.Config{}
		cfg.ApplyDefaults()
		return cfg, nil
	}
	return nil, err
}

// buildStore creates the configured script store: PostgreSQL when a DSN is
// set, the in-memory store otherwise.
func buildStore(ctx context.Context, cfg *config.Config) (script.Store, func(), error) {
	dsn := cfg.Storage.PostgresDSN
	if dsn == "" {
		slog.Info("no postgres_dsn configured, scripts are stored in memory only")
		return script.NewMemStore(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	store := script.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	slog.Info("script store connected", "backend", "postgres")
	return store, pool.Close, nil
}

// newLogger builds the process logger for the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
