package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ai-gateway/chatstream-go/internal/config"
	"github.com/ai-gateway/chatstream-go/internal/observability"
	"github.com/ai-gateway/chatstream-go/internal/provider"
	"github.com/ai-gateway/chatstream-go/internal/provider/echo"
	"github.com/ai-gateway/chatstream-go/internal/provider/gemini"
	"github.com/ai-gateway/chatstream-go/internal/provider/langchain"
	"github.com/ai-gateway/chatstream-go/internal/routing"
	"github.com/ai-gateway/chatstream-go/internal/server"
	"github.com/ai-gateway/chatstream-go/internal/store"
	"github.com/ai-gateway/chatstream-go/internal/store/memory"
	"github.com/ai-gateway/chatstream-go/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog := config.SetupLogger(cfg.Log)
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TelemetryURL != "" {
		tp, err := observability.Setup(ctx, cfg.TelemetryURL, cfg.TelemetryInsecure)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.CatalogPath != "" {
		assistants, err := store.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return err
		}
		n, err := store.Seed(ctx, st, assistants)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		logger.Info("catalog seeded", "path", cfg.CatalogPath, "created", n)
	}

	rt := routing.New()
	if cfg.Provider.Configured() {
		p, err := buildProvider(ctx, cfg.Provider)
		if err != nil {
			return err
		}
		rt.Register(cfg.Provider.Name, p)
	} else {
		logger.Warn("provider credential missing; chat requests will fail", "provider", cfg.Provider.Name)
	}

	return server.New(cfg, rt, st, logger).Start(ctx)
}

// openStore uses Postgres when a DSN is configured and memory otherwise.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.Database.DSN == "" {
		return memory.New(), func() {}, nil
	}
	if cfg.Database.Migrate {
		if err := postgres.RunMigrations(ctx, cfg.Database.DSN); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewStore(pool), pool.Close, nil
}

func buildProvider(ctx context.Context, cfg config.Provider) (provider.Provider, error) {
	switch cfg.Name {
	case "gemini":
		return gemini.New(ctx, gemini.Config{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL})
	case "echo":
		return echo.New(), nil
	case langchain.BackendOpenAI, langchain.BackendAnthropic, langchain.BackendOllama:
		return langchain.New(langchain.Config{
			Backend: cfg.Name,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}
