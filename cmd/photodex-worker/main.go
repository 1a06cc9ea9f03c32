// Package main provides the entry point for the photodex ingestion worker.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grayfield/photodex/internal/commerce"
	"github.com/grayfield/photodex/internal/config"
	"github.com/grayfield/photodex/internal/index"
	"github.com/grayfield/photodex/internal/service"
	"github.com/grayfield/photodex/internal/status"
	"github.com/grayfield/photodex/internal/store"
	"github.com/grayfield/photodex/internal/trigger"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", os.Getenv("PHOTODEX_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.Level())
	defer cleanup()
	slog.SetDefault(logger)

	logger.Info("photodex worker starting",
		"version", version,
		"orders_root", cfg.OrdersRoot,
		"scheduled_hour", cfg.ScheduledHour,
		"meili_url", cfg.MeiliURL,
	)

	// A missing root (volume not mounted yet) aborts individual runs, not
	// the worker; the poll loop picks work up once the mount appears.
	if _, err := os.Stat(cfg.OrdersRoot); err != nil {
		logger.Warn("orders root not accessible yet, polling anyway", "root", cfg.OrdersRoot, "error", err)
	}

	publisher := index.NewMeiliPublisher(index.Config{
		URL:    cfg.MeiliURL,
		APIKey: cfg.MeiliKey,
	})
	{
		// An unreachable index must not keep the worker down; publishing
		// is retried naturally on the next run.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := publisher.EnsureIndex(ctx); err != nil {
			logger.Warn("search index initialization failed, continuing", "error", err)
		}
		cancel()
	}

	fetcher := commerce.NewFetcher(commerce.Config{
		BaseURL:     cfg.APIBaseURL,
		APIKey:      cfg.APIKey,
		MinInterval: cfg.APIDelay,
		Timeout:     cfg.APITimeout,
	})

	reindexer := service.NewReindexer(
		store.NewOrderStore(cfg.OrdersRoot),
		fetcher,
		publisher,
		status.NewReporter(cfg.OrdersRoot),
		trigger.NewGateway(cfg.OrdersRoot, cfg.ScheduledHour),
	)
	reindexer.SetPollInterval(cfg.PollInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reindexer.RunLoop(ctx)

	snap := reindexer.Stats()
	logger.Info("photodex worker stopped", "uptime_seconds", snap.UptimeSeconds)
}
