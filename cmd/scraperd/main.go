// Package main wires together the event scraper service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/citypulse/event-scraper/internal/api"
	"github.com/citypulse/event-scraper/internal/browser"
	"github.com/citypulse/event-scraper/internal/clock/system"
	"github.com/citypulse/event-scraper/internal/config"
	"github.com/citypulse/event-scraper/internal/extract"
	"github.com/citypulse/event-scraper/internal/fetch"
	"github.com/citypulse/event-scraper/internal/logging"
	"github.com/citypulse/event-scraper/internal/normalize"
	"github.com/citypulse/event-scraper/internal/orchestrator"
	"github.com/citypulse/event-scraper/internal/schedule"
	"github.com/citypulse/event-scraper/internal/snapshot"
	mongostore "github.com/citypulse/event-scraper/internal/store/mongo"
	"github.com/citypulse/event-scraper/internal/writer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, cfg.MongoTimeout())
	st, err := mongostore.Connect(connectCtx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.MongoTimeout(),
	})
	cancel()
	if err != nil {
		return fmt.Errorf("connect event store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout())
		defer cancel()
		if closeErr := st.Close(closeCtx); closeErr != nil {
			logger.Warn("event store close failed", zap.Error(closeErr))
		}
	}()

	clock := system.New()

	session := browser.New(browser.Config{
		UserAgent:   cfg.Scraper.UserAgent,
		NavTimeout:  cfg.NavTimeout(),
		SettleDelay: cfg.SettleDelay(),
	}, logger)

	extractor := extract.New(nil)
	probe := fetch.NewCollyProbe(fetch.ProbeConfig{
		UserAgent: cfg.Scraper.UserAgent,
		Timeout:   cfg.ProbeTimeout(),
	})
	fetcher := fetch.New(probe, session, extractor, logger)

	siteLoc, err := normalize.SiteLocation()
	if err != nil {
		logger.Warn("site timezone unavailable, event times fall back to UTC", zap.Error(err))
	}
	normalizer := normalize.New(normalize.NewClassifier(), siteLoc, clock)
	eventWriter := writer.New(st, clock, logger)

	var sink orchestrator.SnapshotSink
	if cfg.Snapshots.Enabled {
		fsSink, err := snapshot.New(snapshot.Config{BaseDir: cfg.Snapshots.BaseDir})
		if err != nil {
			return fmt.Errorf("init snapshot sink: %w", err)
		}
		sink = fsSink
	}

	runner := orchestrator.New(orchestrator.Config{
		Cities:       cfg.Scraper.Cities,
		PerCityLimit: cfg.Scraper.PerCityLimit,
		CityDelay:    cfg.CityDelay(),
		URLFor:       cfg.ListingURL,
	}, session, fetcher, extractor, normalizer, eventWriter, sink, clock, logger)

	if cfg.Schedule.Enabled {
		scheduler, err := schedule.New(cfg.Schedule.Cron, runner, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info("daily crawl scheduled", zap.String("cron", cfg.Schedule.Cron))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(runner, st, clock, cfg, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	session.Close()
	return nil
}
