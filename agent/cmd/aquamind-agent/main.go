package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aquamind/aquamind/agent/internal/config"
	"github.com/aquamind/aquamind/agent/internal/sensors"
	"github.com/aquamind/aquamind/agent/internal/shipper"
	"github.com/aquamind/aquamind/agent/internal/trend"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("aquamind-agent starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"server_endpoint", cfg.Agent.ServerEndpoint,
		"sources", len(cfg.Agent.Sources),
		"scrape_interval", cfg.Agent.ScrapeInterval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Build one scraper per configured instrument.
	type instrument struct {
		src config.Source
		s   sensors.Scraper
	}
	var instruments []instrument
	for _, src := range cfg.Agent.Sources {
		s, err := sensors.New(src)
		if err != nil {
			slog.Error("skipping source — could not build scraper", "source", src.ID, "err", err)
			continue
		}
		instruments = append(instruments, instrument{src: src, s: s})
		slog.Info("registered source", "id", src.ID, "type", src.Type, "endpoint", src.Endpoint)
	}

	if len(instruments) == 0 {
		slog.Warn("no sources configured — agent will idle")
	}

	// Watch config file for hot-reload (logs only in this phase).
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			slog.Info("config hot-reloaded", "sources", len(updated.Agent.Sources))
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// Start the HTTP shipper — runs until ctx is cancelled.
	ship := shipper.New(cfg.Agent)
	go ship.Run(ctx)

	// Trend engine derives toxicity level and trend across samples.
	trends := trend.NewEngine()

	// Scrape loop: poll every ScrapeInterval, annotate, ship.
	go func() {
		ticker := time.NewTicker(cfg.Agent.ScrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, inst := range instruments {
					snap, err := inst.s.Scrape(ctx)
					if err != nil {
						slog.Warn("scrape error", "source", inst.src.ID, "err", err)
						continue
					}
					trends.Annotate(snap)
					ship.Ship(snap)
					slog.Debug("shipped snapshot", "source", inst.src.ID)
				}
			}
		}
	}()

	<-ctx.Done()
	slog.Info("aquamind-agent shutting down")
}
