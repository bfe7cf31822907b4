package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aquamind/aquamind/server/internal/alerts"
	"github.com/aquamind/aquamind/server/internal/api"
	"github.com/aquamind/aquamind/server/internal/auth"
	"github.com/aquamind/aquamind/server/internal/config"
	"github.com/aquamind/aquamind/server/internal/knowledge"
	"github.com/aquamind/aquamind/server/internal/learning"
	"github.com/aquamind/aquamind/server/internal/orchestrator"
	"github.com/aquamind/aquamind/server/internal/plc"
	"github.com/aquamind/aquamind/server/internal/receiver"
	"github.com/aquamind/aquamind/server/internal/store"
	"github.com/aquamind/aquamind/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("aquamind-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"readings_ttl", cfg.Server.Readings.TTL,
		"plc_broker", cfg.Server.PLC.Broker,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Knowledge base: compiled-in expert rules plus an optional YAML overlay.
	kb, err := knowledge.Load(cfg.Server.Knowledge.Path)
	if err != nil {
		slog.Error("failed to load knowledge base", "err", err)
		os.Exit(1)
	}

	// Readings store with background TTL eviction.
	st := store.New(cfg.Server.Readings.TTL)
	go st.Run(ctx)

	// Alerts engine — evaluates rules on every incoming snapshot.
	alertEngine := alerts.New(cfg.Server.Alerts)

	// Feedback learner.
	historySize := cfg.Server.Learning.HistorySize
	if historySize == 0 {
		historySize = learning.DefaultHistorySize
	}
	learner := learning.NewLearner(historySize)

	// PLC actuation bus. An empty broker means compute-only: decisions are
	// logged but not sent.
	var dispatcher orchestrator.Dispatcher
	if cfg.Server.PLC.Broker != "" {
		mq, err := plc.NewMQTT(
			cfg.Server.PLC.Broker,
			cfg.Server.PLC.ClientID,
			cfg.Server.PLC.Topic,
			cfg.Server.PLC.QoS,
		)
		if err != nil {
			slog.Error("failed to connect to PLC broker", "err", err)
			os.Exit(1)
		}
		defer mq.Close()
		dispatcher = mq
	} else {
		slog.Warn("no PLC broker configured — running compute-only")
		dispatcher = plc.LogDispatcher{}
	}

	orch := orchestrator.New(kb, learner, st, dispatcher)

	// WebSocket hub — broadcasts plant snapshots to operator panels every 5s.
	hub := ws.New(st, orch, 5*time.Second)
	go hub.Run(ctx)

	// Shared authentication middleware for ingest and REST API.
	protect := func(next http.Handler) http.Handler {
		return auth.Middleware(
			cfg.Server.Auth.Mode,
			cfg.Server.Auth.EffectiveHeader(),
			cfg.Server.Auth.Key(),
			next,
		)
	}

	httpMux := http.NewServeMux()
	httpMux.Handle("/ingest/v1/readings", protect(receiver.New(st, alertEngine)))
	httpMux.Handle("/api/", protect(api.New(st, orch, learner, alertEngine, kb)))
	httpMux.Handle("/ws/stream", hub)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("aquamind-server shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
}
