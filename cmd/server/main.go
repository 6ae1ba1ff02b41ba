package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charleschow/mlb-winprob/internal/adapters/inbound/wp_api"
	"github.com/charleschow/mlb-winprob/internal/adapters/outbound/mlbstats"
	"github.com/charleschow/mlb-winprob/internal/config"
	"github.com/charleschow/mlb-winprob/internal/core/tracking"
	"github.com/charleschow/mlb-winprob/internal/core/winprob"
	"github.com/charleschow/mlb-winprob/internal/events"
	"github.com/charleschow/mlb-winprob/internal/fanout"
	"github.com/charleschow/mlb-winprob/internal/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	telemetry.Infof("Starting MLB win probability server")

	bus := events.NewBus()

	// ── Scenarios ───────────────────────────────────────────────
	if cfg.ScenariosPath != "" {
		sf, err := config.LoadScenarioFile(cfg.ScenariosPath)
		if err != nil {
			telemetry.Errorf("Failed to load scenarios: %v", err)
			os.Exit(1)
		}
		if err := winprob.RegisterScenarios(sf.Scenarios...); err != nil {
			telemetry.Errorf("Failed to register scenarios: %v", err)
			os.Exit(1)
		}
		telemetry.Infof("Loaded %d extra scenario(s) from %s", len(sf.Scenarios), cfg.ScenariosPath)
	}

	// ── Stats API client ────────────────────────────────────────
	stats := mlbstats.NewClient(cfg.MLBStatsBaseURL, cfg.MLBStatsRatePerSec, cfg.MLBStatsTimeout)
	telemetry.Infof("MLB Stats API  base=%s  rate=%.1f/s", cfg.MLBStatsBaseURL, cfg.MLBStatsRatePerSec)

	// ── Fan-out ─────────────────────────────────────────────────
	fan := fanout.NewServer(bus)

	opts := []wp_api.Option{
		wp_api.WithDefaultRPG(cfg.DefaultRunsPerGame),
		wp_api.WithLiveStream(fan.HandleWS),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Live tracker ────────────────────────────────────────────
	var store *tracking.Store
	if cfg.TrackerEnabled {
		var err error
		store, err = tracking.OpenStore(cfg.TrackerDBPath)
		if err != nil {
			telemetry.Warnf("Live tracker disabled: %v", err)
		} else {
			opts = append(opts, wp_api.WithHistory(store))
			tracker := tracking.NewTracker(stats, store, bus, cfg.TrackerInterval, cfg.DefaultRunsPerGame)
			go tracker.Run(ctx)
		}
	}

	// ── HTTP server ─────────────────────────────────────────────
	mux := http.NewServeMux()
	wp_api.NewHandler(stats, opts...).RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      wp_api.WithCORS(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Errorf("HTTP server: %v", err)
			os.Exit(1)
		}
	}()
	telemetry.Infof("API listening on %q  tracker=%t", addr, store != nil)

	// ── Shutdown ────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	telemetry.Infof("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	if store != nil {
		store.Close()
	}

	telemetry.Infof("Shutdown complete  requests=%d  invalid=%d  polls=%d  poll_errors=%d  snapshots=%d  events=%d  p50=%s  p99=%s",
		telemetry.Metrics.Requests.Value(),
		telemetry.Metrics.ValidationErrors.Value(),
		telemetry.Metrics.LivePolls.Value(),
		telemetry.Metrics.PollErrors.Value(),
		telemetry.Metrics.SnapshotsStored.Value(),
		telemetry.Metrics.EventsPublished.Value(),
		telemetry.Metrics.RequestLatency.P50(),
		telemetry.Metrics.RequestLatency.P99(),
	)
}
