package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charleschow/mlb-winprob/internal/config"
	"github.com/charleschow/mlb-winprob/internal/core/display"
	"github.com/charleschow/mlb-winprob/internal/events"
	"github.com/charleschow/mlb-winprob/internal/fanout"
	"github.com/charleschow/mlb-winprob/internal/telemetry"
)

func main() {
	cfg := config.Load()
	addr := flag.String("addr", cfg.FanoutAddr, "fan-out WebSocket URL")
	game := flag.String("game", "", "only follow this gamePk")
	flag.Parse()

	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

	bus := events.NewBus()
	display.NewObserver(os.Stdout).Subscribe(bus)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	telemetry.Infof("Watching %s  game=%q", *addr, *game)
	fanout.NewClient(*addr, *game, bus).ConnectWithRetry(ctx)
	telemetry.Infof("Stopped  events=%d", telemetry.Metrics.EventsPublished.Value())
}
