package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roadrunner/server/internal/app"
	"roadrunner/server/internal/world"
)

func main() {
	worldCfg := world.DefaultConfig()
	cfg := app.Config{}
	var tickPeriodMs int
	flag.StringVar(&cfg.ConfigFile, "config-file", "", "path to the map config JSON")
	flag.StringVar(&cfg.WWWRoot, "www-root", "", "directory served as static content")
	flag.StringVar(&cfg.Addr, "addr", ":8080", "listen address")
	flag.IntVar(&tickPeriodMs, "tick-period", 0, "tick period in milliseconds; 0 enables the manual tick endpoint")
	flag.BoolVar(&worldCfg.RandomizeSpawn, "randomize-spawn-points", false, "spawn dogs at random points on the roads")
	flag.IntVar(&worldCfg.TickWorkers, "tick-workers", worldCfg.TickWorkers, "goroutines used to resolve moves each tick")
	flag.StringVar(&cfg.ReportSpec, "report-interval", "", "cron spec for the telemetry report")
	flag.BoolVar(&cfg.Observability.EnablePprof, "pprof", false, "serve /debug/pprof")
	flag.Parse()

	if cfg.ConfigFile == "" {
		log.Fatalf("--config-file is required")
	}
	if tickPeriodMs < 0 {
		log.Fatalf("--tick-period must not be negative")
	}
	cfg.TickPeriod = time.Duration(tickPeriodMs) * time.Millisecond
	cfg.World = worldCfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
