package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdnet "net"
	"net/http"
	"os"
	"strconv"
	"time"

	"roadrunner/server/internal/game"
	"roadrunner/server/internal/mapconfig"
	servernet "roadrunner/server/internal/net"
	"roadrunner/server/internal/net/ws"
	"roadrunner/server/internal/observability"
	"roadrunner/server/internal/sim"
	"roadrunner/server/internal/telemetry"
	"roadrunner/server/internal/world"
	"roadrunner/server/logging"
	loggingSinks "roadrunner/server/logging/sinks"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	Logger        telemetry.Logger
	Observability observability.Config
	Logging       logging.Config

	Addr       string
	ConfigFile string
	WWWRoot    string
	// TickPeriod drives the world on a fixed schedule. Zero enables
	// POST /api/v1/game/tick instead.
	TickPeriod time.Duration
	ReportSpec string
	World      world.Config
}

// Server is a fully wired instance that has not started serving yet.
type Server struct {
	Handler  http.Handler
	App      *game.Application
	Hub      *ws.Hub
	Counters *telemetry.Counters

	logger   telemetry.Logger
	router   *logging.Router
	loop     *sim.Loop
	reporter *sim.Reporter
	// loopDone is closed once the tick loop goroutine has returned.
	loopDone chan struct{}
}

// New loads the map config and wires every component.
func New(ctx context.Context, cfg Config) (*Server, error) {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}
	cfg = applyEnv(cfg, telemetryLogger)

	router, err := newRouter(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to construct logging router: %w", err)
	}

	file, maps, err := mapconfig.LoadMaps(cfg.ConfigFile)
	if err != nil {
		router.Close(ctx)
		return nil, err
	}
	if file.DefaultDogSpeed > 0 {
		cfg.World.DefaultDogSpeed = file.DefaultDogSpeed
	}

	counters := telemetry.NewCounters()
	g := world.NewGame(cfg.World, world.Deps{Publisher: router, Metrics: counters})
	for _, m := range maps {
		if err := g.AddMap(ctx, m); err != nil {
			router.Close(ctx)
			return nil, err
		}
	}

	// The hub reads state back from the application, which in turn notifies
	// the hub after each tick.
	var hub *ws.Hub
	application := game.New(g, game.Config{
		ManualTick: cfg.TickPeriod <= 0,
		AfterTick: func(ctx context.Context, stats world.TickStats) {
			hub.Broadcast(ctx, stats.Tick)
		},
	}, counters)
	hub = ws.NewHub(application, ws.HubConfig{Publisher: router, Metrics: counters, Logger: telemetryLogger})

	handler := servernet.NewHTTPHandler(application, servernet.HTTPHandlerConfig{
		WWWRoot:         cfg.WWWRoot,
		Stream:          ws.NewHandler(application, hub, ws.HandlerConfig{}),
		DefaultDogSpeed: g.Config().DefaultDogSpeed,
		Logger:          telemetryLogger,
		Publisher:       router,
		Observability:   cfg.Observability,
	})

	var loop *sim.Loop
	if cfg.TickPeriod > 0 {
		loop = sim.NewLoop(application, sim.LoopConfig{Period: cfg.TickPeriod}, sim.LoopHooks{
			AfterStep: func(_ context.Context, result sim.StepResult) {
				if result.Err != nil && !errors.Is(result.Err, context.Canceled) {
					telemetryLogger.Printf("tick failed: %v", result.Err)
				}
			},
		}, sim.LoopDeps{Logger: telemetryLogger, Metrics: counters, Publisher: router})
	}

	reportSpec := cfg.ReportSpec
	if reportSpec == "" {
		reportSpec = sim.DefaultReportSpec
	}
	reporter, err := sim.NewReporter(reportSpec, counters, router, application.Ticks)
	if err != nil {
		router.Close(ctx)
		return nil, fmt.Errorf("invalid report schedule %q: %w", reportSpec, err)
	}

	return &Server{
		Handler:  handler,
		App:      application,
		Hub:      hub,
		Counters: counters,
		logger:   telemetryLogger,
		router:   router,
		loop:     loop,
		reporter: reporter,
		loopDone: make(chan struct{}),
	}, nil
}

func newRouter(cfg logging.Config) (*logging.Router, error) {
	named := []logging.NamedSink{}
	if cfg.HasSink("console") {
		named = append(named, logging.NamedSink{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, cfg.Console)})
	}
	if cfg.HasSink("json") && cfg.JSON.FilePath != "" {
		sink, err := loggingSinks.NewJSONFile(cfg.JSON.FilePath, cfg.JSON.FlushInterval)
		if err != nil {
			return nil, fmt.Errorf("open json log %s: %w", cfg.JSON.FilePath, err)
		}
		named = append(named, logging.NamedSink{Name: "json", Sink: sink})
	}
	return logging.NewRouter(logging.ClockFunc(time.Now), cfg, named)
}

// applyEnv layers environment overrides on top of cfg. Invalid values are
// logged and ignored.
func applyEnv(cfg Config, logger telemetry.Logger) Config {
	if cfg.Logging.BufferSize == 0 && len(cfg.Logging.EnabledSinks) == 0 {
		cfg.Logging = logging.DefaultConfig()
	}
	if raw := os.Getenv("LOG_MIN_SEVERITY"); raw != "" {
		if value, err := logging.ParseSeverity(raw); err == nil {
			cfg.Logging.MinimumSeverity = value
		} else {
			logger.Printf("invalid LOG_MIN_SEVERITY=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("LOG_JSON_PATH"); raw != "" {
		cfg.Logging = cfg.Logging.WithSink("json")
		cfg.Logging.JSON.FilePath = raw
	}
	if raw := os.Getenv("ENABLE_PPROF"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.Observability.EnablePprof = value
		} else {
			logger.Printf("invalid ENABLE_PPROF=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("TICK_WORKERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.World.TickWorkers = value
		} else {
			logger.Printf("invalid TICK_WORKERS=%q", raw)
		}
	}
	return cfg
}

// Serve runs the tick loop, the reporter and the HTTP server on ln until ctx
// is done, then shuts everything down.
func (s *Server) Serve(ctx context.Context, ln stdnet.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{Handler: s.Handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	go func() {
		defer close(s.loopDone)
		s.loop.Run(ctx)
	}()
	s.reporter.Start()
	s.logger.Printf("server listening on %s", ln.Addr())

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		} else {
			err = fmt.Errorf("server failed: %w", err)
		}
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	// A tick in flight must finish before the router closes.
	select {
	case <-s.loopDone:
	case <-shutdownCtx.Done():
		s.logger.Printf("tick loop did not stop within %s", shutdownTimeout)
	}
	s.Hub.Close(shutdownCtx)
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil && err == nil {
		err = fmt.Errorf("shutdown: %w", shutdownErr)
	}
	if closeErr := s.Close(shutdownCtx); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Close stops the reporter and flushes the logging router.
func (s *Server) Close(ctx context.Context) error {
	if err := s.reporter.Stop(ctx); err != nil {
		s.logger.Printf("failed to stop reporter: %v", err)
	}
	if err := s.router.Close(ctx); err != nil {
		return fmt.Errorf("failed to close logging router: %w", err)
	}
	return nil
}

// Run builds a server from cfg and serves on cfg.Addr until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	ln, err := stdnet.Listen("tcp", addr)
	if err != nil {
		server.Close(ctx)
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return server.Serve(ctx, ln)
}
