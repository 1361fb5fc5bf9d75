package sim

import (
	"context"
	"time"

	"roadrunner/server/internal/telemetry"
	"roadrunner/server/internal/world"
	"roadrunner/server/logging"
	"roadrunner/server/logging/simulation"
)

// Advancer moves the world forward.
type Advancer interface {
	Advance(ctx context.Context, delta time.Duration) (world.TickStats, error)
}

// LoopConfig tunes the fixed-period tick loop.
type LoopConfig struct {
	Period time.Duration
	// CatchupMaxTicks caps the simulated delta after a stall, in periods.
	CatchupMaxTicks int
	Clock           logging.Clock
}

// LoopHooks run on the loop goroutine after every step.
type LoopHooks struct {
	AfterStep func(ctx context.Context, result StepResult)
}

// StepResult describes one executed tick.
type StepResult struct {
	Stats        world.TickStats
	Now          time.Time
	Delta        time.Duration
	Duration     time.Duration
	Budget       time.Duration
	ClampedDelta bool
	Err          error
}

// Loop drives an Advancer on a ticker.
type Loop struct {
	target    Advancer
	config    LoopConfig
	hooks     LoopHooks
	logger    telemetry.Logger
	metrics   telemetry.Metrics
	publisher logging.Publisher

	last          time.Time
	overrunStreak uint64
}

type LoopDeps struct {
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
}

func NewLoop(target Advancer, cfg LoopConfig, hooks LoopHooks, deps LoopDeps) *Loop {
	if target == nil {
		return nil
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Second / 15
	}
	if cfg.Clock == nil {
		cfg.Clock = logging.ClockFunc(time.Now)
	}
	if deps.Logger == nil {
		deps.Logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NopMetrics()
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	return &Loop{
		target:    target,
		config:    cfg,
		hooks:     hooks,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		publisher: deps.Publisher,
	}
}

func (l *Loop) maxDelta() time.Duration {
	if l.config.CatchupMaxTicks > 1 {
		return l.config.Period * time.Duration(l.config.CatchupMaxTicks)
	}
	return l.config.Period
}

// Step executes one tick using the time elapsed since the previous step.
func (l *Loop) Step(ctx context.Context) StepResult {
	clock := l.config.Clock
	now := clock.Now()
	delta := l.config.Period
	clamped := false
	if !l.last.IsZero() {
		delta = now.Sub(l.last)
		if delta <= 0 {
			delta = l.config.Period
		} else if maxDt := l.maxDelta(); delta > maxDt {
			delta = maxDt
			clamped = true
		}
	}
	l.last = now

	start := clock.Now()
	stats, err := l.target.Advance(ctx, delta)
	duration := clock.Now().Sub(start)
	result := StepResult{
		Stats:        stats,
		Now:          now,
		Delta:        delta,
		Duration:     duration,
		Budget:       l.config.Period,
		ClampedDelta: clamped,
		Err:          err,
	}
	if err != nil {
		l.logger.Printf("[sim] tick failed: %v", err)
	}
	l.metrics.Store(telemetry.KeyTickDurationMs, uint64(duration.Milliseconds()))
	l.checkBudget(ctx, result)

	if l.hooks.AfterStep != nil {
		l.hooks.AfterStep(ctx, result)
	}
	return result
}

func (l *Loop) checkBudget(ctx context.Context, result StepResult) {
	if result.Duration <= result.Budget {
		l.overrunStreak = 0
		return
	}
	l.overrunStreak++
	l.metrics.Add(telemetry.KeyTickBudgetOverrun, 1)
	simulation.TickBudgetOverrun(ctx, l.publisher, result.Stats.Tick, simulation.TickBudgetOverrunPayload{
		DurationMillis: result.Duration.Milliseconds(),
		BudgetMillis:   result.Budget.Milliseconds(),
		Ratio:          float64(result.Duration) / float64(result.Budget),
		Streak:         l.overrunStreak,
	}, nil)
}

// Run steps the loop every period until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	if l == nil {
		return
	}
	ticker := time.NewTicker(l.config.Period)
	defer ticker.Stop()
	l.last = l.config.Clock.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Step(ctx)
		}
	}
}
