package sim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roadrunner/server/internal/telemetry"
	"roadrunner/server/internal/world"
	"roadrunner/server/logging"
	"roadrunner/server/logging/simulation"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeAdvancer struct {
	mu     sync.Mutex
	clock  *fakeClock
	cost   time.Duration
	err    error
	deltas []time.Duration
}

func (f *fakeAdvancer) Advance(_ context.Context, delta time.Duration) (world.TickStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deltas = append(f.deltas, delta)
	if f.clock != nil {
		f.clock.Advance(f.cost)
	}
	return world.TickStats{Tick: uint64(len(f.deltas))}, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []logging.Event
}

func (r *recordingPublisher) Publish(_ context.Context, event logging.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) count(eventType logging.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, event := range r.events {
		if event.Type == eventType {
			n++
		}
	}
	return n
}

func TestLoopStepMeasuresElapsedTime(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	target := &fakeAdvancer{}
	loop := NewLoop(target, LoopConfig{Period: 50 * time.Millisecond, CatchupMaxTicks: 4, Clock: clock}, LoopHooks{}, LoopDeps{})

	first := loop.Step(context.Background())
	if first.Delta != 50*time.Millisecond {
		t.Fatalf("expected first delta to equal the period, got %s", first.Delta)
	}

	clock.Advance(70 * time.Millisecond)
	second := loop.Step(context.Background())
	if second.Delta != 70*time.Millisecond || second.ClampedDelta {
		t.Fatalf("expected unclamped delta of 70ms, got %s (clamped=%v)", second.Delta, second.ClampedDelta)
	}

	clock.Advance(time.Second)
	third := loop.Step(context.Background())
	if third.Delta != 200*time.Millisecond || !third.ClampedDelta {
		t.Fatalf("expected delta clamped to 200ms, got %s (clamped=%v)", third.Delta, third.ClampedDelta)
	}
}

func TestLoopReportsBudgetOverrun(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	target := &fakeAdvancer{clock: clock, cost: 80 * time.Millisecond}
	publisher := &recordingPublisher{}
	counters := telemetry.NewCounters()
	var hookCalls int
	loop := NewLoop(target, LoopConfig{Period: 50 * time.Millisecond, Clock: clock}, LoopHooks{
		AfterStep: func(_ context.Context, result StepResult) {
			hookCalls++
		},
	}, LoopDeps{Metrics: counters, Publisher: publisher})

	loop.Step(context.Background())
	loop.Step(context.Background())
	if got := publisher.count(simulation.EventTickBudgetOverrun); got != 2 {
		t.Fatalf("expected 2 overrun events, got %d", got)
	}
	if got := counters.Load(telemetry.KeyTickBudgetOverrun); got != 2 {
		t.Fatalf("expected overrun counter 2, got %d", got)
	}
	if got := counters.Load(telemetry.KeyTickDurationMs); got != 80 {
		t.Fatalf("expected tick duration 80ms, got %d", got)
	}
	if hookCalls != 2 {
		t.Fatalf("expected hook to run every step, got %d", hookCalls)
	}

	target.cost = time.Millisecond
	loop.Step(context.Background())
	if loop.overrunStreak != 0 {
		t.Fatalf("expected overrun streak to reset, got %d", loop.overrunStreak)
	}
}

func TestLoopStepSurfacesErrors(t *testing.T) {
	boom := errors.New("boom")
	var logged int
	loop := NewLoop(&fakeAdvancer{err: boom}, LoopConfig{Period: time.Millisecond}, LoopHooks{}, LoopDeps{
		Logger: telemetry.LoggerFunc(func(string, ...any) { logged++ }),
	})
	result := loop.Step(context.Background())
	if !errors.Is(result.Err, boom) {
		t.Fatalf("expected step error, got %v", result.Err)
	}
	if logged != 1 {
		t.Fatalf("expected failure to be logged once, got %d", logged)
	}
}

func TestLoopRunStopsWithContext(t *testing.T) {
	target := &fakeAdvancer{}
	steps := make(chan StepResult, 16)
	loop := NewLoop(target, LoopConfig{Period: 5 * time.Millisecond}, LoopHooks{
		AfterStep: func(_ context.Context, result StepResult) {
			select {
			case steps <- result:
			default:
			}
		},
	}, LoopDeps{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	select {
	case <-steps:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the loop to step")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected Run to return after cancel")
	}
}

func TestNewLoopRejectsNilTarget(t *testing.T) {
	if NewLoop(nil, LoopConfig{}, LoopHooks{}, LoopDeps{}) != nil {
		t.Fatalf("expected nil loop for nil target")
	}
}
