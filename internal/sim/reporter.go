package sim

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"roadrunner/server/internal/telemetry"
	"roadrunner/server/logging"
	"roadrunner/server/logging/simulation"
)

// DefaultReportSpec is the cron schedule used when none is configured.
const DefaultReportSpec = "@every 30s"

// Reporter periodically publishes a snapshot of the server counters.
type Reporter struct {
	cron      *cron.Cron
	counters  *telemetry.Counters
	publisher logging.Publisher
	tick      func() uint64
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewReporter schedules reports on spec. tick supplies the current world tick
// and may be nil.
func NewReporter(spec string, counters *telemetry.Counters, publisher logging.Publisher, tick func() uint64) (*Reporter, error) {
	if spec == "" {
		spec = DefaultReportSpec
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	if tick == nil {
		tick = func() uint64 { return 0 }
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reporter{
		cron:      cron.New(),
		counters:  counters,
		publisher: publisher,
		tick:      tick,
		ctx:       ctx,
		cancel:    cancel,
	}
	if _, err := r.cron.AddFunc(spec, func() { r.Report(r.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("schedule telemetry report %q: %w", spec, err)
	}
	return r, nil
}

// Report publishes one telemetry event immediately.
func (r *Reporter) Report(ctx context.Context) {
	simulation.TelemetryReport(ctx, r.publisher, r.tick(), simulation.TelemetryReportPayload{
		Counters: r.counters.Snapshot(),
	})
}

func (r *Reporter) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running report to finish.
func (r *Reporter) Stop(ctx context.Context) error {
	r.cancel()
	done := r.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
