package sim

import (
	"context"
	"testing"
	"time"

	"roadrunner/server/internal/telemetry"
	"roadrunner/server/logging/simulation"
)

func TestReporterPublishesCounters(t *testing.T) {
	counters := telemetry.NewCounters()
	counters.Add(telemetry.KeyMovesClamped, 3)
	publisher := &recordingPublisher{}
	reporter, err := NewReporter("", counters, publisher, func() uint64 { return 9 })
	if err != nil {
		t.Fatalf("new reporter: %v", err)
	}

	reporter.Report(context.Background())
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 report, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Type != simulation.EventTelemetryReport || event.Tick != 9 {
		t.Fatalf("unexpected report event %+v", event)
	}
	payload, ok := event.Payload.(simulation.TelemetryReportPayload)
	if !ok || payload.Counters[telemetry.KeyMovesClamped] != 3 {
		t.Fatalf("expected clamped counter in payload, got %#v", event.Payload)
	}
}

func TestReporterRunsOnSchedule(t *testing.T) {
	publisher := &recordingPublisher{}
	reporter, err := NewReporter("@every 1s", telemetry.NewCounters(), publisher, nil)
	if err != nil {
		t.Fatalf("new reporter: %v", err)
	}
	reporter.Start()
	deadline := time.Now().Add(3 * time.Second)
	for publisher.count(simulation.EventTelemetryReport) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected a scheduled report within 3s")
		}
		time.Sleep(20 * time.Millisecond)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := reporter.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestReporterRejectsBadSpec(t *testing.T) {
	if _, err := NewReporter("every now and then", telemetry.NewCounters(), nil, nil); err == nil {
		t.Fatalf("expected invalid cron spec to be rejected")
	}
}
