package simulation

import (
	"context"

	"roadrunner/server/logging"
)

const (
	// EventTickBudgetOverrun is emitted when a tick takes longer than the tick period.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventTelemetryReport is emitted by the periodic reporter.
	EventTelemetryReport logging.EventType = "simulation.telemetry_report"
)

// TickBudgetOverrunPayload captures timing details for a tick budget breach.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
	Streak         uint64  `json:"streak"`
}

// TelemetryReportPayload carries a snapshot of the server counters.
type TelemetryReportPayload struct {
	Counters map[string]uint64 `json:"counters"`
}

// TickBudgetOverrun publishes a warning when the simulation exceeds the configured tick budget.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Actor:    logging.Server(),
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	})
}

// TelemetryReport publishes the periodic counter snapshot.
func TelemetryReport(ctx context.Context, pub logging.Publisher, tick uint64, payload TelemetryReportPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTelemetryReport,
		Tick:     tick,
		Actor:    logging.Server(),
		Severity: logging.SeverityInfo,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}
