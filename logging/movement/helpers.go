package movement

import (
	"context"

	"roadrunner/server/logging"
)

const (
	// EventMoveClamped is emitted when a dog hits a corridor edge and stops.
	EventMoveClamped logging.EventType = "movement.move_clamped"
	// EventMoveBlocked is emitted when a moving dog could not advance at all.
	EventMoveBlocked logging.EventType = "movement.move_blocked"
)

// MovePayload describes a resolved move that did not reach its target.
type MovePayload struct {
	FromX    float64 `json:"fromX"`
	FromY    float64 `json:"fromY"`
	ToX      float64 `json:"toX"`
	ToY      float64 `json:"toY"`
	DesiredX float64 `json:"desiredX"`
	DesiredY float64 `json:"desiredY"`
	Outcome  string  `json:"outcome"`
}

// MoveClamped publishes a debug event for a dog stopped at a road edge.
func MoveClamped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload MovePayload, mapID string) {
	publish(ctx, pub, EventMoveClamped, logging.SeverityDebug, tick, actor, payload, mapID)
}

// MoveBlocked publishes a warning for a move that resolved in place.
func MoveBlocked(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload MovePayload, mapID string) {
	publish(ctx, pub, EventMoveBlocked, logging.SeverityWarn, tick, actor, payload, mapID)
}

// publish tags the event with the map the dog moves on.
func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, severity logging.Severity, tick uint64, actor logging.EntityRef, payload MovePayload, mapID string) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryMovement,
		Payload:  payload,
	}
	pub.Publish(ctx, event.WithExtra("map", mapID))
}
