package network

import (
	"context"

	"roadrunner/server/logging"
)

const (
	// EventRequestServed is emitted after every API request.
	EventRequestServed logging.EventType = "network.request_served"
	// EventStreamSubscribed is emitted when a websocket client starts receiving state.
	EventStreamSubscribed logging.EventType = "network.stream_subscribed"
	// EventStreamClosed is emitted when a websocket client goes away.
	EventStreamClosed logging.EventType = "network.stream_closed"
)

// RequestPayload captures one served HTTP request.
type RequestPayload struct {
	Method         string `json:"method"`
	Path           string `json:"path"`
	Status         int    `json:"status"`
	DurationMicros int64  `json:"durationMicros"`
}

// StreamPayload describes a websocket subscriber.
type StreamPayload struct {
	MapID  string `json:"mapId"`
	Reason string `json:"reason,omitempty"`
}

// RequestServed publishes a debug event for an API request; server errors
// are raised to warnings.
func RequestServed(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload RequestPayload) {
	if pub == nil {
		return
	}
	severity := logging.SeverityDebug
	if payload.Status >= 500 {
		severity = logging.SeverityWarn
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRequestServed,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

// StreamSubscribed publishes an info event for a new websocket subscriber.
func StreamSubscribed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload StreamPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventStreamSubscribed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

// StreamClosed publishes an info event when a subscriber disconnects.
func StreamClosed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload StreamPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventStreamClosed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}
