package lifecycle

import (
	"context"

	"roadrunner/server/logging"
)

const (
	// EventPlayerJoined is emitted when a player joins a map.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventMapLoaded is emitted for every map indexed at startup.
	EventMapLoaded logging.EventType = "lifecycle.map_loaded"
)

// PlayerJoinedPayload captures spawn metadata for a new dog.
type PlayerJoinedPayload struct {
	Name   string  `json:"name"`
	MapID  string  `json:"mapId"`
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
}

// MapLoadedPayload summarises an indexed map.
type MapLoadedPayload struct {
	Name      string `json:"name"`
	Roads     int    `json:"roads"`
	Buildings int    `json:"buildings"`
	Offices   int    `json:"offices"`
}

// PlayerJoined publishes a player join event.
func PlayerJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PlayerJoinedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerJoined,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}

// MapLoaded publishes a map load event.
func MapLoaded(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload MapLoadedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMapLoaded,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}
