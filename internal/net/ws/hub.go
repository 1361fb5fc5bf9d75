package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"roadrunner/server/internal/game"
	"roadrunner/server/internal/net/proto"
	"roadrunner/server/internal/telemetry"
	"roadrunner/server/internal/world"
	"roadrunner/server/logging"
	"roadrunner/server/logging/network"
)

const writeWait = 5 * time.Second

type subscriber struct {
	conn  *websocket.Conn
	mapID world.MapID
	dogID world.DogID
	mu    sync.Mutex
}

func (s *subscriber) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// StateSource yields the current state of a map.
type StateSource interface {
	MapState(id world.MapID) (game.State, bool)
}

// Hub tracks websocket subscribers and fans state snapshots out to them.
type Hub struct {
	source    StateSource
	publisher logging.Publisher
	metrics   telemetry.Metrics
	logger    telemetry.Logger

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
}

type HubConfig struct {
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	Logger    telemetry.Logger
}

func NewHub(source StateSource, cfg HubConfig) *Hub {
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NopMetrics()
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	return &Hub{
		source:      source,
		publisher:   cfg.Publisher,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		subscribers: make(map[*subscriber]struct{}),
	}
}

func (h *Hub) subscribe(ctx context.Context, sub *subscriber, tick uint64) {
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	count := len(h.subscribers)
	h.mu.Unlock()
	h.metrics.Store(telemetry.KeyStreamClients, uint64(count))
	network.StreamSubscribed(ctx, h.publisher, tick, clientRef(sub), network.StreamPayload{MapID: string(sub.mapID)})
}

func (h *Hub) unsubscribe(ctx context.Context, sub *subscriber, tick uint64, reason string) {
	h.mu.Lock()
	_, ok := h.subscribers[sub]
	delete(h.subscribers, sub)
	count := len(h.subscribers)
	h.mu.Unlock()
	if !ok {
		return
	}
	sub.conn.Close()
	h.metrics.Store(telemetry.KeyStreamClients, uint64(count))
	network.StreamClosed(ctx, h.publisher, tick, clientRef(sub), network.StreamPayload{MapID: string(sub.mapID), Reason: reason})
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Broadcast sends every subscriber the state of its map. Each map is encoded
// once per call; subscribers whose write fails are dropped.
func (h *Hub) Broadcast(ctx context.Context, tick uint64) {
	h.mu.Lock()
	targets := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	encoded := make(map[world.MapID][]byte)
	for _, sub := range targets {
		data, ok := encoded[sub.mapID]
		if !ok {
			var err error
			data, err = h.encodeState(tick, sub.mapID)
			if err != nil {
				h.logger.Printf("failed to marshal state for map %s: %v", sub.mapID, err)
				continue
			}
			encoded[sub.mapID] = data
		}
		if err := sub.write(websocket.TextMessage, data); err != nil {
			h.unsubscribe(ctx, sub, tick, "write failed")
			continue
		}
		h.metrics.Add(telemetry.KeyBroadcastBytes, uint64(len(data)))
	}
}

func (h *Hub) encodeState(tick uint64, mapID world.MapID) ([]byte, error) {
	state, _ := h.source.MapState(mapID)
	return proto.EncodeStateSnapshot(proto.NewStateSnapshot(tick, string(mapID), state))
}

// Close disconnects every subscriber.
func (h *Hub) Close(ctx context.Context) {
	h.mu.Lock()
	targets := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		targets = append(targets, sub)
	}
	h.mu.Unlock()
	for _, sub := range targets {
		message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		sub.write(websocket.CloseMessage, message)
		h.unsubscribe(ctx, sub, 0, "shutdown")
	}
}

func clientRef(sub *subscriber) logging.EntityRef {
	ref := logging.Dog(dogKey(sub.dogID))
	ref.Kind = logging.EntityKindClient
	return ref
}
