package world

import (
	"context"
	"sync"
	"testing"

	"roadrunner/server/internal/roadmap"
	"roadrunner/server/logging"
)

// newTestMap builds an L-shaped network: east along y=0 to x=10, then south
// to y=10.
func newTestMap(t *testing.T) *Map {
	t.Helper()
	m := NewMap("town", "Town", 0)
	if err := m.AddRoad(roadmap.Position{X: 0, Y: 0}, roadmap.Position{X: 10, Y: 0}); err != nil {
		t.Fatalf("add horizontal road: %v", err)
	}
	if err := m.AddRoad(roadmap.Position{X: 10, Y: 0}, roadmap.Position{X: 10, Y: 10}); err != nil {
		t.Fatalf("add vertical road: %v", err)
	}
	return m
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

func (r *recordingPublisher) ofType(eventType logging.EventType) []logging.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []logging.Event
	for _, event := range r.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func approxPosition(a, b roadmap.Position) bool {
	const tolerance = 1e-9
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx < tolerance && dx > -tolerance && dy < tolerance && dy > -tolerance
}
