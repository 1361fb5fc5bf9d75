package world

import (
	"context"
	"errors"
	"testing"

	"roadrunner/server/internal/roadmap"
	"roadrunner/server/internal/telemetry"
	"roadrunner/server/logging/movement"
)

func TestSessionSpawnsAtFirstRoadStart(t *testing.T) {
	session := NewSession(newTestMap(t), DefaultConfig(), Deps{})
	dog, err := session.AddDog(1, "rex")
	if err != nil {
		t.Fatalf("add dog: %v", err)
	}
	if dog.Position != (roadmap.Position{}) {
		t.Fatalf("expected spawn at origin, got %+v", dog.Position)
	}
	if dog.Direction != DirectionUp || !dog.Velocity.IsZero() {
		t.Fatalf("expected idle dog facing up, got %+v", dog)
	}
	if _, err := session.AddDog(1, "again"); !errors.Is(err, ErrDuplicateDog) {
		t.Fatalf("expected ErrDuplicateDog, got %v", err)
	}
}

func TestSessionRandomSpawnStaysOnRoads(t *testing.T) {
	m := newTestMap(t)
	cfg := DefaultConfig()
	cfg.RandomizeSpawn = true
	session := NewSession(m, cfg, Deps{})
	for i := 0; i < 50; i++ {
		dog, err := session.AddDog(DogID(i), "dog")
		if err != nil {
			t.Fatalf("add dog %d: %v", i, err)
		}
		if _, ok := m.Roadmap().Locate(dog.Position); !ok {
			t.Fatalf("expected spawn %+v to be on the network", dog.Position)
		}
		onRoad := false
		for _, road := range m.Roads() {
			if roadmap.IsOnRoad(road, dog.Position) {
				onRoad = true
			}
		}
		if !onRoad {
			t.Fatalf("expected spawn %+v on a road corridor", dog.Position)
		}
	}
}

func TestSessionAddDogWithoutRoads(t *testing.T) {
	session := NewSession(NewMap("empty", "Empty", 0), DefaultConfig(), Deps{})
	if _, err := session.AddDog(1, "rex"); !errors.Is(err, ErrNoRoads) {
		t.Fatalf("expected ErrNoRoads, got %v", err)
	}
}

func TestSessionSetMove(t *testing.T) {
	session := NewSession(NewMap("m", "M", 3), DefaultConfig(), Deps{})
	session.m.AddRoad(roadmap.Position{}, roadmap.Position{X: 5})
	if _, err := session.AddDog(7, "rex"); err != nil {
		t.Fatalf("add dog: %v", err)
	}

	dog, err := session.SetMove(7, "L")
	if err != nil {
		t.Fatalf("set move: %v", err)
	}
	if dog.Velocity != (roadmap.Velocity{X: -3}) || dog.Direction != DirectionLeft {
		t.Fatalf("expected leftward velocity at map speed, got %+v", dog)
	}

	dog, err = session.SetMove(7, "")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !dog.Velocity.IsZero() || dog.Direction != DirectionLeft {
		t.Fatalf("expected stopped dog keeping its facing, got %+v", dog)
	}

	if _, err := session.SetMove(7, "Q"); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}
	if _, err := session.SetMove(8, "U"); !errors.Is(err, ErrUnknownDog) {
		t.Fatalf("expected ErrUnknownDog, got %v", err)
	}
}

func TestSessionTickMovesAndClamps(t *testing.T) {
	publisher := &recordingPublisher{}
	counters := telemetry.NewCounters()
	session := NewSession(newTestMap(t), DefaultConfig(), Deps{Publisher: publisher, Metrics: counters})
	if _, err := session.AddDog(1, "rex"); err != nil {
		t.Fatalf("add dog: %v", err)
	}
	if _, err := session.SetMove(1, "R"); err != nil {
		t.Fatalf("set move: %v", err)
	}

	stats, err := session.Tick(context.Background(), 2)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if stats.Moved != 1 || stats.Tick != 1 {
		t.Fatalf("expected one free move on tick 1, got %+v", stats)
	}
	dog, _ := session.Dog(1)
	if !approxPosition(dog.Position, roadmap.Position{X: 2}) {
		t.Fatalf("expected dog at (2,0), got %+v", dog.Position)
	}

	if _, err := session.SetMove(1, "U"); err != nil {
		t.Fatalf("set move: %v", err)
	}
	stats, err = session.Tick(context.Background(), 2)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if stats.Clamped != 1 {
		t.Fatalf("expected a clamped move, got %+v", stats)
	}
	dog, _ = session.Dog(1)
	if !approxPosition(dog.Position, roadmap.Position{X: 2, Y: -roadmap.Offset}) {
		t.Fatalf("expected dog clamped to the corridor edge, got %+v", dog.Position)
	}
	if !dog.Velocity.IsZero() {
		t.Fatalf("expected clamp to stop the dog, got %+v", dog.Velocity)
	}

	clamped := publisher.ofType(movement.EventMoveClamped)
	if len(clamped) != 1 {
		t.Fatalf("expected 1 clamp event, got %d", len(clamped))
	}
	if clamped[0].Tick != 2 || clamped[0].Actor.ID != "1" {
		t.Fatalf("expected clamp event for dog 1 on tick 2, got %+v", clamped[0])
	}
	if got := clamped[0].Extra["map"]; got != string(session.Map().ID()) {
		t.Fatalf("expected clamp event tagged with map %q, got %v", session.Map().ID(), got)
	}
	if got := counters.Load(telemetry.KeyMovesClamped); got != 1 {
		t.Fatalf("expected moves_clamped 1, got %d", got)
	}
	if got := counters.Load(telemetry.KeyMovesResolved); got != 2 {
		t.Fatalf("expected moves_resolved 2, got %d", got)
	}
}

func TestSessionTickFollowsJunction(t *testing.T) {
	session := NewSession(newTestMap(t), DefaultConfig(), Deps{})
	session.AddDog(1, "rex")
	session.SetMove(1, "R")
	if _, err := session.Tick(context.Background(), 10); err != nil {
		t.Fatalf("tick: %v", err)
	}
	session.SetMove(1, "D")
	if _, err := session.Tick(context.Background(), 4); err != nil {
		t.Fatalf("tick: %v", err)
	}
	dog, _ := session.Dog(1)
	if !approxPosition(dog.Position, roadmap.Position{X: 10, Y: 4}) {
		t.Fatalf("expected dog at (10,4) after turning south, got %+v", dog.Position)
	}
}

func TestSessionTickResolvesManyDogsInParallel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickWorkers = 3
	session := NewSession(newTestMap(t), cfg, Deps{})
	const dogs = 40
	for i := 0; i < dogs; i++ {
		if _, err := session.AddDog(DogID(i), "dog"); err != nil {
			t.Fatalf("add dog: %v", err)
		}
		if _, err := session.SetMove(DogID(i), "R"); err != nil {
			t.Fatalf("set move: %v", err)
		}
	}
	stats, err := session.Tick(context.Background(), 1.5)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if stats.Moved != dogs {
		t.Fatalf("expected %d moves, got %+v", dogs, stats)
	}
	for _, dog := range session.Dogs() {
		if !approxPosition(dog.Position, roadmap.Position{X: 1.5}) {
			t.Fatalf("expected every dog at (1.5,0), got %+v", dog.Position)
		}
	}
}

func TestSessionTickRejectsNegativeDelta(t *testing.T) {
	session := NewSession(newTestMap(t), DefaultConfig(), Deps{})
	if _, err := session.Tick(context.Background(), -1); !errors.Is(err, ErrInvalidTimeDelta) {
		t.Fatalf("expected ErrInvalidTimeDelta, got %v", err)
	}
	if session.CurrentTick() != 0 {
		t.Fatalf("expected rejected tick not to advance the counter")
	}
}

func TestSessionTickHonoursCancelledContext(t *testing.T) {
	session := NewSession(newTestMap(t), DefaultConfig(), Deps{})
	session.AddDog(1, "rex")
	session.SetMove(1, "R")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := session.Tick(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	dog, _ := session.Dog(1)
	if dog.Position != (roadmap.Position{}) {
		t.Fatalf("expected cancelled tick to leave the dog in place, got %+v", dog.Position)
	}
}
