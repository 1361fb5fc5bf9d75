package world

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"roadrunner/server/internal/roadmap"
	"roadrunner/server/internal/telemetry"
	"roadrunner/server/logging"
	"roadrunner/server/logging/movement"
)

var (
	ErrUnknownDog       = errors.New("unknown dog")
	ErrDuplicateDog     = errors.New("duplicate dog id")
	ErrNoRoads          = errors.New("map has no roads")
	ErrInvalidTimeDelta = errors.New("time delta must be non-negative")
)

// Deps carries the observability collaborators shared by sessions.
type Deps struct {
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
}

func (d Deps) normalized() Deps {
	if d.Publisher == nil {
		d.Publisher = logging.NopPublisher()
	}
	if d.Metrics == nil {
		d.Metrics = telemetry.NopMetrics()
	}
	return d
}

// TickStats summarises one session tick.
type TickStats struct {
	Tick     uint64 `json:"tick"`
	Dogs     int    `json:"dogs"`
	Moved    int    `json:"moved"`
	Clamped  int    `json:"clamped"`
	Blocked  int    `json:"blocked"`
	Rejected int    `json:"rejected"`
}

// Session is the live state of one map. Dogs never leave the session they
// spawned in.
type Session struct {
	m    *Map
	cfg  Config
	deps Deps

	mu    sync.RWMutex
	dogs  map[DogID]*Dog
	order []DogID
	tick  uint64
	rng   *rand.Rand
}

func NewSession(m *Map, cfg Config, deps Deps) *Session {
	cfg = cfg.normalized()
	return &Session{
		m:    m,
		cfg:  cfg,
		deps: deps.normalized(),
		dogs: make(map[DogID]*Dog),
		rng:  NewDeterministicRNG(cfg.Seed, "spawn:"+string(m.ID())),
	}
}

func (s *Session) Map() *Map {
	return s.m
}

// AddDog spawns a dog facing up with zero velocity.
func (s *Session) AddDog(id DogID, name string) (Dog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.dogs[id]; exists {
		return Dog{}, fmt.Errorf("%w: %d", ErrDuplicateDog, id)
	}
	spawn, err := s.spawnPointLocked()
	if err != nil {
		return Dog{}, fmt.Errorf("map %s: %w", s.m.ID(), err)
	}
	dog := &Dog{
		ID:        id,
		Name:      name,
		Position:  spawn,
		Direction: DirectionUp,
	}
	s.dogs[id] = dog
	s.order = append(s.order, id)
	return *dog, nil
}

func (s *Session) spawnPointLocked() (roadmap.Position, error) {
	roads := s.m.Roadmap()
	if roads.Len() == 0 {
		return roadmap.Position{}, ErrNoRoads
	}
	if !s.cfg.RandomizeSpawn {
		first, _ := roads.Road(0)
		return first.Start, nil
	}
	road, _ := roads.Road(roadmap.RoadIndex(s.rng.Intn(roads.Len())))
	return RandomPointOnRoad(s.rng, road), nil
}

// Dog returns a copy of the dog.
func (s *Session) Dog(id DogID) (Dog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dog, ok := s.dogs[id]
	if !ok {
		return Dog{}, false
	}
	return *dog, true
}

// Dogs returns copies of every dog in join order.
func (s *Session) Dogs() []Dog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Dog, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.dogs[id])
	}
	return out
}

// SetMove applies a client move command. An empty direction stops the dog
// and keeps its facing.
func (s *Session) SetMove(id DogID, raw string) (Dog, error) {
	dir, moving, err := ParseMove(raw)
	if err != nil {
		return Dog{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dog, ok := s.dogs[id]
	if !ok {
		return Dog{}, fmt.Errorf("%w: %d", ErrUnknownDog, id)
	}
	if !moving {
		dog.Velocity = roadmap.Velocity{}
		return *dog, nil
	}
	dog.Direction = dir
	dog.Velocity = dir.Velocity(s.m.DogSpeed(s.cfg.DefaultDogSpeed))
	return *dog, nil
}

// CurrentTick returns the number of ticks applied so far.
func (s *Session) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

type resolvedMove struct {
	dog     *Dog
	from    roadmap.Position
	desired roadmap.Position
	move    roadmap.Move
	err     error
}

// Tick advances every dog by dt seconds. Moves are resolved concurrently
// against the read-only roadmap and applied together once all have finished,
// so no dog observes another's partial update.
func (s *Session) Tick(ctx context.Context, dt float64) (TickStats, error) {
	if dt < 0 {
		return TickStats{}, fmt.Errorf("%w: %v", ErrInvalidTimeDelta, dt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	roads := s.m.Roadmap()
	moves := make([]resolvedMove, len(s.order))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.TickWorkers)
	for i, id := range s.order {
		dog := s.dogs[id]
		moves[i] = resolvedMove{dog: dog, from: dog.Position}
		if dog.Velocity.IsZero() {
			continue
		}
		slot := &moves[i]
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			slot.desired = roadmap.Position{
				X: slot.from.X + slot.dog.Velocity.X*dt,
				Y: slot.from.Y + slot.dog.Velocity.Y*dt,
			}
			slot.move, slot.err = roads.Resolve(slot.from, slot.desired, slot.dog.Velocity)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return TickStats{}, err
	}

	s.tick++
	stats := TickStats{Tick: s.tick, Dogs: len(s.order)}
	for _, resolved := range moves {
		if resolved.dog.Velocity.IsZero() {
			continue
		}
		s.apply(ctx, resolved, &stats)
	}

	s.deps.Metrics.Add(telemetry.KeyMovesResolved, uint64(stats.Moved+stats.Clamped+stats.Blocked))
	s.deps.Metrics.Add(telemetry.KeyMovesClamped, uint64(stats.Clamped))
	s.deps.Metrics.Add(telemetry.KeyMovesBlocked, uint64(stats.Blocked+stats.Rejected))
	return stats, nil
}

func (s *Session) apply(ctx context.Context, resolved resolvedMove, stats *TickStats) {
	dog := resolved.dog
	if resolved.err != nil {
		stats.Rejected++
		dog.Velocity = roadmap.Velocity{}
		return
	}
	move := resolved.move
	dog.Position = move.Position
	dog.Velocity = move.Velocity

	payload := movement.MovePayload{
		FromX:    resolved.from.X,
		FromY:    resolved.from.Y,
		ToX:      move.Position.X,
		ToY:      move.Position.Y,
		DesiredX: resolved.desired.X,
		DesiredY: resolved.desired.Y,
		Outcome:  move.Outcome.String(),
	}
	actor := logging.Dog(strconv.FormatUint(uint64(dog.ID), 10))
	mapID := string(s.m.ID())

	switch move.Outcome {
	case roadmap.OutcomeFree, roadmap.OutcomeEdge:
		stats.Moved++
	case roadmap.OutcomeClamped:
		stats.Clamped++
		movement.MoveClamped(ctx, s.deps.Publisher, s.tick, actor, payload, mapID)
	case roadmap.OutcomeBlocked:
		stats.Blocked++
		movement.MoveBlocked(ctx, s.deps.Publisher, s.tick, actor, payload, mapID)
	}
}

// DogIDs returns the ids of every dog in ascending order.
func (s *Session) DogIDs() []DogID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := slices.Clone(s.order)
	slices.Sort(ids)
	return ids
}
