package world

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"roadrunner/server/logging"
	"roadrunner/server/logging/lifecycle"
)

var (
	ErrMapNotFound  = errors.New("map not found")
	ErrDuplicateMap = errors.New("duplicate map id")
)

// Game owns the loaded maps and one session per map, created on first use.
type Game struct {
	cfg  Config
	deps Deps

	mu       sync.RWMutex
	maps     []*Map
	byID     map[MapID]*Map
	sessions map[MapID]*Session
}

func NewGame(cfg Config, deps Deps) *Game {
	return &Game{
		cfg:      cfg.normalized(),
		deps:     deps.normalized(),
		byID:     make(map[MapID]*Map),
		sessions: make(map[MapID]*Session),
	}
}

func (g *Game) Config() Config {
	return g.cfg
}

// AddMap registers a fully built map. Maps must not be modified afterwards.
func (g *Game) AddMap(ctx context.Context, m *Map) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.byID[m.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMap, m.ID())
	}
	g.maps = append(g.maps, m)
	g.byID[m.ID()] = m
	lifecycle.MapLoaded(ctx, g.deps.Publisher, logging.Map(string(m.ID())), lifecycle.MapLoadedPayload{
		Name:      m.Name(),
		Roads:     m.Roadmap().Len(),
		Buildings: len(m.buildings),
		Offices:   len(m.offices),
	})
	return nil
}

// Maps returns the maps in load order.
func (g *Game) Maps() []*Map {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Map(nil), g.maps...)
}

func (g *Game) FindMap(id MapID) (*Map, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.byID[id]
	return m, ok
}

// Session returns the session for the map, creating it when needed.
func (g *Game) Session(id MapID) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if session, ok := g.sessions[id]; ok {
		return session, nil
	}
	m, ok := g.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMapNotFound, id)
	}
	session := NewSession(m, g.cfg, g.deps)
	g.sessions[id] = session
	return session, nil
}

// Sessions returns every active session in map load order.
func (g *Game) Sessions() []*Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Session, 0, len(g.sessions))
	for _, m := range g.maps {
		if session, ok := g.sessions[m.ID()]; ok {
			out = append(out, session)
		}
	}
	return out
}

// Join spawns a dog for a new player on the map.
func (g *Game) Join(ctx context.Context, id DogID, name string, mapID MapID) (*Session, Dog, error) {
	session, err := g.Session(mapID)
	if err != nil {
		return nil, Dog{}, err
	}
	dog, err := session.AddDog(id, name)
	if err != nil {
		return nil, Dog{}, err
	}
	lifecycle.PlayerJoined(ctx, g.deps.Publisher, session.CurrentTick(), logging.Dog(strconv.FormatUint(uint64(id), 10)), lifecycle.PlayerJoinedPayload{
		Name:   name,
		MapID:  string(mapID),
		SpawnX: dog.Position.X,
		SpawnY: dog.Position.Y,
	}, nil)
	return session, dog, nil
}

// Tick advances every active session by dt seconds and sums their stats.
func (g *Game) Tick(ctx context.Context, dt float64) (TickStats, error) {
	var total TickStats
	for _, session := range g.Sessions() {
		stats, err := session.Tick(ctx, dt)
		if err != nil {
			return total, fmt.Errorf("map %s: %w", session.Map().ID(), err)
		}
		total.Dogs += stats.Dogs
		total.Moved += stats.Moved
		total.Clamped += stats.Clamped
		total.Blocked += stats.Blocked
		total.Rejected += stats.Rejected
		total.Tick = max(total.Tick, stats.Tick)
	}
	return total, nil
}
