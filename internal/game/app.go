// Package game binds players and their tokens to the world sessions and
// exposes the operations served by the HTTP API.
package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"roadrunner/server/internal/telemetry"
	"roadrunner/server/internal/world"
)

var (
	ErrInvalidName        = errors.New("invalid name")
	ErrMapNotFound        = world.ErrMapNotFound
	ErrManualTickDisabled = errors.New("manual ticking is disabled")
	ErrInvalidTimeDelta   = world.ErrInvalidTimeDelta
)

type Config struct {
	// ManualTick enables Tick; the loop drives time otherwise.
	ManualTick bool
	Tokens     TokenSource
	// AfterTick runs after every applied tick, manual or looped.
	AfterTick func(ctx context.Context, stats world.TickStats)
}

type Player struct {
	ID      world.DogID
	Name    string
	Token   Token
	session *world.Session
}

func (p *Player) MapID() world.MapID {
	return p.session.Map().ID()
}

// Application is safe for concurrent use.
type Application struct {
	game    *world.Game
	cfg     Config
	metrics telemetry.Metrics

	mu      sync.RWMutex
	players map[Token]*Player
	nextID  world.DogID
	ticks   uint64
}

func New(g *world.Game, cfg Config, metrics telemetry.Metrics) *Application {
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return &Application{
		game:    g,
		cfg:     cfg,
		metrics: metrics,
		players: make(map[Token]*Player),
	}
}

func (a *Application) ManualTick() bool {
	return a.cfg.ManualTick
}

type JoinResult struct {
	Token    Token       `json:"authToken"`
	PlayerID world.DogID `json:"playerId"`
}

// Join creates a player and spawns their dog on the map.
func (a *Application) Join(ctx context.Context, userName, mapID string) (JoinResult, error) {
	name := strings.TrimSpace(userName)
	if name == "" {
		return JoinResult{}, ErrInvalidName
	}
	if _, ok := a.game.FindMap(world.MapID(mapID)); !ok {
		return JoinResult{}, fmt.Errorf("%w: %s", ErrMapNotFound, mapID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	token, err := a.uniqueTokenLocked()
	if err != nil {
		return JoinResult{}, err
	}
	id := a.nextID
	session, _, err := a.game.Join(ctx, id, name, world.MapID(mapID))
	if err != nil {
		return JoinResult{}, err
	}
	a.nextID++
	a.players[token] = &Player{ID: id, Name: name, Token: token, session: session}
	a.metrics.Add(telemetry.KeyPlayersJoined, 1)
	return JoinResult{Token: token, PlayerID: id}, nil
}

func (a *Application) uniqueTokenLocked() (Token, error) {
	for {
		token, err := a.cfg.Tokens.Next()
		if err != nil {
			return "", err
		}
		if _, taken := a.players[token]; !taken {
			return token, nil
		}
	}
}

// Authorize resolves a raw token to its player.
func (a *Application) Authorize(raw string) (*Player, error) {
	token, err := ParseToken(raw)
	if err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	player, ok := a.players[token]
	if !ok {
		return nil, ErrUnknownToken
	}
	return player, nil
}

type PlayerInfo struct {
	Name string `json:"name"`
}

// Players lists everyone on the caller's map keyed by dog id.
func (a *Application) Players(raw string) (map[string]PlayerInfo, error) {
	player, err := a.Authorize(raw)
	if err != nil {
		return nil, err
	}
	dogs := player.session.Dogs()
	out := make(map[string]PlayerInfo, len(dogs))
	for _, dog := range dogs {
		out[dogKey(dog.ID)] = PlayerInfo{Name: dog.Name}
	}
	return out, nil
}

type DogState struct {
	Pos   [2]float64 `json:"pos"`
	Speed [2]float64 `json:"speed"`
	Dir   string     `json:"dir"`
}

type State struct {
	Players map[string]DogState `json:"players"`
}

// State returns the dogs on the caller's map.
func (a *Application) State(raw string) (State, error) {
	player, err := a.Authorize(raw)
	if err != nil {
		return State{}, err
	}
	return stateOf(player.session), nil
}

// MapState returns the state of a map's session. It reports false when
// nobody has joined the map yet.
func (a *Application) MapState(id world.MapID) (State, bool) {
	for _, session := range a.game.Sessions() {
		if session.Map().ID() == id {
			return stateOf(session), true
		}
	}
	return State{}, false
}

func stateOf(session *world.Session) State {
	dogs := session.Dogs()
	state := State{Players: make(map[string]DogState, len(dogs))}
	for _, dog := range dogs {
		state.Players[dogKey(dog.ID)] = DogState{
			Pos:   [2]float64{dog.Position.X, dog.Position.Y},
			Speed: [2]float64{dog.Velocity.X, dog.Velocity.Y},
			Dir:   string(dog.Direction),
		}
	}
	return state
}

// Action applies a move command ("U", "D", "L", "R" or "" to stop).
func (a *Application) Action(raw, move string) error {
	player, err := a.Authorize(raw)
	if err != nil {
		return err
	}
	_, err = player.session.SetMove(player.ID, move)
	return err
}

// Tick advances the world on request. It is only available when the server
// runs without its own tick loop.
func (a *Application) Tick(ctx context.Context, delta time.Duration) (world.TickStats, error) {
	if !a.cfg.ManualTick {
		return world.TickStats{}, ErrManualTickDisabled
	}
	return a.Advance(ctx, delta)
}

// Advance moves every session forward by delta.
func (a *Application) Advance(ctx context.Context, delta time.Duration) (world.TickStats, error) {
	if delta < 0 {
		return world.TickStats{}, fmt.Errorf("%w: %s", ErrInvalidTimeDelta, delta)
	}
	stats, err := a.game.Tick(ctx, delta.Seconds())
	if err != nil {
		return stats, err
	}
	a.mu.Lock()
	a.ticks++
	stats.Tick = a.ticks
	a.mu.Unlock()
	a.metrics.Add(telemetry.KeyTicks, 1)
	if a.cfg.AfterTick != nil {
		a.cfg.AfterTick(ctx, stats)
	}
	return stats, nil
}

// Ticks returns the number of applied world ticks.
func (a *Application) Ticks() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ticks
}

func (a *Application) Maps() []*world.Map {
	return a.game.Maps()
}

func (a *Application) Map(id string) (*world.Map, error) {
	m, ok := a.game.FindMap(world.MapID(id))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMapNotFound, id)
	}
	return m, nil
}

func dogKey(id world.DogID) string {
	return strconv.FormatUint(uint64(id), 10)
}
