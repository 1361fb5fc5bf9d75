package world

import (
	"errors"
	"fmt"

	"roadrunner/server/internal/roadmap"
)

var (
	ErrDuplicateOffice = errors.New("duplicate office id")
	ErrInvalidBuilding = errors.New("building must have positive size")
)

// MapID identifies a map in requests and configuration.
type MapID string

// Building is a decorative rectangle rendered by clients.
type Building struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Office is a lost-and-found point drawn next to the road network.
type Office struct {
	ID       string           `json:"id"`
	Position roadmap.Position `json:"position"`
	OffsetX  float64          `json:"offsetX"`
	OffsetY  float64          `json:"offsetY"`
}

// Map is a loaded level. Its roads are indexed once at load time and the
// roadmap is never mutated afterwards.
type Map struct {
	id        MapID
	name      string
	dogSpeed  float64
	roads     *roadmap.Roadmap
	buildings []Building
	offices   []Office
	officeIDs map[string]struct{}
}

// NewMap constructs an empty map. A non-positive dog speed means the game
// default applies.
func NewMap(id MapID, name string, dogSpeed float64) *Map {
	return &Map{
		id:        id,
		name:      name,
		dogSpeed:  dogSpeed,
		roads:     roadmap.New(),
		officeIDs: make(map[string]struct{}),
	}
}

func (m *Map) ID() MapID {
	return m.id
}

func (m *Map) Name() string {
	return m.name
}

// DogSpeed returns the map's own speed, or fallback when none is set.
func (m *Map) DogSpeed(fallback float64) float64 {
	if m.dogSpeed > 0 {
		return m.dogSpeed
	}
	return fallback
}

// AddRoad indexes a road segment.
func (m *Map) AddRoad(start, end roadmap.Position) error {
	road, err := roadmap.NewRoad(start, end)
	if err != nil {
		return fmt.Errorf("map %s: road %d: %w", m.id, m.roads.Len(), err)
	}
	if _, err := m.roads.AddRoad(road); err != nil {
		return fmt.Errorf("map %s: %w", m.id, err)
	}
	return nil
}

func (m *Map) AddBuilding(b Building) error {
	if b.W <= 0 || b.H <= 0 {
		return fmt.Errorf("map %s: building %d: %w", m.id, len(m.buildings), ErrInvalidBuilding)
	}
	m.buildings = append(m.buildings, b)
	return nil
}

func (m *Map) AddOffice(o Office) error {
	if _, exists := m.officeIDs[o.ID]; exists {
		return fmt.Errorf("map %s: office %q: %w", m.id, o.ID, ErrDuplicateOffice)
	}
	m.officeIDs[o.ID] = struct{}{}
	m.offices = append(m.offices, o)
	return nil
}

// Roadmap returns the read-only road index.
func (m *Map) Roadmap() *roadmap.Roadmap {
	return m.roads
}

func (m *Map) Roads() []roadmap.Road {
	return m.roads.GetRoads()
}

func (m *Map) Buildings() []Building {
	return append([]Building(nil), m.buildings...)
}

func (m *Map) Offices() []Office {
	return append([]Office(nil), m.offices...)
}
