package roadmap

import (
	"fmt"
	"slices"

	"github.com/paulmach/orb"
)

// Roadmap owns an ordered list of roads and the grid index built from them.
// It is populated by AddRoad during map loading and read-only afterwards;
// once reads begin it may be shared between goroutines without locking.
type Roadmap struct {
	roads     []Road
	grid      *gridIndex
	bounds    orb.Bound
	maxExtent *cellRange
	opts      []Option
}

// Option customises a Roadmap at construction.
type Option func(*Roadmap)

// WithMaxExtent caps how far a move may march through the grid. Bounds are in
// map units; the roads' own extent still applies when it is smaller.
func WithMaxExtent(bound orb.Bound) Option {
	return func(m *Roadmap) {
		limit := cellRange{
			Min: cellOf(Position{X: bound.Min[0], Y: bound.Min[1]}),
			Max: cellOf(Position{X: bound.Max[0], Y: bound.Max[1]}),
		}
		m.maxExtent = &limit
	}
}

// New constructs an empty Roadmap.
func New(opts ...Option) *Roadmap {
	m := &Roadmap{
		grid: newGridIndex(),
		opts: opts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// AddRoad validates the road, assigns it the next index and indexes its
// corridor. It must not be called once GetValidMove readers are running.
func (m *Roadmap) AddRoad(road Road) (Road, error) {
	if err := road.validate(); err != nil {
		return Road{}, fmt.Errorf("add road %v-%v: %w", road.Start, road.End, err)
	}
	normalized, _ := NewRoad(road.Start, road.End)
	normalized.Index = RoadIndex(len(m.roads))

	m.roads = append(m.roads, normalized)
	m.grid.insert(normalized, normalized.Index)

	corridor := RoadBounds(normalized)
	if normalized.Index == 0 {
		m.bounds = corridor
	} else {
		m.bounds = m.bounds.Union(corridor)
	}
	return normalized, nil
}

// GetRoads returns the roads in insertion order. The slice is a copy.
func (m *Roadmap) GetRoads() []Road {
	return slices.Clone(m.roads)
}

// Road returns the road with the given index.
func (m *Roadmap) Road(index RoadIndex) (Road, bool) {
	if int(index) >= len(m.roads) {
		return Road{}, false
	}
	return m.roads[index], true
}

// Len returns the number of roads.
func (m *Roadmap) Len() int {
	return len(m.roads)
}

// Bounds returns the union of every corridor. It is empty when no road has
// been added.
func (m *Roadmap) Bounds() orb.Bound {
	return m.bounds
}

// RoadsAt returns the indices of roads whose corridor covers the cell, in
// ascending order.
func (m *Roadmap) RoadsAt(cell Cell) []RoadIndex {
	set, ok := m.grid.lookup(cell)
	if !ok {
		return nil
	}
	return slices.Clone(set)
}

// Clone returns an independent Roadmap rebuilt by replaying AddRoad for every
// road, so the clone never shares grid state with the original.
func (m *Roadmap) Clone() *Roadmap {
	clone := New(m.opts...)
	for _, road := range m.roads {
		// Roads were validated on the way in.
		clone.AddRoad(road)
	}
	return clone
}

// extent is the region a march may cover.
func (m *Roadmap) extent() cellRange {
	if m.maxExtent == nil {
		return m.grid.extent
	}
	return m.grid.extent.intersect(*m.maxExtent)
}
