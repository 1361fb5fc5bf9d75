package roadmap

import "math"

// Outcome classifies how a move was resolved.
type Outcome uint8

const (
	// OutcomeFree means the desired position was reached.
	OutcomeFree Outcome = iota
	// OutcomeEdge means the move stopped at the far boundary of the last
	// reachable cell with its velocity kept.
	OutcomeEdge
	// OutcomeClamped means the move stopped at a corridor edge and the
	// velocity was zeroed.
	OutcomeClamped
	// OutcomeBlocked means the entity did not move.
	OutcomeBlocked
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFree:
		return "free"
	case OutcomeEdge:
		return "edge"
	case OutcomeClamped:
		return "clamped"
	case OutcomeBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Move is a resolved movement.
type Move struct {
	Position Position
	Velocity Velocity
	Outcome  Outcome
}

func blocked(old Position) Move {
	return Move{Position: old, Outcome: OutcomeBlocked}
}

// GetValidMove resolves an attempted move from old to desired. The result
// never leaves the union of road corridors; invalid input resolves as
// blocked.
func (m *Roadmap) GetValidMove(old, desired Position, velocity Velocity) (Position, Velocity) {
	move, err := m.Resolve(old, desired, velocity)
	if err != nil {
		return old, Velocity{}
	}
	return move.Position, move.Velocity
}

// Resolve is GetValidMove with the outcome exposed. A velocity with both axes
// non-zero returns ErrDiagonalVelocity together with a blocked move.
func (m *Roadmap) Resolve(old, desired Position, velocity Velocity) (Move, error) {
	direction, err := VelocityToDirection(velocity)
	if err != nil {
		return blocked(old), err
	}

	start, ok := m.Locate(old)
	if !ok {
		return blocked(old), nil
	}

	end, hasEnd := m.Locate(desired)
	if hasEnd && !m.IsOnAnyOf(m.grid.cells[end], desired) {
		hasEnd = false
	}
	if hasEnd && end == start {
		return Move{Position: desired, Velocity: velocity, Outcome: OutcomeFree}, nil
	}
	if direction == None {
		return blocked(old), nil
	}

	dest := m.march(start, end, hasEnd, direction)
	if m.IsOnAnyOf(m.grid.cells[dest], desired) {
		return Move{Position: desired, Velocity: velocity, Outcome: OutcomeFree}, nil
	}
	return m.clamp(dest, old, velocity, direction), nil
}

// march walks from start along the heading while each cell is indexed and
// shares a road with start. It stops at end when end lies ahead, otherwise
// at the edge of the marchable extent.
func (m *Roadmap) march(start, end Cell, hasEnd bool, direction Direction) Cell {
	axis, step := direction.Axis()
	origin := m.grid.cells[start]

	limit := m.extent().limit(axis, step)
	if hasEnd {
		target := end.Along(axis)
		if ahead(start.Along(axis), target, step) && !ahead(limit, target, step) {
			limit = target
		}
	}

	current := start
	for pos := start.Along(axis); ahead(pos, limit, step) && pos != limit; {
		next := saturatingAdd(pos, step)
		if next == pos {
			break
		}
		candidate := start.With(axis, next)
		set, ok := m.grid.lookup(candidate)
		if !ok || !set.intersects(origin) {
			break
		}
		current = candidate
		pos = next
	}
	return current
}

// clamp picks the furthest valid point inside dest. Roads are tried in index
// order; the first one whose far boundary is on-road wins outright.
func (m *Roadmap) clamp(dest Cell, old Position, velocity Velocity, direction Direction) Move {
	edges := MatrixCoordinateToPosition(dest, old)
	forward := edges.Edge(direction)
	backward := edges.Edge(direction.Opposite())

	result := blocked(old)
	for _, index := range m.grid.cells[dest] {
		road := m.roads[index]
		if !IsOnRoad(road, backward) {
			continue
		}
		if IsOnRoad(road, forward) {
			return Move{Position: forward, Velocity: velocity, Outcome: OutcomeEdge}
		}
		result = Move{Position: backward, Outcome: OutcomeClamped}
	}
	return result
}

// ahead reports whether to is reached from from by moving in direction step,
// counting equality.
func ahead(from, to, step int64) bool {
	if step > 0 {
		return to >= from
	}
	return to <= from
}

func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}
