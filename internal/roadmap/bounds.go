package roadmap

import "github.com/paulmach/orb"

// Point converts the position into an orb point.
func (p Position) Point() orb.Point {
	return orb.Point{p.X, p.Y}
}

// RoadBounds returns the road's corridor: the segment widened by Offset on
// both sides and lengthened by Offset past each end.
func RoadBounds(road Road) orb.Bound {
	lo, hi, fixed := road.span()
	if road.IsHorizontal() {
		return orb.Bound{
			Min: orb.Point{lo - Offset, fixed - Offset},
			Max: orb.Point{hi + Offset, fixed + Offset},
		}
	}
	return orb.Bound{
		Min: orb.Point{fixed - Offset, lo - Offset},
		Max: orb.Point{fixed + Offset, hi + Offset},
	}
}

// containsWithTolerance is the one point-in-rectangle test of the package.
// Points within Epsilon of an edge count as inside.
func containsWithTolerance(bound orb.Bound, p Position) bool {
	return bound.Pad(Epsilon).Contains(p.Point())
}

// IsOnRoad reports whether the position lies inside the road's corridor.
func IsOnRoad(road Road, p Position) bool {
	return containsWithTolerance(RoadBounds(road), p)
}

// IsOnAnyOf reports whether the position lies inside the corridor of at least
// one of the indexed roads.
func (m *Roadmap) IsOnAnyOf(indices []RoadIndex, p Position) bool {
	for _, index := range indices {
		if int(index) < len(m.roads) && IsOnRoad(m.roads[index], p) {
			return true
		}
	}
	return false
}
