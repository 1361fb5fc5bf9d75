package roadmap

import "math"

// Cells are half-open intervals closed on the side facing the origin: for
// v >= 0 cell c covers [c, c+1)/ScaleFactor and for v < 0 it covers
// (c-1, c]/ScaleFactor. scaleCoordinate and the edge helpers below are the
// two halves of this convention: the closed edge of a cell always maps back
// to the same cell, which is what keeps clamped points on the network.
func scaleCoordinate(v float64) int64 {
	scaled := v * ScaleFactor
	if v >= 0 {
		return int64(math.Floor(scaled))
	}
	return int64(math.Ceil(scaled))
}

// lowerEdge returns the low boundary of cell c on one axis. It is the closed
// edge for non-negative cells.
func lowerEdge(c int64) float64 {
	if c < 0 {
		return float64(c-1) / ScaleFactor
	}
	return float64(c) / ScaleFactor
}

// upperEdge returns the high boundary of cell c on one axis. It is the closed
// edge for negative cells.
func upperEdge(c int64) float64 {
	if c < 0 {
		return float64(c) / ScaleFactor
	}
	return float64(c+1) / ScaleFactor
}

// cellOf converts a position into its grid cell without consulting the index.
func cellOf(p Position) Cell {
	return Cell{X: scaleCoordinate(p.X), Y: scaleCoordinate(p.Y)}
}

// onNetworkRange reports whether the position can belong to any corridor at
// all. NewRoad rejects negative coordinates, so nothing lies further than
// Offset below zero.
func onNetworkRange(p Position) bool {
	return p.X >= -Offset-Epsilon && p.Y >= -Offset-Epsilon
}

// Locate returns the indexed cell containing the position. It reports false
// when the position is off the network or its cell is covered by no road.
func (m *Roadmap) Locate(p Position) (Cell, bool) {
	if !onNetworkRange(p) {
		return Cell{}, false
	}
	cell := cellOf(p)
	if _, ok := m.grid.lookup(cell); !ok {
		return Cell{}, false
	}
	return cell, true
}

// CellEdges holds the boundary points of one cell. Each compass entry keeps
// the reference position on the other axis.
type CellEdges struct {
	North Position
	South Position
	East  Position
	West  Position
	None  Position
}

// Edge returns the boundary point facing the direction.
func (e CellEdges) Edge(d Direction) Position {
	switch d {
	case North:
		return e.North
	case South:
		return e.South
	case East:
		return e.East
	case West:
		return e.West
	default:
		return e.None
	}
}

// MatrixCoordinateToPosition converts a cell back into its four boundary
// points. North faces decreasing y and West decreasing x.
func MatrixCoordinateToPosition(cell Cell, reference Position) CellEdges {
	return CellEdges{
		North: Position{X: reference.X, Y: lowerEdge(cell.Y)},
		South: Position{X: reference.X, Y: upperEdge(cell.Y)},
		West:  Position{X: lowerEdge(cell.X), Y: reference.Y},
		East:  Position{X: upperEdge(cell.X), Y: reference.Y},
		None:  reference,
	}
}
