package roadmap

import (
	"math"
	"slices"
)

// Cell is a discretized grid coordinate.
type Cell struct {
	X int64
	Y int64
}

// Axis selects the coordinate a traversal runs along.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

// Along returns the cell's coordinate on the axis.
func (c Cell) Along(axis Axis) int64 {
	if axis == AxisX {
		return c.X
	}
	return c.Y
}

// With returns a copy of the cell with its coordinate on axis replaced.
func (c Cell) With(axis Axis, value int64) Cell {
	if axis == AxisX {
		c.X = value
	} else {
		c.Y = value
	}
	return c
}

// roadSet holds road indices in ascending order. Roads are inserted in index
// order so appends keep it sorted.
type roadSet []RoadIndex

func (s roadSet) add(index RoadIndex) roadSet {
	if n := len(s); n > 0 && s[n-1] >= index {
		if pos, found := slices.BinarySearch(s, index); !found {
			return slices.Insert(s, pos, index)
		}
		return s
	}
	return append(s, index)
}

func (s roadSet) contains(index RoadIndex) bool {
	_, found := slices.BinarySearch(s, index)
	return found
}

// intersects reports whether the two sorted sets share an index.
func (s roadSet) intersects(other roadSet) bool {
	i, j := 0, 0
	for i < len(s) && j < len(other) {
		switch {
		case s[i] == other[j]:
			return true
		case s[i] < other[j]:
			i++
		default:
			j++
		}
	}
	return false
}

// cellRange is an inclusive rectangle of cells.
type cellRange struct {
	Min Cell
	Max Cell
}

func (r cellRange) extend(other cellRange) cellRange {
	return cellRange{
		Min: Cell{X: min(r.Min.X, other.Min.X), Y: min(r.Min.Y, other.Min.Y)},
		Max: Cell{X: max(r.Max.X, other.Max.X), Y: max(r.Max.Y, other.Max.Y)},
	}
}

func (r cellRange) intersect(other cellRange) cellRange {
	return cellRange{
		Min: Cell{X: max(r.Min.X, other.Min.X), Y: max(r.Min.Y, other.Min.Y)},
		Max: Cell{X: min(r.Max.X, other.Max.X), Y: min(r.Max.Y, other.Max.Y)},
	}
}

// limit returns the last reachable coordinate when walking along axis in
// direction.
func (r cellRange) limit(axis Axis, direction int64) int64 {
	if direction > 0 {
		return r.Max.Along(axis)
	}
	return r.Min.Along(axis)
}

// gridIndex maps cells to the roads whose corridor covers them. Cells that
// no corridor touches are absent from the map.
type gridIndex struct {
	cells     map[Cell]roadSet
	extent    cellRange
	hasExtent bool
}

func newGridIndex() *gridIndex {
	return &gridIndex{cells: make(map[Cell]roadSet)}
}

// insert marks every cell of the road's thickened corridor.
func (g *gridIndex) insert(road Road, index RoadIndex) {
	covered := corridorCells(road)
	for x := covered.Min.X; x <= covered.Max.X; x++ {
		for y := covered.Min.Y; y <= covered.Max.Y; y++ {
			cell := Cell{X: x, Y: y}
			g.cells[cell] = g.cells[cell].add(index)
		}
	}
	if !g.hasExtent {
		g.extent, g.hasExtent = covered, true
	} else {
		g.extent = g.extent.extend(covered)
	}
}

func (g *gridIndex) lookup(cell Cell) (roadSet, bool) {
	set, ok := g.cells[cell]
	return set, ok
}

// corridorCells returns the inclusive cell rectangle a road covers: the
// segment scaled to cells, widened by the scaled offset on every side.
func corridorCells(road Road) cellRange {
	lo, hi, fixed := road.span()
	scaledOffset := int64(math.Round(Offset * ScaleFactor))
	start := scaleCoordinate(lo) - scaledOffset
	end := scaleCoordinate(hi) + scaledOffset
	center := scaleCoordinate(fixed)

	main, cross := mainAxis(road), crossAxis(road)
	return cellRange{
		Min: Cell{}.With(main, start).With(cross, center-scaledOffset),
		Max: Cell{}.With(main, end).With(cross, center+scaledOffset),
	}
}

func mainAxis(road Road) Axis {
	if road.IsHorizontal() {
		return AxisX
	}
	return AxisY
}

func crossAxis(road Road) Axis {
	if road.IsHorizontal() {
		return AxisY
	}
	return AxisX
}
