package roadmap

import (
	"errors"
	"math"
)

const (
	// Offset is the half-width of every road corridor in map units. Corridors
	// also extend Offset past both ends of their segment.
	Offset = 0.4
	// ScaleFactor converts map units into grid cells. A cell spans
	// 1/ScaleFactor map units, small enough that two corridors only share a
	// cell where they genuinely overlap.
	ScaleFactor = 20
	// Epsilon is the single tolerance used for every boundary comparison.
	Epsilon = 1e-6
)

var (
	// ErrZeroLengthRoad reports a segment whose start and end coincide.
	ErrZeroLengthRoad = errors.New("roadmap: zero-length road")
	// ErrDiagonalRoad reports a segment that is neither horizontal nor vertical.
	ErrDiagonalRoad = errors.New("roadmap: road is not axis-aligned")
	// ErrNegativeCoordinate reports a segment with an endpoint below zero on
	// either axis. Locate cannot reach such corridors.
	ErrNegativeCoordinate = errors.New("roadmap: road coordinate is negative")
	// ErrDiagonalVelocity reports a velocity with both axes non-zero.
	ErrDiagonalVelocity = errors.New("roadmap: velocity has two non-zero axes")
)

// Position is a continuous point in map units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Velocity is a movement vector in map units per second.
type Velocity struct {
	X float64 `json:"vx"`
	Y float64 `json:"vy"`
}

// IsZero reports whether both components are zero.
func (v Velocity) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Orientation tells which axis a road runs along.
type Orientation uint8

const (
	Horizontal Orientation = iota + 1
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "unknown"
	}
}

// RoadIndex identifies a road by its insertion order in a Roadmap.
type RoadIndex uint32

// Road is an immutable axis-aligned segment. The Index field is assigned
// when the road is added to a Roadmap.
type Road struct {
	Index       RoadIndex
	Start       Position
	End         Position
	Orientation Orientation
}

// NewRoad derives the orientation from the shared coordinate of start and
// end. Zero-length, diagonal and negative-coordinate segments are rejected.
func NewRoad(start, end Position) (Road, error) {
	if start.X < 0 || start.Y < 0 || end.X < 0 || end.Y < 0 {
		return Road{}, ErrNegativeCoordinate
	}
	sameX := start.X == end.X
	sameY := start.Y == end.Y
	switch {
	case sameX && sameY:
		return Road{}, ErrZeroLengthRoad
	case sameY:
		return Road{Start: start, End: end, Orientation: Horizontal}, nil
	case sameX:
		return Road{Start: start, End: end, Orientation: Vertical}, nil
	default:
		return Road{}, ErrDiagonalRoad
	}
}

// NewHorizontalRoad builds a road from start running along x to endX.
func NewHorizontalRoad(start Position, endX float64) (Road, error) {
	return NewRoad(start, Position{X: endX, Y: start.Y})
}

// NewVerticalRoad builds a road from start running along y to endY.
func NewVerticalRoad(start Position, endY float64) (Road, error) {
	return NewRoad(start, Position{X: start.X, Y: endY})
}

// IsHorizontal reports whether the road runs along the x axis.
func (r Road) IsHorizontal() bool {
	return r.Orientation == Horizontal
}

// IsVertical reports whether the road runs along the y axis.
func (r Road) IsVertical() bool {
	return r.Orientation == Vertical
}

// Length returns the segment length in map units.
func (r Road) Length() float64 {
	return math.Abs(r.End.X-r.Start.X) + math.Abs(r.End.Y-r.Start.Y)
}

// span returns the segment extent along its own axis, low end first, and
// the fixed coordinate on the other axis.
func (r Road) span() (lo, hi, fixed float64) {
	if r.IsHorizontal() {
		return math.Min(r.Start.X, r.End.X), math.Max(r.Start.X, r.End.X), r.Start.Y
	}
	return math.Min(r.Start.Y, r.End.Y), math.Max(r.Start.Y, r.End.Y), r.Start.X
}

func (r Road) validate() error {
	_, err := NewRoad(r.Start, r.End)
	return err
}
