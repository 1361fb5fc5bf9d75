package roadmap

// Direction is the compass heading of an axis-aligned velocity. North points
// toward decreasing y.
type Direction uint8

const (
	None Direction = iota
	North
	South
	East
	West
)

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	default:
		return "none"
	}
}

// Opposite returns the reverse heading. None is its own opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		return None
	}
}

// Axis returns the axis the heading moves along and the sign of the motion.
func (d Direction) Axis() (Axis, int64) {
	switch d {
	case North:
		return AxisY, -1
	case South:
		return AxisY, 1
	case East:
		return AxisX, 1
	case West:
		return AxisX, -1
	default:
		return AxisX, 0
	}
}

// VelocityToDirection maps the sign pattern of an axis-aligned velocity to a
// heading. Velocities with both axes set return ErrDiagonalVelocity.
func VelocityToDirection(v Velocity) (Direction, error) {
	switch {
	case v.X != 0 && v.Y != 0:
		return None, ErrDiagonalVelocity
	case v.X > 0:
		return East, nil
	case v.X < 0:
		return West, nil
	case v.Y > 0:
		return South, nil
	case v.Y < 0:
		return North, nil
	default:
		return None, nil
	}
}
