package world

import (
	"errors"
	"fmt"

	"roadrunner/server/internal/roadmap"
)

var ErrInvalidDirection = errors.New("invalid move direction")

// DogID doubles as the owning player's id.
type DogID uint64

// Direction is the heading a dog faces, spelled the way clients send it.
type Direction string

const (
	DirectionUp    Direction = "U"
	DirectionDown  Direction = "D"
	DirectionLeft  Direction = "L"
	DirectionRight Direction = "R"
)

// ParseMove accepts a client move command. The empty string means stop and
// is reported with ok == false.
func ParseMove(raw string) (dir Direction, ok bool, err error) {
	switch Direction(raw) {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return Direction(raw), true, nil
	case "":
		return "", false, nil
	default:
		return "", false, fmt.Errorf("%w: %q", ErrInvalidDirection, raw)
	}
}

// Velocity turns the heading into an axis-aligned velocity of the given speed.
// Up points toward decreasing y.
func (d Direction) Velocity(speed float64) roadmap.Velocity {
	switch d {
	case DirectionUp:
		return roadmap.Velocity{Y: -speed}
	case DirectionDown:
		return roadmap.Velocity{Y: speed}
	case DirectionLeft:
		return roadmap.Velocity{X: -speed}
	case DirectionRight:
		return roadmap.Velocity{X: speed}
	default:
		return roadmap.Velocity{}
	}
}

// Dog is a player's avatar.
type Dog struct {
	ID        DogID            `json:"id"`
	Name      string           `json:"name"`
	Position  roadmap.Position `json:"position"`
	Velocity  roadmap.Velocity `json:"velocity"`
	Direction Direction        `json:"dir"`
}
