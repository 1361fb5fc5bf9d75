// Package mapconfig reads the JSON map file and builds world maps from it.
package mapconfig

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"roadrunner/server/internal/roadmap"
	"roadrunner/server/internal/world"
)

var (
	ErrNoMaps        = errors.New("config declares no maps")
	ErrMissingID     = errors.New("map id is required")
	ErrDuplicateMap  = errors.New("duplicate map id")
	ErrRoadEndpoint  = errors.New("road needs exactly one of x1 or y1")
	ErrNegativeSpeed = errors.New("dog speed must not be negative")
)

type File struct {
	DefaultDogSpeed float64 `json:"defaultDogSpeed,omitempty" jsonschema:"minimum=0,description=Dog speed used by maps that do not set their own"`
	Maps            []Map   `json:"maps" jsonschema:"minItems=1"`
}

type Map struct {
	ID        string     `json:"id" jsonschema:"minLength=1"`
	Name      string     `json:"name"`
	DogSpeed  float64    `json:"dogSpeed,omitempty" jsonschema:"minimum=0"`
	Roads     []Road     `json:"roads"`
	Buildings []Building `json:"buildings,omitempty"`
	Offices   []Office   `json:"offices,omitempty"`
}

// Road is horizontal when X1 is set and vertical when Y1 is set.
type Road struct {
	X0 float64  `json:"x0"`
	Y0 float64  `json:"y0"`
	X1 *float64 `json:"x1,omitempty" jsonschema:"oneof_required=horizontal"`
	Y1 *float64 `json:"y1,omitempty" jsonschema:"oneof_required=vertical"`
}

type Building struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w" jsonschema:"exclusiveMinimum=0"`
	H float64 `json:"h" jsonschema:"exclusiveMinimum=0"`
}

type Office struct {
	ID      string  `json:"id" jsonschema:"minLength=1"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

func (r Road) endpoints() (roadmap.Position, roadmap.Position, error) {
	start := roadmap.Position{X: r.X0, Y: r.Y0}
	switch {
	case r.X1 != nil && r.Y1 == nil:
		return start, roadmap.Position{X: *r.X1, Y: r.Y0}, nil
	case r.Y1 != nil && r.X1 == nil:
		return start, roadmap.Position{X: r.X0, Y: *r.Y1}, nil
	default:
		return roadmap.Position{}, roadmap.Position{}, ErrRoadEndpoint
	}
}

// Load reads and decodes the file at path. Unknown fields are rejected.
func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, errors.Wrap(err, "read map config")
	}
	return Decode(bytes.NewReader(raw))
}

func Decode(r io.Reader) (File, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	var file File
	if err := decoder.Decode(&file); err != nil {
		return File{}, errors.Wrap(err, "decode map config")
	}
	return file, nil
}

// Build validates the file and constructs indexed maps in file order.
func (f File) Build() ([]*world.Map, error) {
	if len(f.Maps) == 0 {
		return nil, ErrNoMaps
	}
	if f.DefaultDogSpeed < 0 {
		return nil, errors.Wrap(ErrNegativeSpeed, "defaultDogSpeed")
	}
	seen := make(map[string]struct{}, len(f.Maps))
	maps := make([]*world.Map, 0, len(f.Maps))
	for i, spec := range f.Maps {
		if spec.ID == "" {
			return nil, errors.Wrapf(ErrMissingID, "maps[%d]", i)
		}
		if _, dup := seen[spec.ID]; dup {
			return nil, errors.Wrapf(ErrDuplicateMap, "maps[%d] %q", i, spec.ID)
		}
		seen[spec.ID] = struct{}{}
		m, err := spec.build()
		if err != nil {
			return nil, errors.Wrapf(err, "maps[%d]", i)
		}
		maps = append(maps, m)
	}
	return maps, nil
}

func (spec Map) build() (*world.Map, error) {
	if spec.DogSpeed < 0 {
		return nil, errors.Wrap(ErrNegativeSpeed, "dogSpeed")
	}
	m := world.NewMap(world.MapID(spec.ID), spec.Name, spec.DogSpeed)
	for i, road := range spec.Roads {
		start, end, err := road.endpoints()
		if err != nil {
			return nil, errors.Wrapf(err, "roads[%d]", i)
		}
		if err := m.AddRoad(start, end); err != nil {
			return nil, err
		}
	}
	for _, b := range spec.Buildings {
		if err := m.AddBuilding(world.Building{X: b.X, Y: b.Y, W: b.W, H: b.H}); err != nil {
			return nil, err
		}
	}
	for _, o := range spec.Offices {
		err := m.AddOffice(world.Office{
			ID:       o.ID,
			Position: roadmap.Position{X: o.X, Y: o.Y},
			OffsetX:  o.OffsetX,
			OffsetY:  o.OffsetY,
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// LoadMaps reads path and builds its maps.
func LoadMaps(path string) (File, []*world.Map, error) {
	file, err := Load(path)
	if err != nil {
		return File{}, nil, err
	}
	maps, err := file.Build()
	if err != nil {
		return File{}, nil, errors.Wrap(err, path)
	}
	return file, maps, nil
}
