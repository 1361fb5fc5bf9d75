package net

import (
	"roadrunner/server/internal/roadmap"
	"roadrunner/server/internal/world"
)

type mapSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type roadView struct {
	X0 float64  `json:"x0"`
	Y0 float64  `json:"y0"`
	X1 *float64 `json:"x1,omitempty"`
	Y1 *float64 `json:"y1,omitempty"`
}

type buildingView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type officeView struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

type mapView struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	DogSpeed  float64        `json:"dogSpeed"`
	Roads     []roadView     `json:"roads"`
	Buildings []buildingView `json:"buildings"`
	Offices   []officeView   `json:"offices"`
}

func summarize(maps []*world.Map) []mapSummary {
	out := make([]mapSummary, 0, len(maps))
	for _, m := range maps {
		out = append(out, mapSummary{ID: string(m.ID()), Name: m.Name()})
	}
	return out
}

// viewOf renders a map the way it is written in the config file.
func viewOf(m *world.Map, defaultSpeed float64) mapView {
	view := mapView{
		ID:        string(m.ID()),
		Name:      m.Name(),
		DogSpeed:  m.DogSpeed(defaultSpeed),
		Roads:     make([]roadView, 0),
		Buildings: make([]buildingView, 0),
		Offices:   make([]officeView, 0),
	}
	for _, road := range m.Roads() {
		rv := roadView{X0: road.Start.X, Y0: road.Start.Y}
		end := road.End
		if road.Orientation == roadmap.Horizontal {
			rv.X1 = &end.X
		} else {
			rv.Y1 = &end.Y
		}
		view.Roads = append(view.Roads, rv)
	}
	for _, b := range m.Buildings() {
		view.Buildings = append(view.Buildings, buildingView{X: b.X, Y: b.Y, W: b.W, H: b.H})
	}
	for _, o := range m.Offices() {
		view.Offices = append(view.Offices, officeView{
			ID:      o.ID,
			X:       o.Position.X,
			Y:       o.Position.Y,
			OffsetX: o.OffsetX,
			OffsetY: o.OffsetY,
		})
	}
	return view
}
