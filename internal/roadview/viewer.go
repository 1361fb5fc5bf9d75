// Package roadview renders a map's road corridors in a terminal and lets a
// local dog be driven around with the arrow keys.
package roadview

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"roadrunner/server/internal/roadmap"
	"roadrunner/server/internal/world"
)

const (
	dogRune    = '@'
	officeRune = 'O'
	roadRune   = '·'
	statusRows = 1
)

var (
	roadStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	dogStyle    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	officeStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	statusStyle = tcell.StyleDefault.Reverse(true)
)

// Viewer owns a screen and a single-dog session on one map.
type Viewer struct {
	screen  tcell.Screen
	session *world.Session
	dog     world.DogID
	tick    time.Duration
	status  string
}

func New(screen tcell.Screen, m *world.Map, cfg world.Config, tick time.Duration) (*Viewer, error) {
	session := world.NewSession(m, cfg, world.Deps{})
	dog, err := session.AddDog(0, "viewer")
	if err != nil {
		return nil, err
	}
	if tick <= 0 {
		tick = 50 * time.Millisecond
	}
	return &Viewer{screen: screen, session: session, dog: dog.ID, tick: tick}, nil
}

// projection maps world coordinates onto screen cells.
type projection struct {
	minX, minY float64
	sx, sy     float64
}

func (v *Viewer) projection() projection {
	width, height := v.screen.Size()
	height -= statusRows
	bounds := v.session.Map().Roadmap().Bounds()
	spanX := math.Max(bounds.Max[0]-bounds.Min[0], roadmap.Epsilon)
	spanY := math.Max(bounds.Max[1]-bounds.Min[1], roadmap.Epsilon)
	return projection{
		minX: bounds.Min[0],
		minY: bounds.Min[1],
		sx:   float64(max(width-1, 0)) / spanX,
		sy:   float64(max(height-1, 0)) / spanY,
	}
}

func (p projection) cell(pos roadmap.Position) (int, int) {
	return int(math.Round((pos.X - p.minX) * p.sx)), int(math.Round((pos.Y - p.minY) * p.sy))
}

func (p projection) world(col, row int) roadmap.Position {
	pos := roadmap.Position{X: p.minX, Y: p.minY}
	if p.sx > 0 {
		pos.X += float64(col) / p.sx
	}
	if p.sy > 0 {
		pos.Y += float64(row) / p.sy
	}
	return pos
}

// Draw renders the network, offices, the dog and a status line.
func (v *Viewer) Draw() {
	v.screen.Clear()
	width, height := v.screen.Size()
	proj := v.projection()
	roads := v.session.Map().Roadmap()

	for row := 0; row < height-statusRows; row++ {
		for col := 0; col < width; col++ {
			pos := proj.world(col, row)
			cell, ok := roads.Locate(pos)
			if !ok || !roads.IsOnAnyOf(roads.RoadsAt(cell), pos) {
				continue
			}
			v.screen.SetContent(col, row, roadRune, nil, roadStyle)
		}
	}
	for _, road := range roads.GetRoads() {
		v.drawSegment(proj, road)
	}
	for _, office := range v.session.Map().Offices() {
		col, row := proj.cell(office.Position)
		v.screen.SetContent(col, row, officeRune, nil, officeStyle)
	}

	dog, _ := v.session.Dog(v.dog)
	col, row := proj.cell(dog.Position)
	v.screen.SetContent(col, row, dogRune, nil, dogStyle)

	status := fmt.Sprintf(" %s  pos=(%.2f, %.2f) dir=%s %s", v.session.Map().Name(), dog.Position.X, dog.Position.Y, dog.Direction, v.status)
	runes := []rune(status)
	for i := 0; i < width; i++ {
		r := ' '
		if i < len(runes) {
			r = runes[i]
		}
		v.screen.SetContent(i, height-1, r, nil, statusStyle)
	}
	v.screen.Show()
}

func (v *Viewer) drawSegment(proj projection, road roadmap.Road) {
	glyph := '─'
	if road.IsVertical() {
		glyph = '│'
	}
	c0, r0 := proj.cell(road.Start)
	c1, r1 := proj.cell(road.End)
	for col := min(c0, c1); col <= max(c0, c1); col++ {
		for row := min(r0, r1); row <= max(r0, r1); row++ {
			v.screen.SetContent(col, row, glyph, nil, roadStyle)
		}
	}
}

// handleKey applies one key press and reports whether the viewer should quit.
func (v *Viewer) handleKey(key tcell.Key, r rune) bool {
	move := ""
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		move = string(world.DirectionUp)
	case tcell.KeyDown:
		move = string(world.DirectionDown)
	case tcell.KeyLeft:
		move = string(world.DirectionLeft)
	case tcell.KeyRight:
		move = string(world.DirectionRight)
	case tcell.KeyRune:
		switch r {
		case 'q':
			return true
		case ' ':
		default:
			return false
		}
	default:
		return false
	}
	if _, err := v.session.SetMove(v.dog, move); err != nil {
		v.status = err.Error()
	}
	return false
}

// step advances the session by one tick and records its outcome.
func (v *Viewer) step(ctx context.Context) {
	stats, err := v.session.Tick(ctx, v.tick.Seconds())
	switch {
	case err != nil:
		v.status = err.Error()
	case stats.Clamped > 0:
		v.status = "edge"
	default:
		v.status = ""
	}
}

// Run drives the viewer until the user quits or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tcell.Event, 8)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(v.tick)
	defer ticker.Stop()
	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if v.handleKey(ev.Key(), ev.Rune()) {
					return nil
				}
			case *tcell.EventResize:
				v.screen.Sync()
			}
			v.Draw()
		case <-ticker.C:
			v.step(ctx)
			v.Draw()
		}
	}
}
