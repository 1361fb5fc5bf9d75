package roadview

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"roadrunner/server/internal/roadmap"
	"roadrunner/server/internal/world"
)

func newTestViewer(t *testing.T) (*Viewer, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(40, 8)

	m := world.NewMap("map1", "Map 1", 0)
	if err := m.AddRoad(roadmap.Position{}, roadmap.Position{X: 10}); err != nil {
		t.Fatalf("add road: %v", err)
	}
	if err := m.AddOffice(world.Office{ID: "o0", Position: roadmap.Position{X: 10}}); err != nil {
		t.Fatalf("add office: %v", err)
	}
	viewer, err := New(screen, m, world.DefaultConfig(), time.Second)
	if err != nil {
		t.Fatalf("new viewer: %v", err)
	}
	return viewer, screen
}

func runeAt(screen tcell.SimulationScreen, col, row int) rune {
	mainc, _, _, _ := screen.GetContent(col, row)
	return mainc
}

func statusLine(screen tcell.SimulationScreen) string {
	width, height := screen.Size()
	var b strings.Builder
	for col := 0; col < width; col++ {
		b.WriteRune(runeAt(screen, col, height-1))
	}
	return b.String()
}

func TestDrawPlacesDogAndRoads(t *testing.T) {
	viewer, screen := newTestViewer(t)
	viewer.Draw()

	proj := viewer.projection()
	col, row := proj.cell(roadmap.Position{})
	if got := runeAt(screen, col, row); got != dogRune {
		t.Fatalf("expected dog at (%d,%d), got %q", col, row, got)
	}
	officeCol, officeRow := proj.cell(roadmap.Position{X: 10})
	if got := runeAt(screen, officeCol, officeRow); got != officeRune {
		t.Fatalf("expected office at (%d,%d), got %q", officeCol, officeRow, got)
	}
	midCol, midRow := proj.cell(roadmap.Position{X: 5})
	if got := runeAt(screen, midCol, midRow); got != '─' {
		t.Fatalf("expected road glyph mid-segment, got %q", got)
	}
	if status := statusLine(screen); !strings.Contains(status, "Map 1") {
		t.Fatalf("expected map name in status line, got %q", status)
	}
}

func TestArrowKeysDriveTheDog(t *testing.T) {
	viewer, screen := newTestViewer(t)
	if viewer.handleKey(tcell.KeyRight, 0) {
		t.Fatalf("expected arrow key not to quit")
	}
	viewer.step(context.Background())
	viewer.Draw()

	dog, _ := viewer.session.Dog(viewer.dog)
	if dog.Position != (roadmap.Position{X: 1}) {
		t.Fatalf("expected dog at (1,0) after one second, got %+v", dog.Position)
	}
	col, row := viewer.projection().cell(dog.Position)
	if got := runeAt(screen, col, row); got != dogRune {
		t.Fatalf("expected dog glyph at (%d,%d), got %q", col, row, got)
	}

	viewer.handleKey(tcell.KeyUp, 0)
	viewer.step(context.Background())
	if viewer.status != "edge" {
		t.Fatalf("expected edge status after clamping north, got %q", viewer.status)
	}
	dog, _ = viewer.session.Dog(viewer.dog)
	if math.Abs(dog.Position.Y+roadmap.Offset) > roadmap.Epsilon || !dog.Velocity.IsZero() {
		t.Fatalf("expected dog stopped at the corridor edge, got %+v", dog)
	}
}

func TestQuitKeys(t *testing.T) {
	viewer, _ := newTestViewer(t)
	if !viewer.handleKey(tcell.KeyRune, 'q') {
		t.Fatalf("expected q to quit")
	}
	if !viewer.handleKey(tcell.KeyEscape, 0) {
		t.Fatalf("expected escape to quit")
	}
	if viewer.handleKey(tcell.KeyRune, 'x') {
		t.Fatalf("expected other runes to be ignored")
	}
}

func TestRunReturnsWhenContextEnds(t *testing.T) {
	viewer, _ := newTestViewer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := viewer.Run(ctx); err == nil {
		t.Fatalf("expected Run to report the context error")
	}
}
