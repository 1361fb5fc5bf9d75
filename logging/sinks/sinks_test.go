package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"roadrunner/server/logging"
)

func sampleEvent() logging.Event {
	return logging.Event{
		Type:     "movement.move_clamped",
		Tick:     7,
		Time:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Actor:    logging.EntityRef{ID: "3", Kind: logging.EntityKindDog},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMovement,
		Payload:  map[string]any{"outcome": "clamped"},
		Extra:    map[string]any{"map": "map1"},
	}
}

func TestConsoleSinkFormatsEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, logging.ConsoleConfig{Prefix: "[test] "})
	if err := sink.Write(sampleEvent()); err != nil {
		t.Fatalf("write: %v", err)
	}
	line := buf.String()
	for _, want := range []string{"[test] ", "[movement.move_clamped]", "tick=7", "actor=dog:3", `payload={"outcome":"clamped"}`, "map=map1"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestJSONSinkWritesOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, 0)
	if err := sink.Write(sampleEvent()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Write(sampleEvent()); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["severity"] != "info" || decoded["type"] != "movement.move_clamped" {
		t.Fatalf("unexpected event %v", decoded)
	}
}

func TestJSONFileSinkFlushesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	sink, err := NewJSONFile(path, time.Hour)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := sink.Write(sampleEvent()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"tick":7`) {
		t.Fatalf("expected flushed event, got %q", data)
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("expected second close to be a no-op, got %v", err)
	}
}

func TestMemorySinkFiltersByType(t *testing.T) {
	sink := NewMemorySink()
	sink.Write(sampleEvent())
	sink.Write(logging.Event{Type: "other"})
	if got := len(sink.EventsOfType("movement.move_clamped")); got != 1 {
		t.Fatalf("expected 1 clamped event, got %d", got)
	}
	sink.Reset()
	if got := len(sink.Events()); got != 0 {
		t.Fatalf("expected reset to clear events, got %d", got)
	}
}
