package main

import (
	"strings"
	"testing"
)

func TestCheckFlagsForbiddenImports(t *testing.T) {
	pkgs := []packageInfo{
		{
			ImportPath: "roadrunner/server/internal/roadmap",
			Imports:    []string{"math", "github.com/paulmach/orb", "roadrunner/server/logging"},
		},
		{
			ImportPath: "roadrunner/server/internal/roadmap/internal/grid",
			Imports:    []string{"roadrunner/server/internal/roadmap"},
		},
	}
	violations := check(pkgs, rules[0])
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %v", violations)
	}
	if !strings.Contains(violations[0], "-> roadrunner/server/logging") {
		t.Fatalf("expected logging import flagged, got %q", violations[0])
	}
}

func TestCheckAllowsLowerLayers(t *testing.T) {
	pkgs := []packageInfo{{
		ImportPath: "roadrunner/server/internal/world",
		Imports: []string{
			"roadrunner/server/internal/roadmap",
			"roadrunner/server/internal/telemetry",
			"roadrunner/server/logging/movement",
		},
	}}
	if violations := check(pkgs, rules[1]); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestDecodePackagesReadsConcatenatedJSON(t *testing.T) {
	input := `{"ImportPath":"a","Imports":["b"]}
{"ImportPath":"c"}`
	pkgs, err := decodePackages(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pkgs) != 2 || pkgs[0].Imports[0] != "b" || pkgs[1].ImportPath != "c" {
		t.Fatalf("unexpected packages %+v", pkgs)
	}
}
