package main

import (
	"strings"
	"testing"
)

func TestCheckFlagsLayerViolations(t *testing.T) {
	input := `
{"ImportPath": "ordnance/internal/weapon", "Imports": ["ordnance/internal/bonus", "ordnance/internal/arena"]}
{"ImportPath": "ordnance/internal/weapon/mocks", "Imports": ["ordnance/internal/weapon"]}
{"ImportPath": "ordnance/internal/arena", "Imports": ["ordnance/internal/weapon", "github.com/google/uuid"]}
{"ImportPath": "ordnance/logging/weapons", "Imports": ["ordnance/logging", "ordnance/internal/geom"]}
`
	violations, err := check(strings.NewReader(input))
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	want := []string{
		"ordnance/internal/weapon -> ordnance/internal/arena",
		"ordnance/logging/weapons -> ordnance/internal/geom",
	}
	if len(violations) != len(want) {
		t.Fatalf("expected %v, got %v", want, violations)
	}
	for i := range want {
		if violations[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, violations)
		}
	}
}

func TestCheckAllowsImportsWithinAPackage(t *testing.T) {
	input := `{"ImportPath": "ordnance/internal/geom", "Imports": ["math"]}`
	violations, err := check(strings.NewReader(input))
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}
