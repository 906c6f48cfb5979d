package services

import (
	"reflect"
	"testing"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims and collapses", "  which   floor\t has  XOLO ", "which floor has XOLO"},
		{"keeps case", "XOLO", "XOLO"},
		{"nfc composes", "é", "é"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeQuery(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestQueryTerms(t *testing.T) {
	got := queryTerms("ชั้นไหนมี XOLO xolo  Floor")
	want := []string{"ชั้นไหนมี", "xolo", "xolo", "floor"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if terms := queryTerms(" \t "); len(terms) != 0 {
		t.Errorf("expected no terms, got %v", terms)
	}
}

func TestTermCoverage(t *testing.T) {
	terms := []string{"xolo", "floor", "parking"}

	tests := []struct {
		text string
		want float64
	}{
		{"XOLO is on the third FLOOR", 2.0 / 3.0},
		{"nothing relevant", 0},
		{"xolo floor parking", 1},
		{"the floorplan", 1.0 / 3.0}, // substring match
	}

	for _, tt := range tests {
		if got := termCoverage(terms, tt.text); got != tt.want {
			t.Errorf("%q: expected %v, got %v", tt.text, tt.want, got)
		}
	}

	if got := termCoverage(nil, "anything"); got != 0 {
		t.Errorf("expected 0 for no terms, got %v", got)
	}
}

func TestTermCoverage_RepeatedTermsCountEachOccurrence(t *testing.T) {
	terms := queryTerms("xolo xolo floor")

	if got := termCoverage(terms, "the XOLO room"); got != 2.0/3.0 {
		t.Errorf("expected 2/3, got %v", got)
	}
	if got := termCoverage(terms, "floor plan"); got != 1.0/3.0 {
		t.Errorf("expected 1/3, got %v", got)
	}
}
