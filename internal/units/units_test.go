package units

import (
	"math"
	"testing"
	"time"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid mps", MPS, true},
		{"valid mph", MPH, true},
		{"valid kmph", KMPH, true},
		{"valid kph", KPH, true},
		{"invalid unit", "knots", false},
		{"empty unit", "", false},
		{"uppercase KMPH", "KMPH", false}, // Case-sensitive
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestToKMPH(t *testing.T) {
	tests := []struct {
		name     string
		speed    float64
		fromUnit string
		expected float64
	}{
		{"kmph untouched", 87.5, KMPH, 87.5},
		{"kph untouched", 60, KPH, 60},
		{"1 m/s", 1, MPS, 3.6},
		{"10 m/s", 10, MPS, 36},
		{"mph", 62.1371192237334, MPH, 100},
		{"unknown treated as m/s", 5, "unknown", 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToKMPH(tt.speed, tt.fromUnit)
			if math.Abs(result-tt.expected) > 1e-6 {
				t.Errorf("ToKMPH(%f, %s) = %f, want %f", tt.speed, tt.fromUnit, result, tt.expected)
			}
		})
	}
}

func TestRoundTripConversions(t *testing.T) {
	originalMPS := 15.5
	for _, u := range ValidUnits {
		back := ConvertToMPS(ConvertSpeed(originalMPS, u), u)
		if math.Abs(back-originalMPS) > 1e-10 {
			t.Errorf("%s round-trip: started %f m/s, got %f m/s", u, originalMPS, back)
		}
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	if err != nil || loc != time.UTC {
		t.Fatalf("LoadLocation(\"\") = %v, %v; want UTC", loc, err)
	}

	loc, err = LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("LoadLocation(Asia/Kolkata) error: %v", err)
	}
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, loc)
	if _, off := ts.Zone(); off != 5*3600+30*60 {
		t.Errorf("Asia/Kolkata offset = %d, want 19800", off)
	}

	if _, err := LoadLocation("Invalid/Timezone"); err == nil {
		t.Error("expected error for invalid timezone")
	}
}

func TestIsTimezoneValid(t *testing.T) {
	if !IsTimezoneValid("UTC") {
		t.Error("UTC should be valid")
	}
	if IsTimezoneValid("") || IsTimezoneValid("Not/AZone") {
		t.Error("empty and unknown zones should be invalid")
	}
}
