package parking

import (
	"errors"
	"strings"
	"testing"
)

func TestParseVehicleClass(t *testing.T) {
	tests := []struct {
		input string
		want  VehicleClass
	}{
		{"Bike", Bike},
		{"car", Car},
		{" TRUCK ", Truck},
	}

	for _, tt := range tests {
		got, err := ParseVehicleClass(tt.input)
		if err != nil {
			t.Errorf("ParseVehicleClass(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVehicleClass(%q): expected %s, got %s", tt.input, tt.want, got)
		}
	}

	if _, err := ParseVehicleClass("Boat"); !errors.Is(err, ErrInvalidVehicleClass) {
		t.Errorf("Expected ErrInvalidVehicleClass, got %v", err)
	}
}

func TestHourlyRate(t *testing.T) {
	rates := map[VehicleClass]float64{Bike: 10, Car: 20, Truck: 40}
	for class, want := range rates {
		if got := class.HourlyRate(); got != want {
			t.Errorf("Expected %s rate %v, got %v", class, want, got)
		}
	}

	if VehicleClass("Boat").Valid() {
		t.Error("Expected Boat to be invalid")
	}
}

func TestClassForRate(t *testing.T) {
	class, ok := ClassForRate(40)
	if !ok || class != Truck {
		t.Errorf("Expected Truck for rate 40, got %s (%v)", class, ok)
	}

	if _, ok := ClassForRate(15); ok {
		t.Error("Expected no class for rate 15")
	}
}

func TestValidateVehicleID(t *testing.T) {
	if err := ValidateVehicleID("KA01HH1234"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	if err := ValidateVehicleID(strings.Repeat("K", MaxVehicleIDLength)); err != nil {
		t.Errorf("Unexpected error at the length limit: %v", err)
	}

	invalid := []string{
		"",
		"KA,01",
		"KA\n01",
		" KA-01",
		"KA-01\t",
		strings.Repeat("K", MaxVehicleIDLength+1),
	}
	for _, id := range invalid {
		if err := ValidateVehicleID(id); !errors.Is(err, ErrInvalidVehicleID) {
			t.Errorf("ValidateVehicleID(%q): expected ErrInvalidVehicleID, got %v", id, err)
		}
	}
}
