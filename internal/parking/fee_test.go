package parking

import (
	"testing"
	"time"
)

func TestComputeFee(t *testing.T) {
	entry := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		stay  time.Duration
		class VehicleClass
		want  float64
	}{
		{"ten minutes bills one hour", 10 * time.Minute, Car, 20},
		{"zero stay bills one hour", 0, Bike, 10},
		{"exactly one hour", time.Hour, Truck, 40},
		{"ninety minutes is fractional", 90 * time.Minute, Car, 30},
		{"three hours", 3 * time.Hour, Bike, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeFee(entry, entry.Add(tt.stay), tt.class.HourlyRate())
			if got != tt.want {
				t.Errorf("Expected fee %v, got %v", tt.want, got)
			}
		})
	}
}

func TestBillableHoursClockSkew(t *testing.T) {
	entry := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if got := BillableHours(entry, entry.Add(-time.Hour)); got != 1 {
		t.Errorf("Expected 1 billable hour for an exit before entry, got %v", got)
	}
}
