package parking

import (
	"fmt"
	"strings"
)

type VehicleClass string

const (
	Bike  VehicleClass = "Bike"
	Car   VehicleClass = "Car"
	Truck VehicleClass = "Truck"
)

var hourlyRates = map[VehicleClass]float64{
	Bike:  10,
	Car:   20,
	Truck: 40,
}

// VehicleClasses returns every class in reporting order.
func VehicleClasses() []VehicleClass {
	return []VehicleClass{Bike, Car, Truck}
}

func (c VehicleClass) Valid() bool {
	_, ok := hourlyRates[c]
	return ok
}

// HourlyRate is zero for an unknown class.
func (c VehicleClass) HourlyRate() float64 {
	return hourlyRates[c]
}

func (c VehicleClass) String() string {
	return string(c)
}

func ParseVehicleClass(s string) (VehicleClass, error) {
	name := strings.TrimSpace(s)
	for _, class := range VehicleClasses() {
		if strings.EqualFold(name, string(class)) {
			return class, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVehicleClass, s)
}

// ClassForRate recovers the class of a ticket persisted without one.
// It refuses to guess when several classes share the rate.
func ClassForRate(rate float64) (VehicleClass, bool) {
	var found VehicleClass
	matches := 0
	for _, class := range VehicleClasses() {
		if hourlyRates[class] == rate {
			found = class
			matches++
		}
	}
	if matches != 1 {
		return "", false
	}
	return found, true
}

// MaxVehicleIDLength bounds identifiers so every stored record fits on one
// short line.
const MaxVehicleIDLength = 64

// ValidateVehicleID rejects identifiers the line-oriented stores cannot hold.
// Surrounding whitespace is rejected because stored lines are trimmed on load.
func ValidateVehicleID(vehicleID string) error {
	if vehicleID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidVehicleID)
	}
	if len(vehicleID) > MaxVehicleIDLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidVehicleID, MaxVehicleIDLength)
	}
	if strings.TrimSpace(vehicleID) != vehicleID || strings.ContainsAny(vehicleID, ",\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidVehicleID, vehicleID)
	}
	return nil
}
