package parking

import "testing"

func TestNewFloorSlotIDs(t *testing.T) {
	floor, err := NewFloor(FloorLayout{Number: 2, Bikes: 2, Cars: 1, Trucks: 1})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []struct {
		id    int
		class VehicleClass
	}{
		{201, Bike}, {202, Bike}, {203, Car}, {204, Truck},
	}
	if len(floor.slots) != len(want) {
		t.Fatalf("Expected %d slots, got %d", len(want), len(floor.slots))
	}
	for i, w := range want {
		if floor.slots[i].ID != w.id || floor.slots[i].Class != w.class {
			t.Errorf("Slot %d: expected %d/%s, got %d/%s", i, w.id, w.class, floor.slots[i].ID, floor.slots[i].Class)
		}
	}
}

func TestNewFloorRejectsInvalidLayouts(t *testing.T) {
	layouts := []FloorLayout{
		{Number: 0, Cars: 1},
		{Number: 1, Cars: -1},
		{Number: 1, Bikes: 50, Cars: 50},
	}
	for _, layout := range layouts {
		if _, err := NewFloor(layout); err == nil {
			t.Errorf("Expected error for layout %+v", layout)
		}
	}
}

func TestNewSlotRegistryRejectsDuplicateFloors(t *testing.T) {
	if _, err := NewSlotRegistry(); err == nil {
		t.Error("Expected error for a lot without floors")
	}
	if _, err := NewSlotRegistry(FloorLayout{Number: 1, Cars: 1}, FloorLayout{Number: 1, Cars: 1}); err == nil {
		t.Error("Expected error for duplicate floor numbers")
	}
}

func TestFindAvailableFirstFit(t *testing.T) {
	// Floors given out of order are still searched ascending.
	registry, err := NewSlotRegistry(
		FloorLayout{Number: 2, Cars: 2},
		FloorLayout{Number: 1, Cars: 2},
	)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var got []int
	for i := 0; i < 4; i++ {
		slot := registry.FindAvailable(Car)
		if slot == nil {
			t.Fatalf("Expected a free car slot on attempt %d", i+1)
		}
		if !registry.Occupy(slot, "V", Car) {
			t.Fatalf("Expected slot %d to accept the vehicle", slot.ID)
		}
		got = append(got, slot.ID)
	}

	want := []int{101, 102, 201, 202}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Allocation %d: expected slot %d, got %d", i, want[i], got[i])
		}
	}

	if slot := registry.FindAvailable(Car); slot != nil {
		t.Errorf("Expected no free car slot, got %d", slot.ID)
	}
	if slot := registry.FindAvailable(Truck); slot != nil {
		t.Errorf("Expected no truck slot, got %d", slot.ID)
	}
}

func TestOccupyAndRelease(t *testing.T) {
	registry, err := NewSlotRegistry(FloorLayout{Number: 1, Bikes: 1, Cars: 1})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	bikeSlot := registry.FindByID(101)
	if registry.Occupy(bikeSlot, "KA-01", Car) {
		t.Error("Expected a bike slot to refuse a car")
	}
	if !registry.Occupy(bikeSlot, "KA-01", Bike) {
		t.Fatal("Expected bike slot to accept a bike")
	}
	if registry.Occupy(bikeSlot, "KA-02", Bike) {
		t.Error("Expected an occupied slot to refuse a second vehicle")
	}

	if registry.AvailableCount(Bike) != 0 || registry.OccupiedCount() != 1 {
		t.Errorf("Expected 0 free bikes and 1 occupied, got %d and %d",
			registry.AvailableCount(Bike), registry.OccupiedCount())
	}

	vehicle, ok := registry.Release(bikeSlot)
	if !ok || vehicle != "KA-01" {
		t.Errorf("Expected release of KA-01, got %q (%v)", vehicle, ok)
	}
	if _, ok := registry.Release(bikeSlot); ok {
		t.Error("Expected releasing a free slot to fail")
	}

	if registry.FindByID(999) != nil {
		t.Error("Expected unknown slot id to resolve to nil")
	}
	if registry.TotalSlots() != 2 {
		t.Errorf("Expected 2 slots, got %d", registry.TotalSlots())
	}
}
