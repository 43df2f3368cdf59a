package parking

import (
	"fmt"
	"sort"
)

// SlotRegistry holds every floor of the lot. Lookups are linear scans in
// ascending floor order, then insertion order within a floor.
type SlotRegistry struct {
	floors []*Floor
}

func NewSlotRegistry(layouts ...FloorLayout) (*SlotRegistry, error) {
	if len(layouts) == 0 {
		return nil, fmt.Errorf("at least one floor is required")
	}

	seen := make(map[int]bool, len(layouts))
	floors := make([]*Floor, 0, len(layouts))
	for _, layout := range layouts {
		if seen[layout.Number] {
			return nil, fmt.Errorf("duplicate floor number %d", layout.Number)
		}
		seen[layout.Number] = true

		floor, err := NewFloor(layout)
		if err != nil {
			return nil, err
		}
		floors = append(floors, floor)
	}

	sort.Slice(floors, func(i, j int) bool {
		return floors[i].Number < floors[j].Number
	})

	return &SlotRegistry{floors: floors}, nil
}

func (r *SlotRegistry) FindAvailable(class VehicleClass) *Slot {
	for _, floor := range r.floors {
		if slot := floor.findAvailable(class); slot != nil {
			return slot
		}
	}
	return nil
}

func (r *SlotRegistry) FindByID(id int) *Slot {
	for _, floor := range r.floors {
		if slot := floor.findByID(id); slot != nil {
			return slot
		}
	}
	return nil
}

func (r *SlotRegistry) Occupy(slot *Slot, vehicleID string, class VehicleClass) bool {
	if slot == nil || slot.IsOccupied || slot.Class != class {
		return false
	}
	slot.Park(vehicleID)
	return true
}

func (r *SlotRegistry) Release(slot *Slot) (string, bool) {
	if slot == nil || !slot.IsOccupied {
		return "", false
	}
	return slot.Leave(), true
}

func (r *SlotRegistry) AvailableCount(class VehicleClass) int {
	count := 0
	for _, floor := range r.floors {
		count += floor.availableCount(class)
	}
	return count
}

func (r *SlotRegistry) TotalSlots() int {
	total := 0
	for _, floor := range r.floors {
		total += len(floor.slots)
	}
	return total
}

func (r *SlotRegistry) OccupiedCount() int {
	count := 0
	for _, floor := range r.floors {
		for _, slot := range floor.slots {
			if slot.IsOccupied {
				count++
			}
		}
	}
	return count
}

// Floors returns a copy of every floor's slots.
func (r *SlotRegistry) Floors() []FloorStatus {
	floors := make([]FloorStatus, 0, len(r.floors))
	for _, floor := range r.floors {
		status := FloorStatus{
			Number: floor.Number,
			Slots:  make([]SlotStatus, 0, len(floor.slots)),
		}
		for _, slot := range floor.slots {
			status.Slots = append(status.Slots, SlotStatus{
				ID:        slot.ID,
				Class:     slot.Class,
				Occupied:  slot.IsOccupied,
				VehicleID: slot.VehicleID,
			})
		}
		floors = append(floors, status)
	}
	return floors
}
