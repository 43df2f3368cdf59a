package parking

import "fmt"

const maxSlotsPerFloor = 99

type FloorLayout struct {
	Number int
	Bikes  int
	Cars   int
	Trucks int
}

// DefaultLayout builds floors 1..n with 5 bike, 5 car and 2 truck slots each.
func DefaultLayout(floors int) []FloorLayout {
	layouts := make([]FloorLayout, floors)
	for i := range layouts {
		layouts[i] = FloorLayout{Number: i + 1, Bikes: 5, Cars: 5, Trucks: 2}
	}
	return layouts
}

func (l FloorLayout) Total() int {
	return l.Bikes + l.Cars + l.Trucks
}

func (l FloorLayout) validate() error {
	if l.Number <= 0 {
		return fmt.Errorf("floor number must be positive, got %d", l.Number)
	}
	if l.Bikes < 0 || l.Cars < 0 || l.Trucks < 0 {
		return fmt.Errorf("floor %d: slot counts must not be negative", l.Number)
	}
	if l.Total() > maxSlotsPerFloor {
		return fmt.Errorf("floor %d: %d slots exceeds the limit of %d", l.Number, l.Total(), maxSlotsPerFloor)
	}
	return nil
}

type Floor struct {
	Number int
	slots  []*Slot
}

func NewFloor(layout FloorLayout) (*Floor, error) {
	if err := layout.validate(); err != nil {
		return nil, err
	}

	floor := &Floor{
		Number: layout.Number,
		slots:  make([]*Slot, 0, layout.Total()),
	}

	id := layout.Number * 100
	add := func(class VehicleClass, count int) {
		for i := 0; i < count; i++ {
			id++
			floor.slots = append(floor.slots, NewSlot(id, class))
		}
	}
	add(Bike, layout.Bikes)
	add(Car, layout.Cars)
	add(Truck, layout.Trucks)

	return floor, nil
}

func (f *Floor) findAvailable(class VehicleClass) *Slot {
	for _, slot := range f.slots {
		if !slot.IsOccupied && slot.Class == class {
			return slot
		}
	}
	return nil
}

func (f *Floor) findByID(id int) *Slot {
	for _, slot := range f.slots {
		if slot.ID == id {
			return slot
		}
	}
	return nil
}

func (f *Floor) availableCount(class VehicleClass) int {
	count := 0
	for _, slot := range f.slots {
		if !slot.IsOccupied && slot.Class == class {
			count++
		}
	}
	return count
}
