package parking

type Slot struct {
	ID         int
	Class      VehicleClass
	IsOccupied bool
	VehicleID  string
}

func NewSlot(id int, class VehicleClass) *Slot {
	return &Slot{
		ID:         id,
		Class:      class,
		IsOccupied: false,
	}
}

func (s *Slot) Park(vehicleID string) {
	s.VehicleID = vehicleID
	s.IsOccupied = true
}

func (s *Slot) Leave() string {
	vehicleID := s.VehicleID
	s.VehicleID = ""
	s.IsOccupied = false
	return vehicleID
}

// FloorNumber is derived from the id scheme floor*100 + sequence.
func (s *Slot) FloorNumber() int {
	return s.ID / 100
}
