package parking

import "context"

// Snapshot is everything that survives a restart. Slot occupancy is not
// stored; it is rebuilt from the tickets.
type Snapshot struct {
	Tickets []Ticket
	Passes  []MonthlyPass
	Revenue float64
}

type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
}

// NopStore keeps nothing between runs.
type NopStore struct{}

func (NopStore) Load(context.Context) (Snapshot, error) { return Snapshot{}, nil }

func (NopStore) Save(context.Context, Snapshot) error { return nil }
