package parking

import (
	"fmt"
	"sort"
	"time"
)

type Ticket struct {
	ID         string       `json:"ticket_id"`
	VehicleID  string       `json:"vehicle_id"`
	SlotID     int          `json:"slot_id"`
	Class      VehicleClass `json:"vehicle_class"`
	HourlyRate float64      `json:"hourly_rate"`
	EntryTime  time.Time    `json:"entry_time"`
}

// TicketID is unique per open ticket: one slot never holds two vehicles.
func TicketID(entry time.Time, slotID int) string {
	return fmt.Sprintf("TKT-%d-%d", entry.Unix(), slotID)
}

func NewTicket(vehicleID string, slotID int, class VehicleClass, rate float64, entry time.Time) Ticket {
	return Ticket{
		ID:         TicketID(entry, slotID),
		VehicleID:  vehicleID,
		SlotID:     slotID,
		Class:      class,
		HourlyRate: rate,
		EntryTime:  entry,
	}
}

type TicketLedger struct {
	tickets map[string]Ticket
}

func NewTicketLedger() *TicketLedger {
	return &TicketLedger{tickets: make(map[string]Ticket)}
}

func (l *TicketLedger) Open(vehicleID string, slotID int, class VehicleClass, rate float64, now time.Time) (Ticket, error) {
	if _, ok := l.tickets[vehicleID]; ok {
		return Ticket{}, fmt.Errorf("%w: %s", ErrVehicleAlreadyParked, vehicleID)
	}
	ticket := NewTicket(vehicleID, slotID, class, rate, now)
	l.tickets[vehicleID] = ticket
	return ticket, nil
}

func (l *TicketLedger) restore(ticket Ticket) {
	l.tickets[ticket.VehicleID] = ticket
}

func (l *TicketLedger) Close(vehicleID string) (Ticket, bool) {
	ticket, ok := l.tickets[vehicleID]
	if ok {
		delete(l.tickets, vehicleID)
	}
	return ticket, ok
}

func (l *TicketLedger) Get(vehicleID string) (Ticket, bool) {
	ticket, ok := l.tickets[vehicleID]
	return ticket, ok
}

func (l *TicketLedger) ActiveCount() int {
	return len(l.tickets)
}

// All returns the open tickets ordered by slot id.
func (l *TicketLedger) All() []Ticket {
	tickets := make([]Ticket, 0, len(l.tickets))
	for _, ticket := range l.tickets {
		tickets = append(tickets, ticket)
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].SlotID < tickets[j].SlotID
	})
	return tickets
}
