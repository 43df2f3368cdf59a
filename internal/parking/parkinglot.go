package parking

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"smart-parking/internal/logging"
)

// ParkingLot is the only writer of slot occupancy, the ledgers and the
// revenue total. Every method takes the lock, so callers on different
// goroutines are served one at a time.
type ParkingLot struct {
	mu       sync.Mutex
	registry *SlotRegistry
	tickets  *TicketLedger
	passes   *PassLedger
	revenue  float64
	store    Store
	clock    func() time.Time
	logger   *slog.Logger
}

type Option func(*ParkingLot)

func WithClock(clock func() time.Time) Option {
	return func(pl *ParkingLot) {
		pl.clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(pl *ParkingLot) {
		pl.logger = logger
	}
}

type ParkResult struct {
	Ticket     Ticket `json:"ticket"`
	Floor      int    `json:"floor"`
	PassHolder bool   `json:"pass_holder"`
}

type Payment struct {
	Amount float64   `json:"amount"`
	Method string    `json:"method"`
	PaidAt time.Time `json:"paid_at"`
}

type ExitResult struct {
	Ticket     Ticket       `json:"ticket"`
	ExitTime   time.Time    `json:"exit_time"`
	Hours      float64      `json:"billable_hours"`
	PassHolder bool         `json:"pass_holder"`
	Pass       *MonthlyPass `json:"pass,omitempty"`
	Payment    *Payment     `json:"payment,omitempty"`
}

type PassPurchase struct {
	Pass  MonthlyPass `json:"pass"`
	Price float64     `json:"price"`
}

type PassStatus struct {
	Pass  MonthlyPass `json:"pass"`
	Valid bool        `json:"valid"`
}

type SlotStatus struct {
	ID        int          `json:"slot_id"`
	Class     VehicleClass `json:"vehicle_class"`
	Occupied  bool         `json:"occupied"`
	VehicleID string       `json:"vehicle_id,omitempty"`
}

type FloorStatus struct {
	Number int          `json:"floor"`
	Slots  []SlotStatus `json:"slots"`
}

type LotStatus struct {
	Floors     []FloorStatus        `json:"floors"`
	Available  map[VehicleClass]int `json:"available"`
	TotalSlots int                  `json:"total_slots"`
	Occupied   int                  `json:"occupied"`
}

type RevenueSummary struct {
	TotalRevenue   float64 `json:"total_revenue"`
	ActiveVehicles int     `json:"active_vehicles"`
	PassRecords    int     `json:"pass_records"`
	ValidPasses    int     `json:"valid_passes"`
}

// NewParkingLot builds the floors and restores the last saved snapshot.
// A snapshot that cannot be loaded leaves the lot empty.
func NewParkingLot(ctx context.Context, store Store, layouts []FloorLayout, opts ...Option) (*ParkingLot, error) {
	registry, err := NewSlotRegistry(layouts...)
	if err != nil {
		return nil, err
	}

	if store == nil {
		store = NopStore{}
	}

	pl := &ParkingLot{
		registry: registry,
		tickets:  NewTicketLedger(),
		passes:   NewPassLedger(),
		store:    store,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(pl)
	}

	snapshot, err := store.Load(ctx)
	if err != nil {
		pl.log(ctx).Error("failed to load parking state, starting empty", "error", err)
		return pl, nil
	}
	pl.restore(ctx, snapshot)

	return pl, nil
}

func (pl *ParkingLot) Park(ctx context.Context, vehicleID string, class VehicleClass) (ParkResult, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if err := ValidateVehicleID(vehicleID); err != nil {
		return ParkResult{}, err
	}
	if !class.Valid() {
		return ParkResult{}, fmt.Errorf("%w: %q", ErrInvalidVehicleClass, class)
	}
	if _, ok := pl.tickets.Get(vehicleID); ok {
		return ParkResult{}, fmt.Errorf("%w: %s", ErrVehicleAlreadyParked, vehicleID)
	}

	now := pl.now()
	passHolder := pl.passes.IsValid(vehicleID, now)

	slot := pl.registry.FindAvailable(class)
	if slot == nil {
		return ParkResult{PassHolder: passHolder}, fmt.Errorf("%w for %s", ErrSlotUnavailable, class)
	}
	if !pl.registry.Occupy(slot, vehicleID, class) {
		return ParkResult{}, fmt.Errorf("%w: slot %d refused %s", ErrSlotInconsistency, slot.ID, vehicleID)
	}

	ticket, err := pl.tickets.Open(vehicleID, slot.ID, class, class.HourlyRate(), now)
	if err != nil {
		pl.registry.Release(slot)
		return ParkResult{}, err
	}

	result := ParkResult{
		Ticket:     ticket,
		Floor:      slot.FloorNumber(),
		PassHolder: passHolder,
	}
	return result, pl.persist(ctx, "park")
}

func (pl *ParkingLot) Exit(ctx context.Context, vehicleID, paymentMethod string) (ExitResult, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	ticket, ok := pl.tickets.Get(vehicleID)
	if !ok {
		return ExitResult{}, fmt.Errorf("%w for %s", ErrNoActiveTicket, vehicleID)
	}

	slot := pl.registry.FindByID(ticket.SlotID)
	if slot == nil || !slot.IsOccupied || slot.VehicleID != vehicleID {
		pl.log(ctx).Error("ticket references a slot that does not hold the vehicle",
			"vehicle_id", vehicleID,
			"ticket_id", ticket.ID,
			"slot_id", ticket.SlotID,
		)
		return ExitResult{Ticket: ticket}, fmt.Errorf("%w: ticket %s references slot %d", ErrSlotInconsistency, ticket.ID, ticket.SlotID)
	}

	pl.registry.Release(slot)

	now := pl.now()
	result := ExitResult{
		Ticket:   ticket,
		ExitTime: now,
		Hours:    BillableHours(ticket.EntryTime, now),
	}

	if pass, ok := pl.passes.Lookup(vehicleID); ok && pass.IsValid(now) {
		result.PassHolder = true
		result.Pass = &pass
	} else {
		amount := ComputeFee(ticket.EntryTime, now, ticket.HourlyRate)
		pl.revenue += amount
		result.Payment = &Payment{
			Amount: amount,
			Method: paymentMethod,
			PaidAt: now,
		}
	}

	pl.tickets.Close(vehicleID)
	return result, pl.persist(ctx, "exit")
}

// PurchasePass on a vehicle with a valid pass returns that pass together
// with ErrAlreadyValidPass.
func (pl *ParkingLot) PurchasePass(ctx context.Context, vehicleID string) (PassPurchase, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if err := ValidateVehicleID(vehicleID); err != nil {
		return PassPurchase{}, err
	}

	pass, err := pl.passes.Purchase(vehicleID, pl.now())
	if err != nil {
		return PassPurchase{Pass: pass}, err
	}

	return PassPurchase{Pass: pass, Price: MonthlyPassPrice}, pl.persist(ctx, "purchase_pass")
}

func (pl *ParkingLot) Status() LotStatus {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	available := make(map[VehicleClass]int, len(hourlyRates))
	for _, class := range VehicleClasses() {
		available[class] = pl.registry.AvailableCount(class)
	}

	return LotStatus{
		Floors:     pl.registry.Floors(),
		Available:  available,
		TotalSlots: pl.registry.TotalSlots(),
		Occupied:   pl.registry.OccupiedCount(),
	}
}

func (pl *ParkingLot) AvailableCount(class VehicleClass) int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.registry.AvailableCount(class)
}

func (pl *ParkingLot) TotalSlots() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.registry.TotalSlots()
}

func (pl *ParkingLot) LookupTicket(vehicleID string) (Ticket, bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.tickets.Get(vehicleID)
}

func (pl *ParkingLot) LookupPass(vehicleID string) (PassStatus, bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	pass, ok := pl.passes.Lookup(vehicleID)
	if !ok {
		return PassStatus{}, false
	}
	return PassStatus{Pass: pass, Valid: pass.IsValid(pl.now())}, true
}

func (pl *ParkingLot) RevenueSummary() RevenueSummary {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	return RevenueSummary{
		TotalRevenue:   pl.revenue,
		ActiveVehicles: pl.tickets.ActiveCount(),
		PassRecords:    pl.passes.Len(),
		ValidPasses:    pl.passes.ValidCount(pl.now()),
	}
}

func (pl *ParkingLot) Snapshot() Snapshot {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.snapshot()
}

// Save writes the full state; used at shutdown.
func (pl *ParkingLot) Save(ctx context.Context) error {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.persist(ctx, "save")
}

func (pl *ParkingLot) snapshot() Snapshot {
	return Snapshot{
		Tickets: pl.tickets.All(),
		Passes:  pl.passes.All(),
		Revenue: pl.revenue,
	}
}

func (pl *ParkingLot) persist(ctx context.Context, op string) error {
	if err := pl.store.Save(ctx, pl.snapshot()); err != nil {
		pl.log(ctx).Error("failed to persist parking state", "operation", op, "error", err)
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}

func (pl *ParkingLot) restore(ctx context.Context, snapshot Snapshot) {
	log := pl.log(ctx)

	for _, ticket := range snapshot.Tickets {
		if err := pl.restoreTicket(ticket); err != nil {
			log.Error("skipping persisted ticket",
				"vehicle_id", ticket.VehicleID,
				"slot_id", ticket.SlotID,
				"error", err,
			)
		}
	}

	for _, pass := range snapshot.Passes {
		if err := ValidateVehicleID(pass.VehicleID); err != nil {
			log.Warn("skipping persisted pass", "pass_id", pass.ID, "error", err)
			continue
		}
		pl.passes.Put(pass)
	}

	if snapshot.Revenue < 0 || math.IsNaN(snapshot.Revenue) || math.IsInf(snapshot.Revenue, 0) {
		log.Warn("ignoring persisted revenue", "revenue", snapshot.Revenue)
	} else {
		pl.revenue = snapshot.Revenue
	}

	log.Info("parking state restored",
		"tickets", pl.tickets.ActiveCount(),
		"passes", pl.passes.Len(),
		"revenue", pl.revenue,
	)
}

func (pl *ParkingLot) restoreTicket(ticket Ticket) error {
	if err := ValidateVehicleID(ticket.VehicleID); err != nil {
		return err
	}

	class := ticket.Class
	if class == "" {
		inferred, ok := ClassForRate(ticket.HourlyRate)
		if !ok {
			return fmt.Errorf("%w: no vehicle class for rate %v", ErrSlotInconsistency, ticket.HourlyRate)
		}
		class = inferred
	}
	if !class.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidVehicleClass, class)
	}

	if _, ok := pl.tickets.Get(ticket.VehicleID); ok {
		return fmt.Errorf("%w: duplicate ticket for %s", ErrVehicleAlreadyParked, ticket.VehicleID)
	}

	slot := pl.registry.FindByID(ticket.SlotID)
	if slot == nil {
		return fmt.Errorf("%w: slot %d does not exist", ErrSlotInconsistency, ticket.SlotID)
	}
	if !pl.registry.Occupy(slot, ticket.VehicleID, class) {
		return fmt.Errorf("%w: slot %d cannot hold %s %s", ErrSlotInconsistency, slot.ID, class, ticket.VehicleID)
	}

	ticket.Class = class
	if ticket.ID == "" {
		ticket.ID = TicketID(ticket.EntryTime, ticket.SlotID)
	}
	pl.tickets.restore(ticket)
	return nil
}

// now is whole seconds in UTC, the resolution the stores keep.
func (pl *ParkingLot) now() time.Time {
	return pl.clock().UTC().Truncate(time.Second)
}

func (pl *ParkingLot) log(ctx context.Context) *slog.Logger {
	return logging.From(ctx, pl.logger)
}
