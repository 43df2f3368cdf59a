package parking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type InstrumentedParkingLot struct {
	*ParkingLot
	telemetry *TelemetryProvider

	// Metrics
	parkingOperations metric.Int64Counter
	exitOperations    metric.Int64Counter
	passPurchases     metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	revenueCounter    metric.Float64Counter
	operationDuration metric.Float64Histogram
	totalSlotsGauge   metric.Int64UpDownCounter
}

func NewInstrumentedParkingLot(lot *ParkingLot, telemetry *TelemetryProvider) (*InstrumentedParkingLot, error) {
	meter := telemetry.Meter()

	parkingOperations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of parking operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	exitOperations, err := meter.Int64Counter("exit_operations_total",
		metric.WithDescription("Total number of exit operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	passPurchases, err := meter.Int64Counter("pass_purchases_total",
		metric.WithDescription("Total number of monthly pass purchase attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	revenueCounter, err := meter.Float64Counter("parking_revenue_total",
		metric.WithDescription("Fees collected from vehicles without a valid pass"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	totalSlotsGauge, err := meter.Int64UpDownCounter("parking_lot_total_slots",
		metric.WithDescription("Total number of parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	ipl := &InstrumentedParkingLot{
		ParkingLot:        lot,
		telemetry:         telemetry,
		parkingOperations: parkingOperations,
		exitOperations:    exitOperations,
		passPurchases:     passPurchases,
		occupancyGauge:    occupancyGauge,
		revenueCounter:    revenueCounter,
		operationDuration: operationDuration,
		totalSlotsGauge:   totalSlotsGauge,
	}

	// Restored tickets already occupy slots
	ctx := context.Background()
	totalSlotsGauge.Add(ctx, int64(lot.TotalSlots()))
	occupancyGauge.Add(ctx, int64(lot.RevenueSummary().ActiveVehicles))

	return ipl, nil
}

func (ipl *InstrumentedParkingLot) Park(ctx context.Context, vehicleID string, class VehicleClass) (ParkResult, error) {
	tracer := ipl.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "parking_lot.park",
		trace.WithAttributes(
			attribute.String("vehicle.id", vehicleID),
			attribute.String("vehicle.class", string(class)),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("finding_available_slot")

	result, err := ipl.ParkingLot.Park(ctx, vehicleID, class)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "park"),
		attribute.String("vehicle_class", string(class)),
	}

	// A failed save still parked the vehicle
	parked := err == nil || errors.Is(err, ErrPersistenceWrite)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if parked {
		span.SetAttributes(
			attribute.Int("allocated_slot_number", result.Ticket.SlotID),
			attribute.String("ticket.id", result.Ticket.ID),
			attribute.Bool("pass_holder", result.PassHolder),
		)
		span.AddEvent("slot_allocated", trace.WithAttributes(
			attribute.Int("slot_number", result.Ticket.SlotID),
			attribute.Int("floor", result.Floor),
		))
		ipl.occupancyGauge.Add(ctx, 1)
	}
	labels = append(labels, attribute.String("status", outcome(err)))

	ipl.parkingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return result, err
}

func (ipl *InstrumentedParkingLot) Exit(ctx context.Context, vehicleID, paymentMethod string) (ExitResult, error) {
	tracer := ipl.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "parking_lot.exit",
		trace.WithAttributes(
			attribute.String("vehicle.id", vehicleID),
			attribute.String("payment.method", paymentMethod),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("releasing_slot")

	result, err := ipl.ParkingLot.Exit(ctx, vehicleID, paymentMethod)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "exit"),
	}

	exited := err == nil || errors.Is(err, ErrPersistenceWrite)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if exited {
		labels = append(labels,
			attribute.String("vehicle_class", string(result.Ticket.Class)),
			attribute.Bool("pass_holder", result.PassHolder),
		)
		span.SetAttributes(
			attribute.Int("slot_number", result.Ticket.SlotID),
			attribute.Float64("billable_hours", result.Hours),
			attribute.Bool("pass_holder", result.PassHolder),
		)
		if result.Payment != nil {
			span.SetAttributes(attribute.Float64("payment.amount", result.Payment.Amount))
			ipl.revenueCounter.Add(ctx, result.Payment.Amount, metric.WithAttributes(
				attribute.String("vehicle_class", string(result.Ticket.Class)),
			))
		}
		span.AddEvent("slot_released")
		ipl.occupancyGauge.Add(ctx, -1)
	}
	labels = append(labels, attribute.String("status", outcome(err)))

	ipl.exitOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return result, err
}

func (ipl *InstrumentedParkingLot) PurchasePass(ctx context.Context, vehicleID string) (PassPurchase, error) {
	tracer := ipl.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "parking_lot.purchase_pass",
		trace.WithAttributes(
			attribute.String("vehicle.id", vehicleID),
		))
	defer span.End()

	start := time.Now()

	purchase, err := ipl.ParkingLot.PurchasePass(ctx, vehicleID)

	duration := time.Since(start).Seconds()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.String("pass.id", purchase.Pass.ID),
			attribute.String("pass.expires_at", purchase.Pass.ExpiresAt.Format(time.RFC3339)),
		)
		span.AddEvent("pass_issued")
	}

	labels := []attribute.KeyValue{
		attribute.String("operation", "purchase_pass"),
		attribute.String("status", outcome(err)),
	}

	ipl.passPurchases.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return purchase, err
}

func (ipl *InstrumentedParkingLot) GetStatus(ctx context.Context) LotStatus {
	tracer := ipl.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "parking_lot.get_status")
	defer span.End()

	start := time.Now()

	span.AddEvent("retrieving_status")

	status := ipl.ParkingLot.Status()

	duration := time.Since(start).Seconds()

	span.SetAttributes(
		attribute.Int("occupied_slots_count", status.Occupied),
		attribute.Int("total_capacity", status.TotalSlots),
	)

	labels := []attribute.KeyValue{
		attribute.String("operation", "get_status"),
		attribute.String("status", "success"),
	}

	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return status
}

func (ipl *InstrumentedParkingLot) GetTicket(ctx context.Context, vehicleID string) (Ticket, bool) {
	_, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.get_ticket",
		trace.WithAttributes(
			attribute.String("vehicle.id", vehicleID),
		))
	defer span.End()

	ticket, ok := ipl.ParkingLot.LookupTicket(vehicleID)
	if !ok {
		span.AddEvent("ticket_not_found")
		return ticket, false
	}

	span.AddEvent("ticket_found", trace.WithAttributes(
		attribute.String("ticket.id", ticket.ID),
		attribute.Int("slot_number", ticket.SlotID),
	))
	return ticket, true
}

func (ipl *InstrumentedParkingLot) GetPass(ctx context.Context, vehicleID string) (PassStatus, bool) {
	_, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.get_pass",
		trace.WithAttributes(
			attribute.String("vehicle.id", vehicleID),
		))
	defer span.End()

	status, ok := ipl.ParkingLot.LookupPass(vehicleID)
	if !ok {
		span.AddEvent("pass_not_found")
		return status, false
	}

	span.SetAttributes(attribute.Bool("pass.valid", status.Valid))
	return status, true
}

func (ipl *InstrumentedParkingLot) GetRevenue(ctx context.Context) RevenueSummary {
	_, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.get_revenue")
	defer span.End()

	summary := ipl.ParkingLot.RevenueSummary()
	span.SetAttributes(
		attribute.Float64("revenue.total", summary.TotalRevenue),
		attribute.Int("active_vehicles", summary.ActiveVehicles),
	)
	return summary
}

// outcome names the failure kind for metric labels.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrPersistenceWrite):
		return "persistence_failed"
	case errors.Is(err, ErrInvalidVehicleClass), errors.Is(err, ErrInvalidVehicleID):
		return "invalid"
	case errors.Is(err, ErrVehicleAlreadyParked):
		return "already_parked"
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrNoActiveTicket):
		return "no_active_ticket"
	case errors.Is(err, ErrSlotInconsistency):
		return "slot_inconsistency"
	case errors.Is(err, ErrAlreadyValidPass):
		return "already_valid"
	default:
		return "failed"
	}
}
