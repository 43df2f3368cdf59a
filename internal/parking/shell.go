package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Shell struct {
	parkingLot *InstrumentedParkingLot
	scanner    *bufio.Scanner
	out        io.Writer
	telemetry  *TelemetryProvider
}

func NewShell(parkingLot *InstrumentedParkingLot, telemetry *TelemetryProvider, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		parkingLot: parkingLot,
		scanner:    bufio.NewScanner(in),
		out:        out,
		telemetry:  telemetry,
	}
}

// Run reads commands until input ends, quit is entered or ctx is done.
// A cancelled ctx stops Run even while it waits for input.
func (s *Shell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")
	defer span.AddEvent("shell_ended")

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines := s.readLines(readCtx)

	for {
		var line string
		select {
		case <-ctx.Done():
			span.AddEvent("shell_cancelled")
			return
		case next, ok := <-lines:
			if !ok {
				return
			}
			line = next
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "quit" {
			return
		}

		// Create a new span for each command
		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))

		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}
}

// readLines scans input on its own goroutine; the channel closes when input
// ends or ctx is done.
func (s *Shell) readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for s.scanner.Scan() {
			select {
			case lines <- s.scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	span := trace.SpanFromContext(ctx)

	parts := strings.Fields(input)
	command := parts[0]
	span.SetAttributes(attribute.String("command.name", command))

	switch command {
	case "status":
		s.handleStatus(ctx)
	case "park":
		s.handlePark(ctx, parts)
	case "leave":
		s.handleLeave(ctx, parts)
	case "buy_pass":
		s.handleBuyPass(ctx, parts)
	case "view_pass":
		s.handleViewPass(ctx, parts)
	case "ticket":
		s.handleTicket(ctx, parts)
	case "revenue":
		WriteRevenue(s.out, s.parkingLot.GetRevenue(ctx))
	case "help":
		s.printHelp()
	default:
		span.AddEvent("unknown_command", trace.WithAttributes(
			attribute.String("unknown_command", command),
		))
		fmt.Fprintf(s.out, "Unknown command: %s\n", command)
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  status")
	fmt.Fprintln(s.out, "  park <vehicle_number> <Bike|Car|Truck>")
	fmt.Fprintln(s.out, "  leave <vehicle_number> <payment_method>")
	fmt.Fprintln(s.out, "  buy_pass <vehicle_number>")
	fmt.Fprintln(s.out, "  view_pass <vehicle_number>")
	fmt.Fprintln(s.out, "  ticket <vehicle_number>")
	fmt.Fprintln(s.out, "  revenue")
	fmt.Fprintln(s.out, "  quit")
}

func (s *Shell) handleStatus(ctx context.Context) {
	WriteStatus(s.out, s.parkingLot.GetStatus(ctx))
}

func (s *Shell) handlePark(ctx context.Context, parts []string) {
	span := trace.SpanFromContext(ctx)

	if len(parts) != 3 {
		span.AddEvent("invalid_arguments")
		fmt.Fprintln(s.out, "Usage: park <vehicle_number> <Bike|Car|Truck>")
		return
	}

	class, err := ParseVehicleClass(parts[2])
	if err != nil {
		span.RecordError(err)
		fmt.Fprintln(s.out, "Invalid vehicle type!")
		return
	}

	result, err := s.parkingLot.Park(ctx, parts[1], class)
	if result.PassHolder {
		fmt.Fprintln(s.out, "Monthly pass holder detected!")
	}
	switch {
	case err == nil, errors.Is(err, ErrPersistenceWrite):
		WriteTicket(s.out, result.Ticket)
		fmt.Fprintf(s.out, "Vehicle parked successfully on Floor %d!\n", result.Floor)
		s.warnUnsaved(err)
	case errors.Is(err, ErrSlotUnavailable):
		fmt.Fprintf(s.out, "No available slot for %s!\n", class)
	case errors.Is(err, ErrVehicleAlreadyParked):
		fmt.Fprintf(s.out, "Vehicle %s is already parked!\n", parts[1])
	default:
		fmt.Fprintf(s.out, "Error: %s\n", err.Error())
	}
}

func (s *Shell) handleLeave(ctx context.Context, parts []string) {
	span := trace.SpanFromContext(ctx)

	if len(parts) < 3 {
		span.AddEvent("invalid_arguments")
		fmt.Fprintln(s.out, "Usage: leave <vehicle_number> <payment_method>")
		return
	}

	method := strings.Join(parts[2:], " ")
	result, err := s.parkingLot.Exit(ctx, parts[1], method)
	switch {
	case err == nil, errors.Is(err, ErrPersistenceWrite):
		if result.PassHolder {
			fmt.Fprintln(s.out, "Monthly pass holder - No charges!")
			WritePass(s.out, PassStatus{Pass: *result.Pass, Valid: true})
		} else {
			WriteReceipt(s.out, result)
		}
		fmt.Fprintln(s.out, "Vehicle exited successfully!")
		s.warnUnsaved(err)
	case errors.Is(err, ErrNoActiveTicket):
		fmt.Fprintln(s.out, "No active ticket found for this vehicle!")
	case errors.Is(err, ErrSlotInconsistency):
		fmt.Fprintln(s.out, "Error: Vehicle not found in slot!")
	default:
		fmt.Fprintf(s.out, "Error: %s\n", err.Error())
	}
}

func (s *Shell) handleBuyPass(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		trace.SpanFromContext(ctx).AddEvent("invalid_arguments")
		fmt.Fprintln(s.out, "Usage: buy_pass <vehicle_number>")
		return
	}

	purchase, err := s.parkingLot.PurchasePass(ctx, parts[1])
	switch {
	case err == nil, errors.Is(err, ErrPersistenceWrite):
		fmt.Fprintln(s.out, "Monthly pass purchased successfully!")
		fmt.Fprintf(s.out, "Amount Paid: %s\n", FormatAmount(purchase.Price))
		WritePass(s.out, PassStatus{Pass: purchase.Pass, Valid: true})
		s.warnUnsaved(err)
	case errors.Is(err, ErrAlreadyValidPass):
		fmt.Fprintln(s.out, "Active monthly pass already exists!")
		WritePass(s.out, PassStatus{Pass: purchase.Pass, Valid: true})
	default:
		fmt.Fprintf(s.out, "Error: %s\n", err.Error())
	}
}

func (s *Shell) handleViewPass(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		trace.SpanFromContext(ctx).AddEvent("invalid_arguments")
		fmt.Fprintln(s.out, "Usage: view_pass <vehicle_number>")
		return
	}

	status, ok := s.parkingLot.GetPass(ctx, parts[1])
	if !ok {
		fmt.Fprintln(s.out, "No monthly pass found for this vehicle!")
		return
	}
	WritePass(s.out, status)
}

func (s *Shell) handleTicket(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		trace.SpanFromContext(ctx).AddEvent("invalid_arguments")
		fmt.Fprintln(s.out, "Usage: ticket <vehicle_number>")
		return
	}

	ticket, ok := s.parkingLot.GetTicket(ctx, parts[1])
	if !ok {
		fmt.Fprintln(s.out, "Not found")
		return
	}
	WriteTicket(s.out, ticket)
}

func (s *Shell) warnUnsaved(err error) {
	if err != nil {
		fmt.Fprintln(s.out, "Warning: changes could not be saved and will be retried on the next save")
	}
}
