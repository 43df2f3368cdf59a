package parking

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const displayTimeLayout = "Mon Jan 2 15:04:05 2006"

// FormatAmount renders a money amount with two decimals.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

func formatHours(hours float64) string {
	return decimal.NewFromFloat(hours).StringFixed(2)
}

func formatTime(t time.Time) string {
	return t.Local().Format(displayTimeLayout)
}

func writeBanner(w io.Writer, title string) {
	fmt.Fprintln(w, strings.Repeat("=", 36))
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, strings.Repeat("=", 36))
}

func WriteTicket(w io.Writer, ticket Ticket) {
	writeBanner(w, "PARKING TICKET")
	fmt.Fprintf(w, "Ticket ID: %s\n", ticket.ID)
	fmt.Fprintf(w, "Vehicle: %s (%s)\n", ticket.VehicleID, ticket.Class)
	fmt.Fprintf(w, "Slot: %d\n", ticket.SlotID)
	fmt.Fprintf(w, "Entry Time: %s\n", formatTime(ticket.EntryTime))
	fmt.Fprintf(w, "Rate: %s/hour\n", FormatAmount(ticket.HourlyRate))
}

func WriteReceipt(w io.Writer, result ExitResult) {
	if result.Payment == nil {
		return
	}
	writeBanner(w, "PAYMENT RECEIPT")
	fmt.Fprintf(w, "Vehicle: %s\n", result.Ticket.VehicleID)
	fmt.Fprintf(w, "Duration: %s hours\n", formatHours(result.Hours))
	fmt.Fprintf(w, "Rate: %s/hour\n", FormatAmount(result.Ticket.HourlyRate))
	fmt.Fprintf(w, "Amount: %s\n", FormatAmount(result.Payment.Amount))
	fmt.Fprintf(w, "Method: %s\n", result.Payment.Method)
	fmt.Fprintf(w, "Time: %s\n", formatTime(result.Payment.PaidAt))
}

func WritePass(w io.Writer, status PassStatus) {
	writeBanner(w, "MONTHLY PASS")
	fmt.Fprintf(w, "Pass ID: %s\n", status.Pass.ID)
	fmt.Fprintf(w, "Vehicle: %s\n", status.Pass.VehicleID)
	fmt.Fprintf(w, "Start Date: %s\n", formatTime(status.Pass.StartedAt))
	fmt.Fprintf(w, "Valid till: %s\n", formatTime(status.Pass.ExpiresAt))
	if status.Valid {
		fmt.Fprintln(w, "Status: Active")
	} else {
		fmt.Fprintln(w, "Status: Expired")
	}
}

func WriteStatus(w io.Writer, status LotStatus) {
	writeBanner(w, "PARKING SYSTEM STATUS")
	for _, floor := range status.Floors {
		fmt.Fprintf(w, "--- Floor %d ---\n", floor.Number)
		for _, class := range VehicleClasses() {
			cells := make([]string, 0, len(floor.Slots))
			for _, slot := range floor.Slots {
				if slot.Class != class {
					continue
				}
				if slot.Occupied {
					cells = append(cells, "[X]")
				} else {
					cells = append(cells, "[ ]")
				}
			}
			fmt.Fprintf(w, "%-7s %s\n", string(class)+":", strings.Join(cells, " "))
		}
	}
	fmt.Fprintf(w, "Available: Bikes: %d | Cars: %d | Trucks: %d\n",
		status.Available[Bike], status.Available[Car], status.Available[Truck])
	fmt.Fprintln(w, "Legend: [ ] = Available, [X] = Occupied")
}

func WriteRevenue(w io.Writer, summary RevenueSummary) {
	writeBanner(w, "REVENUE STATISTICS")
	fmt.Fprintf(w, "Total Revenue: %s\n", FormatAmount(summary.TotalRevenue))
	fmt.Fprintf(w, "Active Vehicles: %d\n", summary.ActiveVehicles)
	fmt.Fprintf(w, "Monthly Pass Holders: %d (%d valid)\n", summary.PassRecords, summary.ValidPasses)
}
