package parking

import "time"

const minimumBillableHours = 1.0

// BillableHours is the elapsed stay in hours, never less than one hour.
func BillableHours(entry, exit time.Time) float64 {
	hours := exit.Sub(entry).Hours()
	if hours < minimumBillableHours {
		return minimumBillableHours
	}
	return hours
}

func ComputeFee(entry, exit time.Time, hourlyRate float64) float64 {
	return BillableHours(entry, exit) * hourlyRate
}
