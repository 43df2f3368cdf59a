package parking

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	PassValidity     = 30 * 24 * time.Hour
	MonthlyPassPrice = 500.0
)

type MonthlyPass struct {
	ID        string    `json:"pass_id"`
	VehicleID string    `json:"vehicle_id"`
	StartedAt time.Time `json:"started_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

func NewMonthlyPass(vehicleID string, start time.Time) MonthlyPass {
	return MonthlyPass{
		ID:        fmt.Sprintf("PASS-%d-%s", start.Unix(), uuid.NewString()[:8]),
		VehicleID: vehicleID,
		StartedAt: start,
		ExpiresAt: start.Add(PassValidity),
		Active:    true,
	}
}

func (p MonthlyPass) IsValid(now time.Time) bool {
	return p.Active && now.Before(p.ExpiresAt)
}

// PassLedger keeps the most recent pass of each vehicle.
type PassLedger struct {
	passes map[string]MonthlyPass
}

func NewPassLedger() *PassLedger {
	return &PassLedger{passes: make(map[string]MonthlyPass)}
}

func (l *PassLedger) IsValid(vehicleID string, now time.Time) bool {
	pass, ok := l.passes[vehicleID]
	return ok && pass.IsValid(now)
}

func (l *PassLedger) Purchase(vehicleID string, now time.Time) (MonthlyPass, error) {
	if existing, ok := l.passes[vehicleID]; ok && existing.IsValid(now) {
		return existing, fmt.Errorf("%w: %s until %s", ErrAlreadyValidPass, vehicleID, existing.ExpiresAt.Format(time.RFC3339))
	}
	pass := NewMonthlyPass(vehicleID, now)
	l.passes[vehicleID] = pass
	return pass, nil
}

func (l *PassLedger) Lookup(vehicleID string) (MonthlyPass, bool) {
	pass, ok := l.passes[vehicleID]
	return pass, ok
}

// Put installs a restored record as-is.
func (l *PassLedger) Put(pass MonthlyPass) {
	l.passes[pass.VehicleID] = pass
}

func (l *PassLedger) Len() int {
	return len(l.passes)
}

func (l *PassLedger) ValidCount(now time.Time) int {
	count := 0
	for _, pass := range l.passes {
		if pass.IsValid(now) {
			count++
		}
	}
	return count
}

// All returns every pass record ordered by vehicle id.
func (l *PassLedger) All() []MonthlyPass {
	passes := make([]MonthlyPass, 0, len(l.passes))
	for _, pass := range l.passes {
		passes = append(passes, pass)
	}
	sort.Slice(passes, func(i, j int) bool {
		return passes[i].VehicleID < passes[j].VehicleID
	})
	return passes
}
