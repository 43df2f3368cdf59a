package parking

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidVehicleClass  = errors.New("invalid vehicle class")
	ErrInvalidVehicleID     = errors.New("invalid vehicle id")
	ErrVehicleAlreadyParked = errors.New("vehicle already parked")
	ErrSlotUnavailable      = errors.New("no available slot")
	ErrNoActiveTicket       = errors.New("no active ticket")
	ErrSlotInconsistency    = errors.New("slot inconsistency")
	ErrAlreadyValidPass     = errors.New("monthly pass already valid")
	ErrPersistenceWrite     = errors.New("persistence write failed")
)

// PersistenceError reports a snapshot that could not be saved. The
// operation that triggered the save has already taken effect in memory.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrPersistenceWrite, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceWrite
}
