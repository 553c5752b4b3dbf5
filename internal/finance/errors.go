package finance

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAllocation: non-positive amount, unknown or ineligible symbol, or a closed session.
	ErrInvalidAllocation = errors.New("invalid allocation")
	// ErrBudgetOvershoot: the allocation would drive the remaining budget below zero.
	ErrBudgetOvershoot = errors.New("allocation exceeds remaining budget")
	// ErrDataUnavailable: a price series could not be fetched or used.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrMalformedParameters: simulation parameters rejected before any fetch.
	ErrMalformedParameters = errors.New("malformed parameters")
)

// DataUnavailableError names the symbol whose series could not be used.
type DataUnavailableError struct {
	Symbol string
	Reason string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", ErrDataUnavailable, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", ErrDataUnavailable, e.Symbol, e.Reason)
}

func (e *DataUnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

func (e *DataUnavailableError) Unwrap() error { return e.Err }

func unavailable(symbol, reason string, err error) error {
	return &DataUnavailableError{Symbol: symbol, Reason: reason, Err: err}
}

// OvershootError reports the rejected amount against what was left.
type OvershootError struct {
	Symbol    string
	Requested int
	Remaining int
}

func (e *OvershootError) Error() string {
	return fmt.Sprintf("%s: %s %d requested, %d remaining", ErrBudgetOvershoot, e.Symbol, e.Requested, e.Remaining)
}

func (e *OvershootError) Is(target error) bool { return target == ErrBudgetOvershoot }
