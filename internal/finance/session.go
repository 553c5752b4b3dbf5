package finance

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SessionState is the position of an AllocationSession in its workflow.
type SessionState int

const (
	StateAccepting SessionState = iota
	StateComplete
	// StateOvershootRejected is only ever returned from Allocate; the session itself stays ACCEPTING.
	StateOvershootRejected
)

func (s SessionState) String() string {
	switch s {
	case StateAccepting:
		return "ACCEPTING"
	case StateComplete:
		return "COMPLETE"
	case StateOvershootRejected:
		return "OVERSHOOT_REJECTED"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Holding is one symbol and the dollars put into it.
type Holding struct {
	Symbol string
	Amount int
}

// Allocation maps symbol to invested dollars, remembering first-insertion order.
type Allocation struct {
	order   []string
	amounts map[string]int
}

func NewAllocation() Allocation {
	return Allocation{amounts: map[string]int{}}
}

// AllocationOf builds an Allocation from holdings in order, accumulating repeats.
func AllocationOf(holdings ...Holding) Allocation {
	a := NewAllocation()
	for _, h := range holdings {
		a.add(h.Symbol, h.Amount)
	}
	return a
}

func (a *Allocation) add(symbol string, amount int) {
	if a.amounts == nil {
		a.amounts = map[string]int{}
	}
	if _, ok := a.amounts[symbol]; !ok {
		a.order = append(a.order, symbol)
	}
	a.amounts[symbol] += amount
}

func (a Allocation) Len() int { return len(a.order) }

func (a Allocation) Amount(symbol string) int { return a.amounts[symbol] }

func (a Allocation) Symbols() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

func (a Allocation) Holdings() []Holding {
	out := make([]Holding, 0, len(a.order))
	for _, s := range a.order {
		out = append(out, Holding{Symbol: s, Amount: a.amounts[s]})
	}
	return out
}

func (a Allocation) Total() int {
	total := 0
	for _, v := range a.amounts {
		total += v
	}
	return total
}

// Clone returns an independent copy.
func (a Allocation) Clone() Allocation {
	return AllocationOf(a.Holdings()...)
}

func (a Allocation) String() string {
	parts := make([]string, 0, len(a.order))
	for _, h := range a.Holdings() {
		parts = append(parts, fmt.Sprintf("%s:%d", h.Symbol, h.Amount))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// EligibilityChecker decides whether a symbol may be picked for a run starting on start.
type EligibilityChecker interface {
	IsEligible(symbol string, start time.Time) bool
}

// ErrSessionIncomplete is returned when allocations are requested before the budget is spent.
var ErrSessionIncomplete = errors.New("allocation session is not complete")

// AllocationSession tracks the shrinking budget across picks. It is owned by one
// caller at a time; concurrent use must be serialized externally.
type AllocationSession struct {
	params    SimulationParameters
	remaining int
	alloc     Allocation
	state     SessionState
	eligible  EligibilityChecker
}

type SessionOption func(*AllocationSession)

// WithEligibility rejects symbols that had not started trading by the run's start date.
func WithEligibility(e EligibilityChecker) SessionOption {
	return func(s *AllocationSession) { s.eligible = e }
}

func NewAllocationSession(params SimulationParameters, opts ...SessionOption) *AllocationSession {
	s := &AllocationSession{
		params:    params,
		remaining: params.Budget,
		alloc:     NewAllocation(),
		state:     StateAccepting,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.remaining == 0 {
		s.state = StateComplete
	}
	return s
}

// Allocate commits amount to symbol, or rejects it leaving the session untouched.
// The returned state is the outcome of this step: ACCEPTING, COMPLETE, or
// OVERSHOOT_REJECTED (in which case the session remains ACCEPTING).
func (s *AllocationSession) Allocate(symbol string, amount int) (SessionState, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if s.state == StateComplete {
		return s.state, fmt.Errorf("%w: budget already fully allocated", ErrInvalidAllocation)
	}
	if symbol == "" {
		return s.state, fmt.Errorf("%w: empty symbol", ErrInvalidAllocation)
	}
	if amount <= 0 {
		return s.state, fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidAllocation, amount)
	}
	if s.eligible != nil && !s.eligible.IsEligible(symbol, s.params.Start) {
		return s.state, fmt.Errorf("%w: %s was not trading before %s",
			ErrInvalidAllocation, symbol, s.params.Start.Format(DateLayout))
	}

	next := s.remaining - amount
	if next < 0 {
		return StateOvershootRejected, &OvershootError{Symbol: symbol, Requested: amount, Remaining: s.remaining}
	}

	s.alloc.add(symbol, amount)
	s.remaining = next
	if next == 0 {
		s.state = StateComplete
	}
	return s.state, nil
}

// AllocatePick is Allocate for a parsed front-end pick.
func (s *AllocationSession) AllocatePick(p Pick, amount int) (SessionState, error) {
	return s.Allocate(p.Symbol, amount)
}

func (s *AllocationSession) Parameters() SimulationParameters { return s.params }

func (s *AllocationSession) Remaining() int { return s.remaining }

func (s *AllocationSession) State() SessionState { return s.state }

func (s *AllocationSession) IsComplete() bool { return s.state == StateComplete }

// Snapshot returns a copy of the allocations so far, in any state.
func (s *AllocationSession) Snapshot() Allocation { return s.alloc.Clone() }

// Allocations hands the final mapping onward; only a COMPLETE session may do so.
func (s *AllocationSession) Allocations() (Allocation, error) {
	if !s.IsComplete() {
		return Allocation{}, fmt.Errorf("%w: %d of %d still unallocated", ErrSessionIncomplete, s.remaining, s.params.Budget)
	}
	return s.alloc.Clone(), nil
}
