// Package allocation models the binding of an approved request to a provider
// number and the codes observed on it.
package allocation

import (
	"fmt"
	"time"

	"github.com/RobertLogos32/bto-prova/internal/shared/biztime"
	"github.com/RobertLogos32/bto-prova/internal/shared/id"
)

// Lease is what the provider hands out for one activation.
type Lease struct {
	ActivationID string
	Number       string
}

// Allocation is immutable after creation except for its poll state.
type Allocation struct {
	id           uint
	sid          string
	requestID    uint
	number       string
	serviceCode  string
	activationID *string
	pollState    PollState
	assignedAt   time.Time
	terminalAt   *time.Time
}

// NewAllocation binds a lease to a request. It starts out waiting.
func NewAllocation(requestID uint, serviceCode string, lease Lease) (*Allocation, error) {
	if requestID == 0 {
		return nil, ErrInvalidRequest
	}
	if lease.ActivationID == "" {
		return nil, ErrMissingActivationID
	}
	if lease.Number == "" {
		return nil, ErrMissingNumber
	}

	sid, err := id.NewAllocationID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SID: %w", err)
	}

	activationID := lease.ActivationID
	return &Allocation{
		sid:          sid,
		requestID:    requestID,
		number:       lease.Number,
		serviceCode:  serviceCode,
		activationID: &activationID,
		pollState:    PollWaiting,
		assignedAt:   biztime.NowUTC(),
	}, nil
}

// ReconstructAllocation reconstructs from persistence
func ReconstructAllocation(
	id uint,
	sid string,
	requestID uint,
	number string,
	serviceCode string,
	activationID *string,
	pollState PollState,
	assignedAt time.Time,
	terminalAt *time.Time,
) *Allocation {
	return &Allocation{
		id:           id,
		sid:          sid,
		requestID:    requestID,
		number:       number,
		serviceCode:  serviceCode,
		activationID: activationID,
		pollState:    pollState,
		assignedAt:   assignedAt,
		terminalAt:   terminalAt,
	}
}

// Getters
func (a *Allocation) ID() uint               { return a.id }
func (a *Allocation) SID() string            { return a.sid }
func (a *Allocation) RequestID() uint        { return a.requestID }
func (a *Allocation) Number() string         { return a.number }
func (a *Allocation) ServiceCode() string    { return a.serviceCode }
func (a *Allocation) PollState() PollState   { return a.pollState }
func (a *Allocation) AssignedAt() time.Time  { return a.assignedAt }
func (a *Allocation) TerminalAt() *time.Time { return a.terminalAt }

// ActivationID returns the provider handle, or "" when none is bound.
func (a *Allocation) ActivationID() string {
	if a.activationID == nil {
		return ""
	}
	return *a.activationID
}

func (a *Allocation) HasActivation() bool {
	return a.activationID != nil && *a.activationID != ""
}

// SetID sets the allocation ID (only for persistence layer use)
func (a *Allocation) SetID(id uint) {
	a.id = id
}

// IsPollable reports whether poll cycles should still query the provider.
func (a *Allocation) IsPollable() bool {
	return a.HasActivation() && !a.pollState.IsTerminal()
}

// ApplyTerminal mirrors a terminal transition already committed by the repository.
func (a *Allocation) ApplyTerminal(state PollState, at time.Time) {
	a.pollState = state
	a.terminalAt = &at
}
