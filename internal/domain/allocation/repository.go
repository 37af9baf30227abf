package allocation

import (
	"context"
	"time"
)

// PollTarget is a pollable allocation joined with what the relay needs.
type PollTarget struct {
	Allocation  *Allocation
	RequestSID  string
	Service     string
	RecipientID int64
}

// Holding is an allocation as shown to its owner.
type Holding struct {
	Allocation *Allocation
	RequestSID string
	Service    string
	CodeCount  int
}

// Repository persists allocations.
type Repository interface {
	// Create inserts the allocation, or returns the row already bound to the
	// same request or activation id. The returned value is always the persisted row.
	Create(ctx context.Context, a *Allocation) (*Allocation, error)

	GetByID(ctx context.Context, id uint) (*Allocation, error)
	GetBySID(ctx context.Context, sid string) (*Allocation, error)
	GetByRequestID(ctx context.Context, requestID uint) (*Allocation, error)
	GetByActivationID(ctx context.Context, activationID string) (*Allocation, error)

	// ListPollable returns allocations with an activation id that are still waiting.
	ListPollable(ctx context.Context) ([]*PollTarget, error)

	// ListWaitingAssignedBefore returns waiting allocations assigned before cutoff.
	ListWaitingAssignedBefore(ctx context.Context, cutoff time.Time) ([]*Allocation, error)

	// MarkTerminal moves a waiting allocation to state. It returns false when
	// the allocation was no longer waiting.
	MarkTerminal(ctx context.Context, id uint, state PollState, at time.Time) (bool, error)

	ListByClient(ctx context.Context, clientID uint) ([]*Holding, error)
}

// DeliveredCodeRepository persists observed codes.
type DeliveredCodeRepository interface {
	// Append records the code once per (allocation, content). It returns the
	// stored row and whether this call created it.
	Append(ctx context.Context, code *DeliveredCode) (*DeliveredCode, bool, error)
	// ClaimRelay flips the delivered flag from false to true and reports
	// whether this call did it. Only the claimant relays the code.
	ClaimRelay(ctx context.Context, id uint) (bool, error)
	// ReleaseRelay clears the flag after a failed relay so a later cycle retries.
	ReleaseRelay(ctx context.Context, id uint) error
	ListByAllocation(ctx context.Context, allocationID uint) ([]*DeliveredCode, error)
}
