package usecases

import (
	"context"

	"github.com/RobertLogos32/bto-prova/internal/application/common/dto"
	lifecycle "github.com/RobertLogos32/bto-prova/internal/application/lifecycle/usecases"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

type ApproveAndAllocateResult struct {
	Request    *dto.RequestDTO
	Allocation *dto.AllocationDTO
	// AllocationErr is set when the request was approved but no number
	// could be bound. The request stays approved and can be retried.
	AllocationErr error
}

// ApproveAndAllocateUseCase approves a request and immediately allocates it.
type ApproveAndAllocateUseCase struct {
	decide   *lifecycle.DecideRequestUseCase
	allocate *AllocateUseCase
	logger   logger.Interface
}

func NewApproveAndAllocateUseCase(decide *lifecycle.DecideRequestUseCase, allocate *AllocateUseCase, logger logger.Interface) *ApproveAndAllocateUseCase {
	return &ApproveAndAllocateUseCase{
		decide:   decide,
		allocate: allocate,
		logger:   logger,
	}
}

// Execute returns an error only when the approval itself failed.
func (uc *ApproveAndAllocateUseCase) Execute(ctx context.Context, requestSID string, actor int64) (*ApproveAndAllocateResult, error) {
	decided, err := uc.decide.Approve(ctx, requestSID, actor)
	if err != nil {
		return nil, err
	}

	result := &ApproveAndAllocateResult{Request: decided.Request}
	allocated, err := uc.allocate.Execute(ctx, AllocateCommand{RequestSID: requestSID})
	if err != nil {
		uc.logger.Warnw("request approved but not allocated",
			"request_sid", requestSID,
			"error", err,
		)
		result.AllocationErr = err
		return result, nil
	}
	result.Allocation = allocated.Allocation
	return result, nil
}
