package usecases

import (
	"context"
	stderrors "errors"

	"github.com/RobertLogos32/bto-prova/internal/application/common/dto"
	lifecycle "github.com/RobertLogos32/bto-prova/internal/application/lifecycle/usecases"
	"github.com/RobertLogos32/bto-prova/internal/domain/client"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

type RetryAllocationResult struct {
	Request    *dto.RequestDTO
	Allocation *dto.AllocationDTO
	Existing   bool
}

// RetryAllocationUseCase lets an operator allocate an approved request again
// after the provider had no number for it.
type RetryAllocationUseCase struct {
	allocate    *AllocateUseCase
	requestRepo numberrequest.Repository
	clientRepo  client.Repository
	operators   lifecycle.OperatorPolicy
	logger      logger.Interface
}

func NewRetryAllocationUseCase(
	allocate *AllocateUseCase,
	requestRepo numberrequest.Repository,
	clientRepo client.Repository,
	operators lifecycle.OperatorPolicy,
	logger logger.Interface,
) *RetryAllocationUseCase {
	return &RetryAllocationUseCase{
		allocate:    allocate,
		requestRepo: requestRepo,
		clientRepo:  clientRepo,
		operators:   operators,
		logger:      logger,
	}
}

func (uc *RetryAllocationUseCase) Execute(ctx context.Context, requestSID string, actor int64) (*RetryAllocationResult, error) {
	if !uc.operators.IsOperator(actor) {
		return nil, errors.NewForbiddenError("operator privilege required")
	}

	res, err := uc.allocate.Execute(ctx, AllocateCommand{RequestSID: requestSID})
	if err != nil {
		return nil, err
	}

	out := &RetryAllocationResult{Allocation: res.Allocation, Existing: res.Existing}
	req, err := uc.requestRepo.GetBySID(ctx, requestSID)
	if err != nil {
		// The number is bound; only the owner lookup failed.
		uc.logger.Warnw("failed to reload allocated request", "request_sid", requestSID, "error", err)
		return out, nil
	}
	owner, err := uc.clientRepo.GetByID(ctx, req.ClientID())
	if err != nil && !stderrors.Is(err, client.ErrClientNotFound) {
		uc.logger.Warnw("failed to load request owner", "request_sid", requestSID, "error", err)
	}
	out.Request = dto.FromRequest(req, owner)

	uc.logger.Infow("allocation retried",
		"request_sid", requestSID,
		"actor", actor,
		"existing", res.Existing,
	)
	return out, nil
}
