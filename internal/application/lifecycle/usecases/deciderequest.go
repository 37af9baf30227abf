package usecases

import (
	"context"
	stderrors "errors"

	"github.com/RobertLogos32/bto-prova/internal/application/common"
	"github.com/RobertLogos32/bto-prova/internal/application/common/dto"
	"github.com/RobertLogos32/bto-prova/internal/domain/client"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
	"github.com/RobertLogos32/bto-prova/internal/shared/biztime"
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

type DecideRequestCommand struct {
	RequestSID string
	Actor      int64
	Decision   vo.DecisionStatus
}

type DecideRequestResult struct {
	Request *dto.RequestDTO
}

// DecideRequestUseCase approves or denies a pending number request. Approval
// does not allocate a number.
type DecideRequestUseCase struct {
	requestRepo numberrequest.Repository
	clientRepo  client.Repository
	operators   OperatorPolicy
	logger      logger.Interface
}

func NewDecideRequestUseCase(
	requestRepo numberrequest.Repository,
	clientRepo client.Repository,
	operators OperatorPolicy,
	logger logger.Interface,
) *DecideRequestUseCase {
	return &DecideRequestUseCase{
		requestRepo: requestRepo,
		clientRepo:  clientRepo,
		operators:   operators,
		logger:      logger,
	}
}

func (uc *DecideRequestUseCase) Approve(ctx context.Context, requestSID string, actor int64) (*DecideRequestResult, error) {
	return uc.Execute(ctx, DecideRequestCommand{RequestSID: requestSID, Actor: actor, Decision: vo.DecisionApproved})
}

func (uc *DecideRequestUseCase) Deny(ctx context.Context, requestSID string, actor int64) (*DecideRequestResult, error) {
	return uc.Execute(ctx, DecideRequestCommand{RequestSID: requestSID, Actor: actor, Decision: vo.DecisionDenied})
}

// Execute decides the request with one conditional update. The stored status
// is never read to decide whether the write may happen.
func (uc *DecideRequestUseCase) Execute(ctx context.Context, cmd DecideRequestCommand) (*DecideRequestResult, error) {
	if !vo.DecisionPending.CanTransitionTo(cmd.Decision) {
		return nil, errors.NewValidationError("decision must be approved or denied")
	}
	if !uc.operators.IsOperator(cmd.Actor) {
		uc.logger.Warnw("request decision rejected, actor is not an operator", "actor", cmd.Actor)
		return nil, errors.NewForbiddenError("operator privilege required")
	}

	req, err := uc.requestRepo.GetBySID(ctx, cmd.RequestSID)
	if err != nil {
		if stderrors.Is(err, numberrequest.ErrRequestNotFound) {
			return nil, errors.NewNotFoundError("request not found", cmd.RequestSID)
		}
		return nil, common.StoreError(uc.logger, "get request", err)
	}

	at := biztime.NowUTC()
	won, err := uc.requestRepo.CompareAndSwapStatus(ctx, req.ID(), vo.DecisionPending, cmd.Decision, cmd.Actor, at)
	if err != nil {
		return nil, common.StoreError(uc.logger, "update request status", err)
	}
	if !won {
		current, err := uc.requestRepo.GetByID(ctx, req.ID())
		if err != nil {
			return nil, common.StoreError(uc.logger, "get request", err)
		}
		uc.logger.Infow("request decision lost",
			"request_sid", cmd.RequestSID,
			"actor", cmd.Actor,
			"current_status", current.Status(),
		)
		return nil, errors.NewConflictError("request already decided", current.Status().String())
	}
	req.ApplyDecision(cmd.Decision, cmd.Actor, at)

	owner, err := uc.clientRepo.GetByID(ctx, req.ClientID())
	if err != nil && !stderrors.Is(err, client.ErrClientNotFound) {
		uc.logger.Warnw("failed to load request owner", "request_sid", req.SID(), "error", err)
	}

	uc.logger.Infow("request decided",
		"request_sid", req.SID(),
		"decision", cmd.Decision,
		"actor", cmd.Actor,
	)
	return &DecideRequestResult{Request: dto.FromRequest(req, owner)}, nil
}
