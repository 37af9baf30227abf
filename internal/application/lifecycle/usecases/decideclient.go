package usecases

import (
	"context"
	stderrors "errors"

	"github.com/RobertLogos32/bto-prova/internal/application/common"
	"github.com/RobertLogos32/bto-prova/internal/application/common/dto"
	"github.com/RobertLogos32/bto-prova/internal/domain/client"
	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

type DecideClientCommand struct {
	PlatformID int64
	Actor      int64
	Decision   vo.DecisionStatus
}

type DecideClientResult struct {
	Client *dto.ClientDTO
}

// DecideClientUseCase approves or denies a pending client.
type DecideClientUseCase struct {
	clientRepo client.Repository
	operators  OperatorPolicy
	logger     logger.Interface
}

func NewDecideClientUseCase(clientRepo client.Repository, operators OperatorPolicy, logger logger.Interface) *DecideClientUseCase {
	return &DecideClientUseCase{
		clientRepo: clientRepo,
		operators:  operators,
		logger:     logger,
	}
}

func (uc *DecideClientUseCase) Approve(ctx context.Context, platformID, actor int64) (*DecideClientResult, error) {
	return uc.Execute(ctx, DecideClientCommand{PlatformID: platformID, Actor: actor, Decision: vo.DecisionApproved})
}

func (uc *DecideClientUseCase) Deny(ctx context.Context, platformID, actor int64) (*DecideClientResult, error) {
	return uc.Execute(ctx, DecideClientCommand{PlatformID: platformID, Actor: actor, Decision: vo.DecisionDenied})
}

// Execute performs a single conditional update from pending to the decision.
func (uc *DecideClientUseCase) Execute(ctx context.Context, cmd DecideClientCommand) (*DecideClientResult, error) {
	if !vo.DecisionPending.CanTransitionTo(cmd.Decision) {
		return nil, errors.NewValidationError("decision must be approved or denied")
	}
	if !uc.operators.IsOperator(cmd.Actor) {
		uc.logger.Warnw("client decision rejected, actor is not an operator", "actor", cmd.Actor)
		return nil, errors.NewForbiddenError("operator privilege required")
	}

	c, err := uc.clientRepo.GetByPlatformID(ctx, cmd.PlatformID)
	if err != nil {
		if stderrors.Is(err, client.ErrClientNotFound) {
			return nil, errors.NewNotFoundError("client not found")
		}
		return nil, common.StoreError(uc.logger, "get client", err)
	}

	won, err := uc.clientRepo.CompareAndSwapStatus(ctx, c.ID(), vo.DecisionPending, cmd.Decision)
	if err != nil {
		return nil, common.StoreError(uc.logger, "update client status", err)
	}

	current, err := uc.clientRepo.GetByID(ctx, c.ID())
	if err != nil {
		return nil, common.StoreError(uc.logger, "get client", err)
	}

	if !won {
		return nil, errors.NewConflictError("client already decided", current.Status().String())
	}

	uc.logger.Infow("client decided",
		"platform_id", cmd.PlatformID,
		"decision", cmd.Decision,
		"actor", cmd.Actor,
	)
	return &DecideClientResult{Client: dto.FromClient(current)}, nil
}
