package usecases

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/RobertLogos32/bto-prova/internal/application/common"
	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/domain/client"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	"github.com/RobertLogos32/bto-prova/internal/shared/biztime"
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

type AwaitCodeCommand struct {
	AllocationSID string
	// Step and Timeout override the configured values when positive.
	Step    time.Duration
	Timeout time.Duration
}

type AwaitCodeResult struct {
	State allocation.PollState
	Code  string
}

// AwaitCodeUseCase polls a single allocation until a code arrives, the
// provider ends the activation, or the timeout expires.
type AwaitCodeUseCase struct {
	allocationRepo allocation.Repository
	requestRepo    numberrequest.Repository
	clientRepo     client.Repository
	processor      *itemProcessor
	step           time.Duration
	timeout        time.Duration
	logger         logger.Interface
}

func NewAwaitCodeUseCase(
	allocationRepo allocation.Repository,
	codeRepo allocation.DeliveredCodeRepository,
	requestRepo numberrequest.Repository,
	clientRepo client.Repository,
	provider StatusProvider,
	notifier RelayNotifier,
	catalog *numberrequest.Catalog,
	step, timeout time.Duration,
	logger logger.Interface,
) *AwaitCodeUseCase {
	return &AwaitCodeUseCase{
		allocationRepo: allocationRepo,
		requestRepo:    requestRepo,
		clientRepo:     clientRepo,
		processor: &itemProcessor{
			allocationRepo: allocationRepo,
			codeRepo:       codeRepo,
			provider:       provider,
			notifier:       notifier,
			catalog:        catalog,
			logger:         logger,
		},
		step:    step,
		timeout: timeout,
		logger:  logger,
	}
}

func (uc *AwaitCodeUseCase) Execute(ctx context.Context, cmd AwaitCodeCommand) (*AwaitCodeResult, error) {
	step, timeout := uc.step, uc.timeout
	if cmd.Step > 0 {
		step = cmd.Step
	}
	if cmd.Timeout > 0 {
		timeout = cmd.Timeout
	}

	target, err := uc.target(ctx, cmd.AllocationSID)
	if err != nil {
		return nil, err
	}
	a := target.Allocation
	if !a.IsPollable() {
		return &AwaitCodeResult{State: a.PollState()}, nil
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome, code, err := uc.processor.process(ctx, target)
		switch {
		case err != nil:
			uc.logger.Warnw("await poll failed", "allocation_sid", a.SID(), "error", err)
		case outcome == OutcomeDelivered || outcome == OutcomeDuplicate:
			return &AwaitCodeResult{State: allocation.PollDelivered, Code: code}, nil
		case outcome == OutcomeEnded:
			return &AwaitCodeResult{State: allocation.PollEnded}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return uc.expire(context.WithoutCancel(ctx), a)
		case <-ticker.C:
		}
	}
}

// expire cancels the activation at the provider and marks it expired.
func (uc *AwaitCodeUseCase) expire(ctx context.Context, a *allocation.Allocation) (*AwaitCodeResult, error) {
	if err := uc.processor.provider.Cancel(ctx, a.ActivationID()); err != nil {
		uc.logger.Warnw("failed to cancel expired activation",
			"allocation_sid", a.SID(),
			"activation_id", a.ActivationID(),
			"error", err,
		)
	}
	won, err := uc.allocationRepo.MarkTerminal(ctx, a.ID(), allocation.PollExpired, biztime.NowUTC())
	if err != nil {
		return nil, common.StoreError(uc.logger, "mark allocation expired", err)
	}
	if !won {
		current, err := uc.allocationRepo.GetByID(ctx, a.ID())
		if err != nil {
			return nil, common.StoreError(uc.logger, "get allocation", err)
		}
		return &AwaitCodeResult{State: current.PollState()}, nil
	}
	uc.logger.Infow("activation expired without a code", "allocation_sid", a.SID())
	return &AwaitCodeResult{State: allocation.PollExpired}, nil
}

func (uc *AwaitCodeUseCase) target(ctx context.Context, sid string) (*allocation.PollTarget, error) {
	a, err := uc.allocationRepo.GetBySID(ctx, sid)
	if err != nil {
		if stderrors.Is(err, allocation.ErrAllocationNotFound) {
			return nil, errors.NewNotFoundError("allocation not found", sid)
		}
		return nil, common.StoreError(uc.logger, "get allocation", err)
	}
	req, err := uc.requestRepo.GetByID(ctx, a.RequestID())
	if err != nil {
		return nil, common.StoreError(uc.logger, "get request", err)
	}
	owner, err := uc.clientRepo.GetByID(ctx, req.ClientID())
	if err != nil {
		return nil, common.StoreError(uc.logger, "get client", err)
	}
	return &allocation.PollTarget{
		Allocation:  a,
		RequestSID:  req.SID(),
		Service:     req.Service(),
		RecipientID: owner.PlatformID(),
	}, nil
}
