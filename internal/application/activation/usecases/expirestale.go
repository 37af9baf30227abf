package usecases

import (
	"context"
	"time"

	"github.com/RobertLogos32/bto-prova/internal/application/common"
	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/shared/biztime"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// ExpireStaleAllocationsUseCase ends allocations that stayed waiting past
// their lifetime. Activations that never received a code are cancelled at
// the provider, the others are completed.
type ExpireStaleAllocationsUseCase struct {
	allocationRepo allocation.Repository
	codeRepo       allocation.DeliveredCodeRepository
	provider       StatusProvider
	maxLifetime    time.Duration
	logger         logger.Interface
}

func NewExpireStaleAllocationsUseCase(
	allocationRepo allocation.Repository,
	codeRepo allocation.DeliveredCodeRepository,
	provider StatusProvider,
	maxLifetime time.Duration,
	logger logger.Interface,
) *ExpireStaleAllocationsUseCase {
	return &ExpireStaleAllocationsUseCase{
		allocationRepo: allocationRepo,
		codeRepo:       codeRepo,
		provider:       provider,
		maxLifetime:    maxLifetime,
		logger:         logger,
	}
}

// Execute returns the number of allocations it expired.
func (uc *ExpireStaleAllocationsUseCase) Execute(ctx context.Context) (int, error) {
	now := biztime.NowUTC()
	stale, err := uc.allocationRepo.ListWaitingAssignedBefore(ctx, now.Add(-uc.maxLifetime))
	if err != nil {
		return 0, common.StoreError(uc.logger, "list stale allocations", err)
	}

	expired := 0
	for _, a := range stale {
		won, err := uc.allocationRepo.MarkTerminal(ctx, a.ID(), allocation.PollExpired, now)
		if err != nil {
			uc.logger.Warnw("failed to expire allocation", "allocation_sid", a.SID(), "error", err)
			continue
		}
		if !won {
			continue
		}
		expired++

		if !a.HasActivation() {
			continue
		}
		codes, err := uc.codeRepo.ListByAllocation(ctx, a.ID())
		if err != nil {
			uc.logger.Warnw("failed to list codes of expired allocation", "allocation_sid", a.SID(), "error", err)
			continue
		}
		uc.release(ctx, a, codes)
	}

	if expired > 0 {
		uc.logger.Infow("stale allocations expired", "count", expired, "max_lifetime", uc.maxLifetime)
	}
	return expired, nil
}

func (uc *ExpireStaleAllocationsUseCase) release(ctx context.Context, a *allocation.Allocation, codes []*allocation.DeliveredCode) {
	var err error
	if len(codes) == 0 {
		err = uc.provider.Cancel(ctx, a.ActivationID())
	} else {
		err = uc.provider.Acknowledge(ctx, a.ActivationID(), codes[len(codes)-1].Content())
	}
	if err != nil {
		uc.logger.Warnw("failed to release expired activation",
			"allocation_sid", a.SID(),
			"activation_id", a.ActivationID(),
			"codes", len(codes),
			"error", err,
		)
	}
}
