package usecases

import (
	"context"

	"github.com/google/uuid"

	"github.com/RobertLogos32/bto-prova/internal/application/common"
	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// PollCycleResult summarizes one pass over the pollable allocations.
type PollCycleResult struct {
	CycleID string
	Polled  int
	Counts  map[Outcome]int
}

// Items returns the counts keyed by outcome name.
func (r *PollCycleResult) Items() map[string]int {
	out := make(map[string]int, len(r.Counts))
	for k, v := range r.Counts {
		out[string(k)] = v
	}
	return out
}

// PollActivationsUseCase runs one poll cycle.
type PollActivationsUseCase struct {
	allocationRepo allocation.Repository
	processor      *itemProcessor
	logger         logger.Interface
}

func NewPollActivationsUseCase(
	allocationRepo allocation.Repository,
	codeRepo allocation.DeliveredCodeRepository,
	provider StatusProvider,
	notifier RelayNotifier,
	catalog *numberrequest.Catalog,
	logger logger.Interface,
) *PollActivationsUseCase {
	return &PollActivationsUseCase{
		allocationRepo: allocationRepo,
		processor: &itemProcessor{
			allocationRepo: allocationRepo,
			codeRepo:       codeRepo,
			provider:       provider,
			notifier:       notifier,
			catalog:        catalog,
			logger:         logger,
		},
		logger: logger,
	}
}

// Execute polls every pollable allocation once. Only a failure to list the
// allocations fails the cycle; item failures are counted and retried by the
// next cycle.
func (uc *PollActivationsUseCase) Execute(ctx context.Context) (*PollCycleResult, error) {
	result := &PollCycleResult{
		CycleID: uuid.NewString(),
		Counts:  make(map[Outcome]int),
	}
	log := uc.logger.With("cycle_id", result.CycleID)

	targets, err := uc.allocationRepo.ListPollable(ctx)
	if err != nil {
		return result, common.StoreError(log, "list pollable allocations", err)
	}

	for _, t := range targets {
		outcome, _, err := uc.processor.process(ctx, t)
		result.Polled++
		result.Counts[outcome]++
		if err != nil {
			log.Warnw("poll item failed",
				"allocation_sid", t.Allocation.SID(),
				"activation_id", t.Allocation.ActivationID(),
				"error", err,
			)
		}
	}

	if result.Polled > 0 {
		log.Debugw("poll cycle finished",
			"polled", result.Polled,
			"delivered", result.Counts[OutcomeDelivered],
			"ended", result.Counts[OutcomeEnded],
			"errors", result.Counts[OutcomeError],
		)
	}
	return result, nil
}
