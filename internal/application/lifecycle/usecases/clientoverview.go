package usecases

import (
	"context"
	stderrors "errors"
	"sort"

	"github.com/RobertLogos32/bto-prova/internal/application/common"
	"github.com/RobertLogos32/bto-prova/internal/application/common/dto"
	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/domain/client"
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

type ClientOverviewResult struct {
	Client      *dto.ClientDTO
	Allocations []*dto.AllocationDTO
}

// ClientOverviewUseCase shows a client its status and the numbers it holds.
type ClientOverviewUseCase struct {
	clientRepo     client.Repository
	allocationRepo allocation.Repository
	logger         logger.Interface
}

func NewClientOverviewUseCase(clientRepo client.Repository, allocationRepo allocation.Repository, logger logger.Interface) *ClientOverviewUseCase {
	return &ClientOverviewUseCase{
		clientRepo:     clientRepo,
		allocationRepo: allocationRepo,
		logger:         logger,
	}
}

// Execute returns the overview with allocations newest first.
func (uc *ClientOverviewUseCase) Execute(ctx context.Context, platformID int64) (*ClientOverviewResult, error) {
	c, err := uc.clientRepo.GetByPlatformID(ctx, platformID)
	if err != nil {
		if stderrors.Is(err, client.ErrClientNotFound) {
			return nil, errors.NewNotFoundError("client not found")
		}
		return nil, common.StoreError(uc.logger, "get client", err)
	}

	holdings, err := uc.allocationRepo.ListByClient(ctx, c.ID())
	if err != nil {
		return nil, common.StoreError(uc.logger, "list client allocations", err)
	}
	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].Allocation.AssignedAt().After(holdings[j].Allocation.AssignedAt())
	})

	out := &ClientOverviewResult{
		Client:      dto.FromClient(c),
		Allocations: make([]*dto.AllocationDTO, 0, len(holdings)),
	}
	for _, h := range holdings {
		out.Allocations = append(out.Allocations, dto.FromHolding(h))
	}
	return out, nil
}
