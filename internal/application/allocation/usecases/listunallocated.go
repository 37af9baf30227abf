package usecases

import (
	"context"

	"github.com/RobertLogos32/bto-prova/internal/application/common"
	"github.com/RobertLogos32/bto-prova/internal/application/common/dto"
	lifecycle "github.com/RobertLogos32/bto-prova/internal/application/lifecycle/usecases"
	"github.com/RobertLogos32/bto-prova/internal/domain/client"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// ListUnallocatedUseCase lists approved requests that still have no number,
// the candidates for a retried allocation.
type ListUnallocatedUseCase struct {
	requestRepo numberrequest.Repository
	clientRepo  client.Repository
	operators   lifecycle.OperatorPolicy
	logger      logger.Interface
}

func NewListUnallocatedUseCase(
	requestRepo numberrequest.Repository,
	clientRepo client.Repository,
	operators lifecycle.OperatorPolicy,
	logger logger.Interface,
) *ListUnallocatedUseCase {
	return &ListUnallocatedUseCase{
		requestRepo: requestRepo,
		clientRepo:  clientRepo,
		operators:   operators,
		logger:      logger,
	}
}

func (uc *ListUnallocatedUseCase) Execute(ctx context.Context, actor int64) ([]*dto.RequestDTO, error) {
	if !uc.operators.IsOperator(actor) {
		return nil, errors.NewForbiddenError("operator privilege required")
	}

	list, err := uc.requestRepo.ListApprovedWithoutAllocation(ctx)
	if err != nil {
		return nil, common.StoreError(uc.logger, "list unallocated requests", err)
	}

	ids := make([]uint, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ClientID())
	}
	owners, err := uc.clientRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, common.StoreError(uc.logger, "get request owners", err)
	}

	out := make([]*dto.RequestDTO, 0, len(list))
	for _, r := range list {
		out = append(out, dto.FromRequest(r, owners[r.ClientID()]))
	}
	return out, nil
}
