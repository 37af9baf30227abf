package usecases

import (
	"context"

	"github.com/RobertLogos32/bto-prova/internal/application/common"
	"github.com/RobertLogos32/bto-prova/internal/application/common/dto"
	"github.com/RobertLogos32/bto-prova/internal/domain/client"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// ListPendingUseCase serves the operator queues.
type ListPendingUseCase struct {
	clientRepo  client.Repository
	requestRepo numberrequest.Repository
	operators   OperatorPolicy
	logger      logger.Interface
}

func NewListPendingUseCase(
	clientRepo client.Repository,
	requestRepo numberrequest.Repository,
	operators OperatorPolicy,
	logger logger.Interface,
) *ListPendingUseCase {
	return &ListPendingUseCase{
		clientRepo:  clientRepo,
		requestRepo: requestRepo,
		operators:   operators,
		logger:      logger,
	}
}

func (uc *ListPendingUseCase) Clients(ctx context.Context, actor int64) ([]*dto.ClientDTO, error) {
	if !uc.operators.IsOperator(actor) {
		return nil, errors.NewForbiddenError("operator privilege required")
	}
	list, err := uc.clientRepo.ListByStatus(ctx, vo.DecisionPending)
	if err != nil {
		return nil, common.StoreError(uc.logger, "list pending clients", err)
	}
	out := make([]*dto.ClientDTO, 0, len(list))
	for _, c := range list {
		out = append(out, dto.FromClient(c))
	}
	return out, nil
}

func (uc *ListPendingUseCase) Requests(ctx context.Context, actor int64) ([]*dto.RequestDTO, error) {
	if !uc.operators.IsOperator(actor) {
		return nil, errors.NewForbiddenError("operator privilege required")
	}
	list, err := uc.requestRepo.ListByStatus(ctx, vo.DecisionPending)
	if err != nil {
		return nil, common.StoreError(uc.logger, "list pending requests", err)
	}
	return withOwners(ctx, uc.clientRepo, uc.logger, list)
}

// withOwners attaches client metadata to requests with one batched lookup.
func withOwners(ctx context.Context, clientRepo client.Repository, log logger.Interface, list []*numberrequest.NumberRequest) ([]*dto.RequestDTO, error) {
	ids := make([]uint, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ClientID())
	}
	owners, err := clientRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, common.StoreError(log, "get request owners", err)
	}

	out := make([]*dto.RequestDTO, 0, len(list))
	for _, r := range list {
		out = append(out, dto.FromRequest(r, owners[r.ClientID()]))
	}
	return out, nil
}
