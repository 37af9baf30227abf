package usecases

import (
	"context"
	stderrors "errors"

	"github.com/RobertLogos32/bto-prova/internal/application/common"
	"github.com/RobertLogos32/bto-prova/internal/application/common/dto"
	"github.com/RobertLogos32/bto-prova/internal/domain/client"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

type SubmitRequestCommand struct {
	PlatformID int64
	Service    string
}

type SubmitRequestResult struct {
	Request *dto.RequestDTO
}

// SubmitRequestUseCase records a pending number request for an approved client.
type SubmitRequestUseCase struct {
	clientRepo  client.Repository
	requestRepo numberrequest.Repository
	catalog     *numberrequest.Catalog
	logger      logger.Interface
}

func NewSubmitRequestUseCase(
	clientRepo client.Repository,
	requestRepo numberrequest.Repository,
	catalog *numberrequest.Catalog,
	logger logger.Interface,
) *SubmitRequestUseCase {
	return &SubmitRequestUseCase{
		clientRepo:  clientRepo,
		requestRepo: requestRepo,
		catalog:     catalog,
		logger:      logger,
	}
}

func (uc *SubmitRequestUseCase) Execute(ctx context.Context, cmd SubmitRequestCommand) (*SubmitRequestResult, error) {
	def, ok := uc.catalog.Lookup(cmd.Service)
	if !ok {
		return nil, errors.NewValidationError("unknown service", cmd.Service)
	}

	c, err := uc.clientRepo.GetByPlatformID(ctx, cmd.PlatformID)
	if err != nil {
		if stderrors.Is(err, client.ErrClientNotFound) {
			return nil, errors.NewForbiddenError("client is not registered")
		}
		return nil, common.StoreError(uc.logger, "get client", err)
	}
	if !c.IsApproved() {
		return nil, errors.NewForbiddenError("client is not approved", c.Status().String())
	}

	req, err := numberrequest.NewNumberRequest(c.ID(), def.Name)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := uc.requestRepo.Create(ctx, req); err != nil {
		return nil, common.StoreError(uc.logger, "create request", err)
	}

	uc.logger.Infow("number request submitted",
		"request_sid", req.SID(),
		"platform_id", cmd.PlatformID,
		"service", def.Name,
	)
	return &SubmitRequestResult{Request: dto.FromRequest(req, c)}, nil
}
