package usecases

import (
	"context"

	"github.com/RobertLogos32/bto-prova/internal/application/common"
	"github.com/RobertLogos32/bto-prova/internal/application/common/dto"
	"github.com/RobertLogos32/bto-prova/internal/domain/client"
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

type RegisterClientCommand struct {
	PlatformID int64
	Username   string
	FirstName  string
	LastName   string
}

type RegisterClientResult struct {
	Client  *dto.ClientDTO
	Created bool
}

// RegisterClientUseCase records a client on first contact.
type RegisterClientUseCase struct {
	clientRepo client.Repository
	logger     logger.Interface
}

func NewRegisterClientUseCase(clientRepo client.Repository, logger logger.Interface) *RegisterClientUseCase {
	return &RegisterClientUseCase{
		clientRepo: clientRepo,
		logger:     logger,
	}
}

// Execute upserts the client and returns its current state. The status of a
// known client is left untouched.
func (uc *RegisterClientUseCase) Execute(ctx context.Context, cmd RegisterClientCommand) (*RegisterClientResult, error) {
	c, err := client.NewClient(cmd.PlatformID, cmd.Username, cmd.FirstName, cmd.LastName)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	created, err := uc.clientRepo.Upsert(ctx, c)
	if err != nil {
		return nil, common.StoreError(uc.logger, "upsert client", err)
	}

	stored, err := uc.clientRepo.GetByPlatformID(ctx, cmd.PlatformID)
	if err != nil {
		return nil, common.StoreError(uc.logger, "get client", err)
	}

	if created {
		uc.logger.Infow("client registered",
			"platform_id", cmd.PlatformID,
			"username", cmd.Username,
		)
	}

	return &RegisterClientResult{Client: dto.FromClient(stored), Created: created}, nil
}
