package usecases

import (
	"context"

	lifecycle "github.com/RobertLogos32/bto-prova/internal/application/lifecycle/usecases"
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// GetBalanceUseCase reports the provider account balance to operators.
type GetBalanceUseCase struct {
	provider  NumberProvider
	operators lifecycle.OperatorPolicy
	logger    logger.Interface
}

func NewGetBalanceUseCase(provider NumberProvider, operators lifecycle.OperatorPolicy, logger logger.Interface) *GetBalanceUseCase {
	return &GetBalanceUseCase{
		provider:  provider,
		operators: operators,
		logger:    logger,
	}
}

func (uc *GetBalanceUseCase) Execute(ctx context.Context, actor int64) (string, error) {
	if !uc.operators.IsOperator(actor) {
		return "", errors.NewForbiddenError("operator privilege required")
	}
	balance, err := uc.provider.GetBalance(ctx)
	if err != nil {
		uc.logger.Warnw("failed to read provider balance", "error", err)
		return "", errors.NewServiceUnavailableError("provider balance unavailable", err.Error())
	}
	return balance, nil
}
