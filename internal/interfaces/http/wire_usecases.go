package http

import (
	"fmt"

	activationUsecases "github.com/RobertLogos32/bto-prova/internal/application/activation/usecases"
	allocationUsecases "github.com/RobertLogos32/bto-prova/internal/application/allocation/usecases"
	lifecycleUsecases "github.com/RobertLogos32/bto-prova/internal/application/lifecycle/usecases"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/cache"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/provider/smsactivate"
)

// UseCases exposes the wired application layer, shared by the HTTP admin
// API, the Telegram front end and the provider CLI.
type UseCases struct {
	Operators *lifecycleUsecases.OperatorRoster
	Catalog   *numberrequest.Catalog
	Provider  *smsactivate.Client

	RegisterClient *lifecycleUsecases.RegisterClientUseCase
	DecideClient   *lifecycleUsecases.DecideClientUseCase
	SubmitRequest  *lifecycleUsecases.SubmitRequestUseCase
	DecideRequest  *lifecycleUsecases.DecideRequestUseCase
	ListPending    *lifecycleUsecases.ListPendingUseCase
	ClientOverview *lifecycleUsecases.ClientOverviewUseCase

	Allocate           *allocationUsecases.AllocateUseCase
	ApproveAndAllocate *allocationUsecases.ApproveAndAllocateUseCase
	RetryAllocation    *allocationUsecases.RetryAllocationUseCase
	ListUnallocated    *allocationUsecases.ListUnallocatedUseCase
	GetBalance         *allocationUsecases.GetBalanceUseCase

	PollActivations *activationUsecases.PollActivationsUseCase
	AwaitCode       *activationUsecases.AwaitCodeUseCase
	ExpireStale     *activationUsecases.ExpireStaleAllocationsUseCase
}

func (c *Container) initUseCases() error {
	catalog, unknown := numberrequest.DefaultCatalog().WithSingleCode(c.cfg.Activation.SingleCodeService)
	if len(unknown) > 0 {
		c.log.Warnw("ignoring unknown single code services", "services", unknown)
	}

	provider, err := smsactivate.NewClient(c.cfg.Provider, nil, c.log)
	if err != nil {
		return fmt.Errorf("failed to create provider client: %w", err)
	}

	roster := lifecycleUsecases.NewOperatorRoster(c.cfg.Telegram.AdminChatIDs)
	if len(roster.IDs()) == 0 {
		c.log.Warnw("no operators configured, every decision will be refused")
	}

	r := c.repos
	ucs := &UseCases{
		Operators: roster,
		Catalog:   catalog,
		Provider:  provider,

		RegisterClient: lifecycleUsecases.NewRegisterClientUseCase(r.clients, c.log),
		DecideClient:   lifecycleUsecases.NewDecideClientUseCase(r.clients, roster, c.log),
		SubmitRequest:  lifecycleUsecases.NewSubmitRequestUseCase(r.clients, r.requests, catalog, c.log),
		DecideRequest:  lifecycleUsecases.NewDecideRequestUseCase(r.requests, r.clients, roster, c.log),
		ListPending:    lifecycleUsecases.NewListPendingUseCase(r.clients, r.requests, roster, c.log),
		ClientOverview: lifecycleUsecases.NewClientOverviewUseCase(r.clients, r.allocations, c.log),
	}

	ucs.Allocate = allocationUsecases.NewAllocateUseCase(r.requests, r.allocations, provider, catalog, c.cfg.Provider.Country, c.log)
	if c.redis != nil {
		ucs.Allocate.SetLock(cache.NewAllocationLock(c.redis, c.log), c.cfg.Activation.AllocationLockTTL)
	}
	ucs.ApproveAndAllocate = allocationUsecases.NewApproveAndAllocateUseCase(ucs.DecideRequest, ucs.Allocate, c.log)
	ucs.RetryAllocation = allocationUsecases.NewRetryAllocationUseCase(ucs.Allocate, r.requests, r.clients, roster, c.log)
	ucs.ListUnallocated = allocationUsecases.NewListUnallocatedUseCase(r.requests, r.clients, roster, c.log)
	ucs.GetBalance = allocationUsecases.NewGetBalanceUseCase(provider, roster, c.log)

	c.ucs = ucs
	return nil
}
