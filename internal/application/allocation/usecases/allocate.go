package usecases

import (
	"context"
	stderrors "errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/RobertLogos32/bto-prova/internal/application/common"
	"github.com/RobertLogos32/bto-prova/internal/application/common/dto"
	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

const defaultLockTTL = 30 * time.Second

type AllocateCommand struct {
	RequestSID string
}

type AllocateResult struct {
	Allocation *dto.AllocationDTO
	// Existing is true when the request was already allocated and the
	// provider was not called.
	Existing bool
}

// AllocateUseCase binds an approved request to a provider number. Calls for
// the same request are collapsed in-process with singleflight and, when a
// lock is configured, across processes.
type AllocateUseCase struct {
	requestRepo    numberrequest.Repository
	allocationRepo allocation.Repository
	provider       NumberProvider
	catalog        *numberrequest.Catalog
	country        int
	lock           AllocationLock
	lockTTL        time.Duration
	group          singleflight.Group
	logger         logger.Interface
}

func NewAllocateUseCase(
	requestRepo numberrequest.Repository,
	allocationRepo allocation.Repository,
	provider NumberProvider,
	catalog *numberrequest.Catalog,
	country int,
	logger logger.Interface,
) *AllocateUseCase {
	return &AllocateUseCase{
		requestRepo:    requestRepo,
		allocationRepo: allocationRepo,
		provider:       provider,
		catalog:        catalog,
		country:        country,
		lockTTL:        defaultLockTTL,
		logger:         logger,
	}
}

// SetLock installs a cross-process guard. A nil lock disables it.
func (uc *AllocateUseCase) SetLock(lock AllocationLock, ttl time.Duration) {
	uc.lock = lock
	if ttl > 0 {
		uc.lockTTL = ttl
	}
}

func (uc *AllocateUseCase) Execute(ctx context.Context, cmd AllocateCommand) (*AllocateResult, error) {
	req, err := uc.requestRepo.GetBySID(ctx, cmd.RequestSID)
	if err != nil {
		if stderrors.Is(err, numberrequest.ErrRequestNotFound) {
			return nil, errors.NewNotFoundError("request not found", cmd.RequestSID)
		}
		return nil, common.StoreError(uc.logger, "get request", err)
	}
	if !req.Status().IsApproved() {
		return nil, errors.NewConflictError("request is not approved", req.Status().String())
	}

	v, err, _ := uc.group.Do(req.SID(), func() (interface{}, error) {
		return uc.allocateOnce(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*AllocateResult), nil
}

func (uc *AllocateUseCase) allocateOnce(ctx context.Context, req *numberrequest.NumberRequest) (*AllocateResult, error) {
	if existing, err := uc.existing(ctx, req.ID()); existing != nil || err != nil {
		return existing, err
	}

	if uc.lock != nil {
		release, acquired, err := uc.lock.Acquire(ctx, "allocate:"+req.SID(), uc.lockTTL)
		if err != nil {
			// The store still rejects a second row per request.
			uc.logger.Warnw("allocation lock unavailable, continuing without it",
				"request_sid", req.SID(),
				"error", err,
			)
		} else if !acquired {
			return nil, errors.NewConflictError("allocation already in progress", req.SID())
		} else {
			defer release()
			if existing, err := uc.existing(ctx, req.ID()); existing != nil || err != nil {
				return existing, err
			}
		}
	}

	def, ok := uc.catalog.Lookup(req.Service())
	if !ok {
		return nil, errors.NewValidationError("unknown service", req.Service())
	}

	lease, err := uc.provider.RequestNumber(ctx, def.Code, uc.country)
	if err != nil {
		uc.logger.Warnw("provider did not lease a number",
			"request_sid", req.SID(),
			"service_code", def.Code,
			"error", err,
		)
		return nil, errors.NewServiceUnavailableError("no number available from provider", err.Error())
	}

	a, err := allocation.NewAllocation(req.ID(), def.Code, lease)
	if err != nil {
		uc.logger.Warnw("provider returned an unusable lease", "request_sid", req.SID(), "error", err)
		return nil, errors.NewServiceUnavailableError("no number available from provider", err.Error())
	}

	stored, err := uc.allocationRepo.Create(ctx, a)
	if err != nil {
		uc.logger.Errorw("allocation not persisted, provider activation is orphaned",
			"request_sid", req.SID(),
			"activation_id", lease.ActivationID,
			"number", lease.Number,
			"error", err,
		)
		return nil, common.StoreError(uc.logger, "create allocation", err)
	}

	if stored.RequestID() != req.ID() {
		// the lease belongs to the other row, so it is not cancelled here
		uc.logger.Errorw("provider reissued an activation bound to another request",
			"request_sid", req.SID(),
			"activation_id", lease.ActivationID,
			"bound_allocation_sid", stored.SID(),
		)
		return nil, errors.NewServiceUnavailableError("provider returned an activation already in use", lease.ActivationID)
	}

	if stored.ActivationID() != lease.ActivationID {
		uc.logger.Warnw("request was allocated concurrently, releasing duplicate lease",
			"request_sid", req.SID(),
			"kept_activation_id", stored.ActivationID(),
			"released_activation_id", lease.ActivationID,
		)
		if err := uc.provider.Cancel(context.WithoutCancel(ctx), lease.ActivationID); err != nil {
			uc.logger.Errorw("failed to release duplicate lease", "activation_id", lease.ActivationID, "error", err)
		}
		return &AllocateResult{Allocation: fromRequest(stored, req), Existing: true}, nil
	}

	uc.logger.Infow("number allocated",
		"request_sid", req.SID(),
		"allocation_sid", stored.SID(),
		"activation_id", stored.ActivationID(),
		"service_code", def.Code,
	)
	return &AllocateResult{Allocation: fromRequest(stored, req)}, nil
}

func (uc *AllocateUseCase) existing(ctx context.Context, requestID uint) (*AllocateResult, error) {
	a, err := uc.allocationRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		if stderrors.Is(err, allocation.ErrAllocationNotFound) {
			return nil, nil
		}
		return nil, common.StoreError(uc.logger, "get allocation", err)
	}
	req, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, common.StoreError(uc.logger, "get request", err)
	}
	return &AllocateResult{Allocation: fromRequest(a, req), Existing: true}, nil
}

func fromRequest(a *allocation.Allocation, req *numberrequest.NumberRequest) *dto.AllocationDTO {
	out := dto.FromAllocation(a)
	out.RequestSID = req.SID()
	out.Service = req.Service()
	return out
}
