package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lifecycle "github.com/RobertLogos32/bto-prova/internal/application/lifecycle/usecases"
	"github.com/RobertLogos32/bto-prova/internal/application/testutil"
	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
	apperrors "github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

const operatorID int64 = 900

type fixture struct {
	clients     *testutil.MockClientRepository
	requests    *testutil.MockNumberRequestRepository
	allocations *testutil.MockAllocationRepository
	provider    *testutil.MockProvider
	uc          *AllocateUseCase
	nextClient  int64
}

func newFixture() *fixture {
	f := &fixture{
		clients:  testutil.NewMockClientRepository(),
		requests: testutil.NewMockNumberRequestRepository(),
		provider: &testutil.MockProvider{},
	}
	f.allocations = testutil.NewMockAllocationRepository(f.requests, f.clients, testutil.NewMockDeliveredCodeRepository())
	f.uc = NewAllocateUseCase(f.requests, f.allocations, f.provider, numberrequest.DefaultCatalog(), 86, logger.NewNopLogger())
	return f
}

func (f *fixture) approvedRequest(service string) *numberrequest.NumberRequest {
	f.nextClient++
	c := f.clients.Add(f.nextClient, fmt.Sprintf("client%d", f.nextClient), vo.DecisionApproved)
	return f.requests.Add(c.ID(), service, vo.DecisionApproved)
}

func TestAllocate_Success(t *testing.T) {
	f := newFixture()
	var gotCode string
	var gotCountry int
	f.provider.RequestNumberFunc = func(ctx context.Context, serviceCode string, country int) (allocation.Lease, error) {
		gotCode, gotCountry = serviceCode, country
		return allocation.Lease{ActivationID: "A1", Number: "+391234567"}, nil
	}
	req := f.approvedRequest("bet365")

	res, err := f.uc.Execute(context.Background(), AllocateCommand{RequestSID: req.SID()})
	require.NoError(t, err)
	assert.False(t, res.Existing)
	assert.Equal(t, "A1", res.Allocation.ActivationID)
	assert.Equal(t, "+391234567", res.Allocation.Number)
	assert.Equal(t, "ie", res.Allocation.ServiceCode)
	assert.Equal(t, "waiting", res.Allocation.PollState)
	assert.Equal(t, req.SID(), res.Allocation.RequestSID)
	assert.Equal(t, "ie", gotCode)
	assert.Equal(t, 86, gotCountry)
}

func TestAllocate_IsIdempotent(t *testing.T) {
	f := newFixture()
	req := f.approvedRequest("sisal")
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, AllocateCommand{RequestSID: req.SID()})
	require.NoError(t, err)
	second, err := f.uc.Execute(ctx, AllocateCommand{RequestSID: req.SID()})
	require.NoError(t, err)

	assert.True(t, second.Existing)
	assert.Equal(t, first.Allocation.SID, second.Allocation.SID)
	assert.Equal(t, first.Allocation.ActivationID, second.Allocation.ActivationID)
	assert.Equal(t, 1, f.provider.RequestCalls())
	assert.Len(t, f.allocations.All(), 1)
}

func TestAllocate_Preconditions(t *testing.T) {
	f := newFixture()
	c := f.clients.Add(1, "client", vo.DecisionApproved)
	pending := f.requests.Add(c.ID(), "bet365", vo.DecisionPending)
	denied := f.requests.Add(c.ID(), "bet365", vo.DecisionDenied)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, AllocateCommand{RequestSID: "req_missing"})
	assert.True(t, apperrors.IsNotFoundError(err))

	_, err = f.uc.Execute(ctx, AllocateCommand{RequestSID: pending.SID()})
	assert.True(t, apperrors.IsConflictError(err))

	_, err = f.uc.Execute(ctx, AllocateCommand{RequestSID: denied.SID()})
	assert.True(t, apperrors.IsConflictError(err))

	assert.Zero(t, f.provider.RequestCalls())
}

func TestAllocate_ProviderDeclines(t *testing.T) {
	f := newFixture()
	f.provider.RequestNumberFunc = func(ctx context.Context, serviceCode string, country int) (allocation.Lease, error) {
		return allocation.Lease{}, errors.New("NO_NUMBERS")
	}
	req := f.approvedRequest("SNAI")

	_, err := f.uc.Execute(context.Background(), AllocateCommand{RequestSID: req.SID()})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailableError(err))
	assert.Empty(t, f.allocations.All())

	stored, _ := f.requests.GetBySID(context.Background(), req.SID())
	assert.Equal(t, vo.DecisionApproved, stored.Status())

	// a later retry goes back to the provider
	f.provider.RequestNumberFunc = nil
	res, err := f.uc.Execute(context.Background(), AllocateCommand{RequestSID: req.SID()})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Allocation.ActivationID)
	assert.Equal(t, 2, f.provider.RequestCalls())
}

func TestAllocate_EmptyLeaseIsUnavailable(t *testing.T) {
	f := newFixture()
	f.provider.RequestNumberFunc = func(ctx context.Context, serviceCode string, country int) (allocation.Lease, error) {
		return allocation.Lease{ActivationID: "A1"}, nil
	}
	req := f.approvedRequest("Betflag")

	_, err := f.uc.Execute(context.Background(), AllocateCommand{RequestSID: req.SID()})
	assert.True(t, apperrors.IsUnavailableError(err))
}

func TestAllocate_PersistFailure(t *testing.T) {
	f := newFixture()
	f.allocations.Err = errors.New("disk full")
	req := f.approvedRequest("bet365")

	_, err := f.uc.Execute(context.Background(), AllocateCommand{RequestSID: req.SID()})
	require.Error(t, err)
	assert.True(t, apperrors.IsStoreUnavailableError(err))
}

type stubLock struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	released int
}

func (l *stubLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		l.released++
	}, true, nil
}

func TestAllocate_Lock(t *testing.T) {
	t.Run("held elsewhere", func(t *testing.T) {
		f := newFixture()
		req := f.approvedRequest("bet365")
		lock := &stubLock{held: map[string]bool{"allocate:" + req.SID(): true}}
		f.uc.SetLock(lock, time.Minute)

		_, err := f.uc.Execute(context.Background(), AllocateCommand{RequestSID: req.SID()})
		assert.True(t, apperrors.IsConflictError(err))
		assert.Zero(t, f.provider.RequestCalls())
	})

	t.Run("released after allocation", func(t *testing.T) {
		f := newFixture()
		req := f.approvedRequest("bet365")
		lock := &stubLock{held: map[string]bool{}}
		f.uc.SetLock(lock, time.Minute)

		_, err := f.uc.Execute(context.Background(), AllocateCommand{RequestSID: req.SID()})
		require.NoError(t, err)
		assert.Equal(t, 1, lock.released)
	})

	t.Run("lock backend down", func(t *testing.T) {
		f := newFixture()
		req := f.approvedRequest("bet365")
		f.uc.SetLock(&stubLock{err: errors.New("redis down")}, time.Minute)

		_, err := f.uc.Execute(context.Background(), AllocateCommand{RequestSID: req.SID()})
		require.NoError(t, err)
		assert.Equal(t, 1, f.provider.RequestCalls())
	})
}

func TestAllocate_ConcurrentAttemptsYieldUniqueActivations(t *testing.T) {
	const (
		requests = 1000
		attempts = 10
	)
	f := newFixture()
	sids := make([]string, requests)
	for i := range sids {
		c := f.clients.Add(int64(i+1), fmt.Sprintf("client%d", i), vo.DecisionApproved)
		sids[i] = f.requests.Add(c.ID(), "bet365", vo.DecisionApproved).SID()
	}

	var wg sync.WaitGroup
	errs := make(chan error, requests*attempts)
	for i := 0; i < requests*attempts; i++ {
		wg.Add(1)
		go func(sid string) {
			defer wg.Done()
			if _, err := f.uc.Execute(context.Background(), AllocateCommand{RequestSID: sid}); err != nil {
				errs <- err
			}
		}(sids[i%requests])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("allocate: %v", err)
	}

	all := f.allocations.All()
	require.Len(t, all, requests)
	seen := make(map[string]bool, requests)
	perRequest := make(map[uint]bool, requests)
	for _, a := range all {
		assert.False(t, seen[a.ActivationID()], "duplicate activation %s", a.ActivationID())
		seen[a.ActivationID()] = true
		assert.False(t, perRequest[a.RequestID()], "request %d allocated twice", a.RequestID())
		perRequest[a.RequestID()] = true
	}
	assert.Equal(t, requests, f.provider.RequestCalls())
}

func TestApproveAndAllocate(t *testing.T) {
	f := newFixture()
	c := f.clients.Add(1, "client", vo.DecisionApproved)
	req := f.requests.Add(c.ID(), "bet365", vo.DecisionPending)
	decide := lifecycle.NewDecideRequestUseCase(f.requests, f.clients, lifecycle.NewOperatorRoster([]int64{operatorID}), logger.NewNopLogger())
	uc := NewApproveAndAllocateUseCase(decide, f.uc, logger.NewNopLogger())

	res, err := uc.Execute(context.Background(), req.SID(), operatorID)
	require.NoError(t, err)
	assert.NoError(t, res.AllocationErr)
	assert.Equal(t, "approved", res.Request.Status)
	require.NotNil(t, res.Allocation)
	assert.Equal(t, "ie", res.Allocation.ServiceCode)

	_, err = uc.Execute(context.Background(), req.SID(), operatorID)
	assert.True(t, apperrors.IsConflictError(err))
}

func TestApproveAndAllocate_ProviderFailureKeepsApproval(t *testing.T) {
	f := newFixture()
	f.provider.RequestNumberFunc = func(ctx context.Context, serviceCode string, country int) (allocation.Lease, error) {
		return allocation.Lease{}, errors.New("NO_BALANCE")
	}
	c := f.clients.Add(1, "client", vo.DecisionApproved)
	req := f.requests.Add(c.ID(), "sisal", vo.DecisionPending)
	roster := lifecycle.NewOperatorRoster([]int64{operatorID})
	decide := lifecycle.NewDecideRequestUseCase(f.requests, f.clients, roster, logger.NewNopLogger())
	uc := NewApproveAndAllocateUseCase(decide, f.uc, logger.NewNopLogger())

	res, err := uc.Execute(context.Background(), req.SID(), operatorID)
	require.NoError(t, err)
	assert.True(t, apperrors.IsUnavailableError(res.AllocationErr))
	assert.Nil(t, res.Allocation)

	unallocated, err := NewListUnallocatedUseCase(f.requests, f.clients, roster, logger.NewNopLogger()).Execute(context.Background(), operatorID)
	require.NoError(t, err)
	require.Len(t, unallocated, 1)
	assert.Equal(t, req.SID(), unallocated[0].SID)
}

func TestListUnallocated(t *testing.T) {
	f := newFixture()
	roster := lifecycle.NewOperatorRoster([]int64{operatorID})
	uc := NewListUnallocatedUseCase(f.requests, f.clients, roster, logger.NewNopLogger())
	allocated := f.approvedRequest("bet365")
	waiting := f.approvedRequest("sisal")
	_, err := f.uc.Execute(context.Background(), AllocateCommand{RequestSID: allocated.SID()})
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), 1)
	assert.True(t, apperrors.IsForbiddenError(err))

	list, err := uc.Execute(context.Background(), operatorID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, waiting.SID(), list[0].SID)
	assert.NotNil(t, list[0].Client)
}

func TestGetBalance(t *testing.T) {
	provider := &testutil.MockProvider{}
	uc := NewGetBalanceUseCase(provider, lifecycle.NewOperatorRoster([]int64{operatorID}), logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), 1)
	assert.True(t, apperrors.IsForbiddenError(err))

	provider.GetBalanceFunc = func(ctx context.Context) (string, error) { return "12.50", nil }
	balance, err := uc.Execute(context.Background(), operatorID)
	require.NoError(t, err)
	assert.Equal(t, "12.50", balance)

	provider.GetBalanceFunc = func(ctx context.Context) (string, error) { return "", errors.New("BAD_KEY") }
	_, err = uc.Execute(context.Background(), operatorID)
	assert.True(t, apperrors.IsUnavailableError(err))
}

func TestRetryAllocation(t *testing.T) {
	f := newFixture()
	roster := lifecycle.NewOperatorRoster([]int64{operatorID})
	uc := NewRetryAllocationUseCase(f.uc, f.requests, f.clients, roster, logger.NewNopLogger())
	req := f.approvedRequest("SNAI")
	ctx := context.Background()

	_, err := uc.Execute(ctx, req.SID(), 1)
	assert.True(t, apperrors.IsForbiddenError(err))
	assert.Zero(t, f.provider.RequestCalls())

	res, err := uc.Execute(ctx, req.SID(), operatorID)
	require.NoError(t, err)
	assert.False(t, res.Existing)
	require.NotNil(t, res.Request)
	require.NotNil(t, res.Request.Client)
	assert.Equal(t, f.nextClient, res.Request.Client.PlatformID)
	assert.Equal(t, "bqy", res.Allocation.ServiceCode)

	again, err := uc.Execute(ctx, req.SID(), operatorID)
	require.NoError(t, err)
	assert.True(t, again.Existing)
	assert.Equal(t, res.Allocation.ActivationID, again.Allocation.ActivationID)

	_, err = uc.Execute(ctx, "missing", operatorID)
	assert.True(t, apperrors.IsNotFoundError(err))
}
