package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
)

func TestNumberRequestRepository_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	c := f.approvedClient(t, 1)
	r := f.request(t, c.ID(), "bet365")

	bySID, err := f.requests.GetBySID(t.Context(), r.SID())
	require.NoError(t, err)
	assert.Equal(t, r.ID(), bySID.ID())
	assert.Equal(t, vo.DecisionPending, bySID.Status())

	_, err = f.requests.GetBySID(t.Context(), "req_missing")
	assert.ErrorIs(t, err, numberrequest.ErrRequestNotFound)
}

func TestNumberRequestRepository_ConcurrentDecisionHasOneWinner(t *testing.T) {
	f := newFixture(t)
	c := f.approvedClient(t, 1)
	r := f.request(t, c.ID(), "sisal")

	const attempts = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins []vo.DecisionStatus
	)
	for i := 0; i < attempts; i++ {
		next := vo.DecisionApproved
		if i%2 == 1 {
			next = vo.DecisionDenied
		}
		wg.Add(1)
		go func(actor int64, next vo.DecisionStatus) {
			defer wg.Done()
			ok, err := f.requests.CompareAndSwapStatus(t.Context(), r.ID(), vo.DecisionPending, next, actor, time.Now().UTC())
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins = append(wins, next)
				mu.Unlock()
			}
		}(int64(i+1), next)
	}
	wg.Wait()

	require.Len(t, wins, 1)
	stored, err := f.requests.GetByID(t.Context(), r.ID())
	require.NoError(t, err)
	assert.Equal(t, wins[0], stored.Status())
	require.NotNil(t, stored.DecidedBy())
	require.NotNil(t, stored.DecidedAt())
}

func TestNumberRequestRepository_Listings(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	c := f.approvedClient(t, 1)

	pending := f.request(t, c.ID(), "bet365")
	approvedBound := f.request(t, c.ID(), "sisal")
	approvedUnbound := f.request(t, c.ID(), "SNAI")

	for _, r := range []*numberrequest.NumberRequest{approvedBound, approvedUnbound} {
		ok, err := f.requests.CompareAndSwapStatus(ctx, r.ID(), vo.DecisionPending, vo.DecisionApproved, 9, time.Now().UTC())
		require.NoError(t, err)
		require.True(t, ok)
	}
	a, err := allocation.NewAllocation(approvedBound.ID(), "bmi", allocation.Lease{ActivationID: "A1", Number: "+39"})
	require.NoError(t, err)
	_, err = f.allocs.Create(ctx, a)
	require.NoError(t, err)

	list, err := f.requests.ListByStatus(ctx, vo.DecisionPending)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.SID(), list[0].SID())

	unbound, err := f.requests.ListApprovedWithoutAllocation(ctx)
	require.NoError(t, err)
	require.Len(t, unbound, 1)
	assert.Equal(t, approvedUnbound.SID(), unbound[0].SID())

	mine, err := f.requests.ListByClient(ctx, c.ID())
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}
