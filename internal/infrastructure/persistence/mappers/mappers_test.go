package mappers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/persistence/models"
)

func TestAllocationMapper_NullActivation(t *testing.T) {
	m := NewAllocationMapper()
	a := allocation.ReconstructAllocation(1, "alc_a", 2, "+39", "ie", nil, allocation.PollWaiting, time.Now(), nil)

	model := m.ToModel(a)
	assert.Nil(t, model.ProviderActivationID)

	back := m.ToDomain(model)
	assert.False(t, back.HasActivation())
}

func TestAllocationMapper_ActivationRoundTrip(t *testing.T) {
	m := NewAllocationMapper()
	a, err := allocation.NewAllocation(2, "ie", allocation.Lease{ActivationID: "A1", Number: "+391234567"})
	require.NoError(t, err)

	model := m.ToModel(a)
	require.NotNil(t, model.ProviderActivationID)
	assert.Equal(t, "A1", *model.ProviderActivationID)
	assert.Equal(t, "waiting", model.PollState)
}

func TestNumberRequestMapper_List(t *testing.T) {
	m := NewNumberRequestMapper()
	list := m.ToDomainList([]models.NumberRequestModel{
		{ID: 1, SID: "req_a", ClientID: 1, Service: "bet365", Status: "pending"},
		{ID: 2, SID: "req_b", ClientID: 1, Service: "sisal", Status: "approved"},
	})
	require.Len(t, list, 2)
	assert.Equal(t, "req_b", list[1].SID())
	assert.True(t, list[1].Status().IsApproved())
}
