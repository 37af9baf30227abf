package mappers

import (
	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/persistence/models"
)

// AllocationMapper handles conversion between Allocation and DeliveredCode domain and model.
type AllocationMapper interface {
	ToModel(a *allocation.Allocation) *models.AllocationModel
	ToDomain(model *models.AllocationModel) *allocation.Allocation
	CodeToModel(c *allocation.DeliveredCode) *models.DeliveredCodeModel
	CodeToDomain(model *models.DeliveredCodeModel) *allocation.DeliveredCode
}

type AllocationMapperImpl struct{}

func NewAllocationMapper() AllocationMapper {
	return &AllocationMapperImpl{}
}

func (m *AllocationMapperImpl) ToModel(a *allocation.Allocation) *models.AllocationModel {
	var activationID *string
	if a.HasActivation() {
		v := a.ActivationID()
		activationID = &v
	}
	return &models.AllocationModel{
		ID:                   a.ID(),
		SID:                  a.SID(),
		RequestID:            a.RequestID(),
		Number:               a.Number(),
		ServiceCode:          a.ServiceCode(),
		ProviderActivationID: activationID,
		PollState:            a.PollState().String(),
		AssignedAt:           a.AssignedAt(),
		TerminalAt:           a.TerminalAt(),
	}
}

func (m *AllocationMapperImpl) ToDomain(model *models.AllocationModel) *allocation.Allocation {
	return allocation.ReconstructAllocation(
		model.ID,
		model.SID,
		model.RequestID,
		model.Number,
		model.ServiceCode,
		model.ProviderActivationID,
		allocation.PollState(model.PollState),
		model.AssignedAt,
		model.TerminalAt,
	)
}

func (m *AllocationMapperImpl) CodeToModel(c *allocation.DeliveredCode) *models.DeliveredCodeModel {
	return &models.DeliveredCodeModel{
		ID:           c.ID(),
		AllocationID: c.AllocationID(),
		Content:      c.Content(),
		ContentHash:  c.ContentHash(),
		ReceivedAt:   c.ReceivedAt(),
		IsDelivered:  c.Delivered(),
	}
}

func (m *AllocationMapperImpl) CodeToDomain(model *models.DeliveredCodeModel) *allocation.DeliveredCode {
	return allocation.ReconstructDeliveredCode(
		model.ID,
		model.AllocationID,
		model.Content,
		model.ContentHash,
		model.ReceivedAt,
		model.IsDelivered,
	)
}
