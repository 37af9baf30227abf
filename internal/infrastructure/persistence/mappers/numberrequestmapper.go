package mappers

import (
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/persistence/models"
)

// NumberRequestMapper handles conversion between NumberRequest domain and model.
type NumberRequestMapper interface {
	ToModel(r *numberrequest.NumberRequest) *models.NumberRequestModel
	ToDomain(model *models.NumberRequestModel) *numberrequest.NumberRequest
	ToDomainList(models []models.NumberRequestModel) []*numberrequest.NumberRequest
}

type NumberRequestMapperImpl struct{}

func NewNumberRequestMapper() NumberRequestMapper {
	return &NumberRequestMapperImpl{}
}

func (m *NumberRequestMapperImpl) ToModel(r *numberrequest.NumberRequest) *models.NumberRequestModel {
	return &models.NumberRequestModel{
		ID:          r.ID(),
		SID:         r.SID(),
		ClientID:    r.ClientID(),
		Service:     r.Service(),
		Status:      r.Status().String(),
		RequestedAt: r.RequestedAt(),
		DecidedAt:   r.DecidedAt(),
		DecidedBy:   r.DecidedBy(),
	}
}

func (m *NumberRequestMapperImpl) ToDomain(model *models.NumberRequestModel) *numberrequest.NumberRequest {
	return numberrequest.ReconstructNumberRequest(
		model.ID,
		model.SID,
		model.ClientID,
		model.Service,
		vo.DecisionStatus(model.Status),
		model.RequestedAt,
		model.DecidedAt,
		model.DecidedBy,
	)
}

func (m *NumberRequestMapperImpl) ToDomainList(list []models.NumberRequestModel) []*numberrequest.NumberRequest {
	out := make([]*numberrequest.NumberRequest, 0, len(list))
	for i := range list {
		out = append(out, m.ToDomain(&list[i]))
	}
	return out
}
