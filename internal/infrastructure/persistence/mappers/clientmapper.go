package mappers

import (
	"github.com/RobertLogos32/bto-prova/internal/domain/client"
	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/persistence/models"
)

// ClientMapper handles conversion between Client domain and model.
type ClientMapper interface {
	ToModel(c *client.Client) *models.ClientModel
	ToDomain(model *models.ClientModel) *client.Client
}

type ClientMapperImpl struct{}

func NewClientMapper() ClientMapper {
	return &ClientMapperImpl{}
}

func (m *ClientMapperImpl) ToModel(c *client.Client) *models.ClientModel {
	return &models.ClientModel{
		ID:         c.ID(),
		PlatformID: c.PlatformID(),
		Username:   c.Username(),
		FirstName:  c.FirstName(),
		LastName:   c.LastName(),
		Status:     c.Status().String(),
		CreatedAt:  c.CreatedAt(),
		UpdatedAt:  c.UpdatedAt(),
	}
}

func (m *ClientMapperImpl) ToDomain(model *models.ClientModel) *client.Client {
	return client.ReconstructClient(
		model.ID,
		model.PlatformID,
		model.Username,
		model.FirstName,
		model.LastName,
		vo.DecisionStatus(model.Status),
		model.CreatedAt,
		model.UpdatedAt,
	)
}
