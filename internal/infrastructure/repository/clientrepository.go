package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/RobertLogos32/bto-prova/internal/domain/client"
	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/persistence/mappers"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/persistence/models"
	"github.com/RobertLogos32/bto-prova/internal/shared/biztime"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// ClientRepository implements client.Repository
type ClientRepository struct {
	db     *gorm.DB
	mapper mappers.ClientMapper
	logger logger.Interface
}

func NewClientRepository(db *gorm.DB, logger logger.Interface) *ClientRepository {
	return &ClientRepository{
		db:     db,
		mapper: mappers.NewClientMapper(),
		logger: logger,
	}
}

func (r *ClientRepository) GetByID(ctx context.Context, id uint) (*client.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, client.ErrClientNotFound
		}
		return nil, err
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *ClientRepository) GetByPlatformID(ctx context.Context, platformID int64) (*client.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).Where("platform_id = ?", platformID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, client.ErrClientNotFound
		}
		return nil, err
	}
	return r.mapper.ToDomain(&model), nil
}

// Upsert inserts on first contact, otherwise refreshes display metadata only.
func (r *ClientRepository) Upsert(ctx context.Context, c *client.Client) (bool, error) {
	model := r.mapper.ToModel(c)
	model.ID = 0

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "platform_id"}}, DoNothing: true}).
		Create(model)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert client: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		c.SetID(model.ID)
		return true, nil
	}

	err := r.db.WithContext(ctx).
		Model(&models.ClientModel{}).
		Where("platform_id = ?", c.PlatformID()).
		Updates(map[string]interface{}{
			"username":   c.Username(),
			"first_name": c.FirstName(),
			"last_name":  c.LastName(),
			"updated_at": biztime.NowUTC(),
		}).Error
	if err != nil {
		return false, fmt.Errorf("failed to refresh client: %w", err)
	}

	var existing models.ClientModel
	if err := r.db.WithContext(ctx).Select("id").Where("platform_id = ?", c.PlatformID()).First(&existing).Error; err != nil {
		return false, fmt.Errorf("failed to load client: %w", err)
	}
	c.SetID(existing.ID)
	return false, nil
}

func (r *ClientRepository) CompareAndSwapStatus(ctx context.Context, id uint, expected, next vo.DecisionStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ClientModel{}).
		Where("id = ? AND status = ?", id, expected.String()).
		Updates(map[string]interface{}{
			"status":     next.String(),
			"updated_at": biztime.NowUTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update client status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *ClientRepository) ListByStatus(ctx context.Context, status vo.DecisionStatus) ([]*client.Client, error) {
	var list []models.ClientModel
	if err := r.db.WithContext(ctx).Where("status = ?", status.String()).Order("created_at ASC, id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	out := make([]*client.Client, 0, len(list))
	for i := range list {
		out = append(out, r.mapper.ToDomain(&list[i]))
	}
	return out, nil
}

func (r *ClientRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*client.Client, error) {
	out := make(map[uint]*client.Client, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []models.ClientModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].ID] = r.mapper.ToDomain(&list[i])
	}
	return out, nil
}
