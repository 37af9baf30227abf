package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/persistence/mappers"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/persistence/models"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// DeliveredCodeRepository implements allocation.DeliveredCodeRepository
type DeliveredCodeRepository struct {
	db     *gorm.DB
	mapper mappers.AllocationMapper
	logger logger.Interface
}

func NewDeliveredCodeRepository(db *gorm.DB, logger logger.Interface) *DeliveredCodeRepository {
	return &DeliveredCodeRepository{
		db:     db,
		mapper: mappers.NewAllocationMapper(),
		logger: logger,
	}
}

// Append is idempotent on (allocation_id, content_hash).
func (r *DeliveredCodeRepository) Append(ctx context.Context, code *allocation.DeliveredCode) (*allocation.DeliveredCode, bool, error) {
	model := r.mapper.CodeToModel(code)
	model.ID = 0

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "allocation_id"}, {Name: "content_hash"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to append delivered code: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		code.SetID(model.ID)
		return code, true, nil
	}

	var existing models.DeliveredCodeModel
	err := r.db.WithContext(ctx).
		Where("allocation_id = ? AND content_hash = ?", code.AllocationID(), code.ContentHash()).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("delivered code insert skipped but no row found for allocation %d", code.AllocationID())
		}
		return nil, false, err
	}
	return r.mapper.CodeToDomain(&existing), false, nil
}

func (r *DeliveredCodeRepository) ClaimRelay(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DeliveredCodeModel{}).
		Where("id = ? AND is_delivered = ?", id, false).
		Update("is_delivered", true)
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim relay of code %d: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *DeliveredCodeRepository) ReleaseRelay(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveredCodeModel{}).
		Where("id = ?", id).
		Update("is_delivered", false).Error
}

func (r *DeliveredCodeRepository) ListByAllocation(ctx context.Context, allocationID uint) ([]*allocation.DeliveredCode, error) {
	var list []models.DeliveredCodeModel
	if err := r.db.WithContext(ctx).
		Where("allocation_id = ?", allocationID).
		Order("received_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	out := make([]*allocation.DeliveredCode, 0, len(list))
	for i := range list {
		out = append(out, r.mapper.CodeToDomain(&list[i]))
	}
	return out, nil
}
