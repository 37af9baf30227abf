package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/persistence/mappers"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/persistence/models"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// NumberRequestRepository implements numberrequest.Repository
type NumberRequestRepository struct {
	db     *gorm.DB
	mapper mappers.NumberRequestMapper
	logger logger.Interface
}

func NewNumberRequestRepository(db *gorm.DB, logger logger.Interface) *NumberRequestRepository {
	return &NumberRequestRepository{
		db:     db,
		mapper: mappers.NewNumberRequestMapper(),
		logger: logger,
	}
}

func (r *NumberRequestRepository) Create(ctx context.Context, req *numberrequest.NumberRequest) error {
	model := r.mapper.ToModel(req)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create number request: %w", err)
	}
	req.SetID(model.ID)
	return nil
}

func (r *NumberRequestRepository) GetByID(ctx context.Context, id uint) (*numberrequest.NumberRequest, error) {
	var model models.NumberRequestModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, numberrequest.ErrRequestNotFound
		}
		return nil, err
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *NumberRequestRepository) GetBySID(ctx context.Context, sid string) (*numberrequest.NumberRequest, error) {
	var model models.NumberRequestModel
	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, numberrequest.ErrRequestNotFound
		}
		return nil, err
	}
	return r.mapper.ToDomain(&model), nil
}

// CompareAndSwapStatus is the only write path for a decision.
func (r *NumberRequestRepository) CompareAndSwapStatus(
	ctx context.Context,
	id uint,
	expected, next vo.DecisionStatus,
	actor int64,
	at time.Time,
) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.NumberRequestModel{}).
		Where("id = ? AND status = ?", id, expected.String()).
		Updates(map[string]interface{}{
			"status":     next.String(),
			"decided_at": at,
			"decided_by": actor,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update request status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *NumberRequestRepository) ListByStatus(ctx context.Context, status vo.DecisionStatus) ([]*numberrequest.NumberRequest, error) {
	var list []models.NumberRequestModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", status.String()).
		Order("requested_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToDomainList(list), nil
}

func (r *NumberRequestRepository) ListByClient(ctx context.Context, clientID uint) ([]*numberrequest.NumberRequest, error) {
	var list []models.NumberRequestModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("requested_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToDomainList(list), nil
}

func (r *NumberRequestRepository) ListApprovedWithoutAllocation(ctx context.Context) ([]*numberrequest.NumberRequest, error) {
	var list []models.NumberRequestModel
	if err := r.db.WithContext(ctx).
		Table("number_requests").
		Select("number_requests.*").
		Joins("LEFT JOIN allocations ON allocations.request_id = number_requests.id").
		Where("number_requests.status = ? AND allocations.id IS NULL", vo.DecisionApproved.String()).
		Order("number_requests.requested_at ASC, number_requests.id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToDomainList(list), nil
}
