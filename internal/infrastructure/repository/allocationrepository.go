package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/persistence/mappers"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/persistence/models"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// AllocationRepository implements allocation.Repository
type AllocationRepository struct {
	db     *gorm.DB
	mapper mappers.AllocationMapper
	logger logger.Interface
}

func NewAllocationRepository(db *gorm.DB, logger logger.Interface) *AllocationRepository {
	return &AllocationRepository{
		db:     db,
		mapper: mappers.NewAllocationMapper(),
		logger: logger,
	}
}

type pollTargetRow struct {
	models.AllocationModel `gorm:"embedded"`
	RequestSID             string `gorm:"column:request_sid"`
	Service                string `gorm:"column:service"`
	RecipientID            int64  `gorm:"column:recipient_id"`
}

type holdingRow struct {
	models.AllocationModel `gorm:"embedded"`
	RequestSID             string `gorm:"column:request_sid"`
	Service                string `gorm:"column:service"`
	CodeCount              int    `gorm:"column:code_count"`
}

// Create inserts with ON CONFLICT DO NOTHING. When a row for the same request
// or activation id already exists, that row is returned instead.
func (r *AllocationRepository) Create(ctx context.Context, a *allocation.Allocation) (*allocation.Allocation, error) {
	model := r.mapper.ToModel(a)
	model.ID = 0

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create allocation: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		a.SetID(model.ID)
		return a, nil
	}

	if a.HasActivation() {
		existing, err := r.GetByActivationID(ctx, a.ActivationID())
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, allocation.ErrAllocationNotFound) {
			return nil, err
		}
	}
	existing, err := r.GetByRequestID(ctx, a.RequestID())
	if err != nil {
		return nil, fmt.Errorf("allocation insert skipped but no conflicting row found: %w", err)
	}
	r.logger.Debugw("allocation already persisted",
		"request_id", a.RequestID(),
		"allocation_sid", existing.SID(),
	)
	return existing, nil
}

func (r *AllocationRepository) getWhere(ctx context.Context, query string, arg interface{}) (*allocation.Allocation, error) {
	var model models.AllocationModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, allocation.ErrAllocationNotFound
		}
		return nil, err
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *AllocationRepository) GetByID(ctx context.Context, id uint) (*allocation.Allocation, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *AllocationRepository) GetBySID(ctx context.Context, sid string) (*allocation.Allocation, error) {
	return r.getWhere(ctx, "sid = ?", sid)
}

func (r *AllocationRepository) GetByRequestID(ctx context.Context, requestID uint) (*allocation.Allocation, error) {
	return r.getWhere(ctx, "request_id = ?", requestID)
}

func (r *AllocationRepository) GetByActivationID(ctx context.Context, activationID string) (*allocation.Allocation, error) {
	return r.getWhere(ctx, "provider_activation_id = ?", activationID)
}

func (r *AllocationRepository) ListPollable(ctx context.Context) ([]*allocation.PollTarget, error) {
	var rows []pollTargetRow
	err := r.db.WithContext(ctx).
		Table("allocations").
		Select("allocations.*, number_requests.sid AS request_sid, number_requests.service AS service, clients.platform_id AS recipient_id").
		Joins("JOIN number_requests ON number_requests.id = allocations.request_id").
		Joins("JOIN clients ON clients.id = number_requests.client_id").
		Where("allocations.provider_activation_id IS NOT NULL AND allocations.poll_state = ?", allocation.PollWaiting.String()).
		Order("allocations.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pollable allocations: %w", err)
	}

	targets := make([]*allocation.PollTarget, 0, len(rows))
	for i := range rows {
		targets = append(targets, &allocation.PollTarget{
			Allocation:  r.mapper.ToDomain(&rows[i].AllocationModel),
			RequestSID:  rows[i].RequestSID,
			Service:     rows[i].Service,
			RecipientID: rows[i].RecipientID,
		})
	}
	return targets, nil
}

func (r *AllocationRepository) ListWaitingAssignedBefore(ctx context.Context, cutoff time.Time) ([]*allocation.Allocation, error) {
	var list []models.AllocationModel
	err := r.db.WithContext(ctx).
		Where("poll_state = ? AND assigned_at < ?", allocation.PollWaiting.String(), cutoff).
		Order("assigned_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	out := make([]*allocation.Allocation, 0, len(list))
	for i := range list {
		out = append(out, r.mapper.ToDomain(&list[i]))
	}
	return out, nil
}

// MarkTerminal only moves allocations that are still waiting.
func (r *AllocationRepository) MarkTerminal(ctx context.Context, id uint, state allocation.PollState, at time.Time) (bool, error) {
	if !allocation.PollWaiting.CanTransitionTo(state) {
		return false, fmt.Errorf("invalid terminal state: %s", state)
	}
	result := r.db.WithContext(ctx).
		Model(&models.AllocationModel{}).
		Where("id = ? AND poll_state = ?", id, allocation.PollWaiting.String()).
		Updates(map[string]interface{}{
			"poll_state":  state.String(),
			"terminal_at": at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark allocation terminal: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *AllocationRepository) ListByClient(ctx context.Context, clientID uint) ([]*allocation.Holding, error) {
	var rows []holdingRow
	err := r.db.WithContext(ctx).
		Table("allocations").
		Select("allocations.*, number_requests.sid AS request_sid, number_requests.service AS service, " +
			"(SELECT COUNT(*) FROM delivered_codes WHERE delivered_codes.allocation_id = allocations.id) AS code_count").
		Joins("JOIN number_requests ON number_requests.id = allocations.request_id").
		Where("number_requests.client_id = ?", clientID).
		Order("allocations.assigned_at DESC, allocations.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list client allocations: %w", err)
	}

	holdings := make([]*allocation.Holding, 0, len(rows))
	for i := range rows {
		holdings = append(holdings, &allocation.Holding{
			Allocation: r.mapper.ToDomain(&rows[i].AllocationModel),
			RequestSID: rows[i].RequestSID,
			Service:    rows[i].Service,
			CodeCount:  rows[i].CodeCount,
		})
	}
	return holdings, nil
}
