package http

import (
	"gorm.io/gorm"

	"github.com/RobertLogos32/bto-prova/internal/infrastructure/repository"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

type repositories struct {
	clients     *repository.ClientRepository
	requests    *repository.NumberRequestRepository
	allocations *repository.AllocationRepository
	codes       *repository.DeliveredCodeRepository
}

func newRepositories(db *gorm.DB, log logger.Interface) *repositories {
	return &repositories{
		clients:     repository.NewClientRepository(db, log),
		requests:    repository.NewNumberRequestRepository(db, log),
		allocations: repository.NewAllocationRepository(db, log),
		codes:       repository.NewDeliveredCodeRepository(db, log),
	}
}
