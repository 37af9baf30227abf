package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/RobertLogos32/bto-prova/internal/domain/client"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/persistence/models"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// newTestDB opens a private shared-cache in-memory database. A single
// connection serializes goroutines the way a real database serializes row updates.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type fixture struct {
	db       *gorm.DB
	clients  *ClientRepository
	requests *NumberRequestRepository
	allocs   *AllocationRepository
	codes    *DeliveredCodeRepository
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	log := logger.NewNopLogger()
	return &fixture{
		db:       db,
		clients:  NewClientRepository(db, log),
		requests: NewNumberRequestRepository(db, log),
		allocs:   NewAllocationRepository(db, log),
		codes:    NewDeliveredCodeRepository(db, log),
	}
}

func (f *fixture) approvedClient(t *testing.T, platformID int64) *client.Client {
	t.Helper()
	c, err := client.NewClient(platformID, "user", "Test", "User")
	require.NoError(t, err)
	_, err = f.clients.Upsert(t.Context(), c)
	require.NoError(t, err)
	ok, err := f.clients.CompareAndSwapStatus(t.Context(), c.ID(), vo.DecisionPending, vo.DecisionApproved)
	require.NoError(t, err)
	require.True(t, ok)
	return c
}

func (f *fixture) request(t *testing.T, clientID uint, service string) *numberrequest.NumberRequest {
	t.Helper()
	r, err := numberrequest.NewNumberRequest(clientID, service)
	require.NoError(t, err)
	require.NoError(t, f.requests.Create(t.Context(), r))
	return r
}
