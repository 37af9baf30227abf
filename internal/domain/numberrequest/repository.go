package numberrequest

import (
	"context"
	"time"

	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
)

// Repository persists number requests.
type Repository interface {
	Create(ctx context.Context, r *NumberRequest) error
	GetByID(ctx context.Context, id uint) (*NumberRequest, error)
	GetBySID(ctx context.Context, sid string) (*NumberRequest, error)

	// CompareAndSwapStatus records the decision with a single
	// UPDATE ... WHERE id = ? AND status = ? and reports whether it won.
	CompareAndSwapStatus(ctx context.Context, id uint, expected, next vo.DecisionStatus, actor int64, at time.Time) (bool, error)

	ListByStatus(ctx context.Context, status vo.DecisionStatus) ([]*NumberRequest, error)
	ListByClient(ctx context.Context, clientID uint) ([]*NumberRequest, error)

	// ListApprovedWithoutAllocation returns approved requests whose provider
	// call never produced an allocation.
	ListApprovedWithoutAllocation(ctx context.Context) ([]*NumberRequest, error)
}
