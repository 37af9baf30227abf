package client

import (
	"context"

	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
)

// Repository persists clients.
type Repository interface {
	GetByID(ctx context.Context, id uint) (*Client, error)
	GetByPlatformID(ctx context.Context, platformID int64) (*Client, error)

	// Upsert inserts the client on first contact or refreshes its display
	// metadata. The status of an existing row is never touched. It reports
	// whether a new row was created and sets the ID on c.
	Upsert(ctx context.Context, c *Client) (created bool, err error)

	// CompareAndSwapStatus moves the client from expected to next in a single
	// conditional update. It returns false when the stored status differs.
	CompareAndSwapStatus(ctx context.Context, id uint, expected, next vo.DecisionStatus) (bool, error)

	ListByStatus(ctx context.Context, status vo.DecisionStatus) ([]*Client, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*Client, error)
}
