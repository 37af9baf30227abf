package usecases

import (
	"context"
	"time"

	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
)

// NumberProvider leases numbers from the external provider.
type NumberProvider interface {
	RequestNumber(ctx context.Context, serviceCode string, country int) (allocation.Lease, error)
	// Cancel releases a lease this system will not use.
	Cancel(ctx context.Context, activationID string) error
	GetBalance(ctx context.Context) (string, error)
}

// AllocationLock serializes allocation of one request across processes.
// acquired is false when another holder owns the key.
type AllocationLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}
