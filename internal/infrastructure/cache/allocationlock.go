package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

const allocationLockPrefix = "otpbroker:lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AllocationLock is a SetNX lease that keeps two processes from allocating
// the same request at once.
type AllocationLock struct {
	client *redis.Client
	logger logger.Interface
}

func NewAllocationLock(client *redis.Client, logger logger.Interface) *AllocationLock {
	return &AllocationLock{client: client, logger: logger}
}

// Acquire takes the lock for ttl. When acquired, release must be called once
// the guarded work is done.
func (l *AllocationLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	fullKey := allocationLockPrefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err(); err != nil {
			l.logger.Warnw("failed to release lock", "key", key, "error", err)
		}
	}
	return release, true, nil
}
