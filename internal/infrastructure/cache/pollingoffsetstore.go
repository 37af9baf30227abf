package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const pollingOffsetPrefix = "otpbroker:telegram:offset:"

// PollingOffsetStore remembers the last confirmed getUpdates offset of one
// bot so a restart neither replays nor skips updates.
type PollingOffsetStore struct {
	client *redis.Client
	key    string
}

// NewPollingOffsetStore scopes the offset to botID, the numeric prefix of the bot token.
func NewPollingOffsetStore(client *redis.Client, botID string) *PollingOffsetStore {
	return &PollingOffsetStore{client: client, key: pollingOffsetPrefix + botID}
}

// GetOffset returns the saved offset, or 0 when none was saved.
func (s *PollingOffsetStore) GetOffset(ctx context.Context) (int64, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get polling offset: %w", err)
	}

	offset, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse polling offset %q: %w", val, err)
	}
	return offset, nil
}

// SaveOffset stores offset unless a larger one is already saved.
func (s *PollingOffsetStore) SaveOffset(ctx context.Context, offset int64) error {
	current, err := s.GetOffset(ctx)
	if err != nil {
		return err
	}
	if offset <= current {
		return nil
	}
	if err := s.client.Set(ctx, s.key, strconv.FormatInt(offset, 10), 0).Err(); err != nil {
		return fmt.Errorf("failed to save polling offset: %w", err)
	}
	return nil
}
