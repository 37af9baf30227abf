package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

type scriptedSender struct {
	errs  []error
	calls int
	texts []string
}

func (s *scriptedSender) SendMessagePlain(ctx context.Context, chatID int64, text string) error {
	s.calls++
	s.texts = append(s.texts, text)
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func TestNotifier_Delivers(t *testing.T) {
	sender := &scriptedSender{}
	n := NewNotifier(sender, logger.NewNopLogger())

	require.NoError(t, n.Notify(context.Background(), 42, "📱 New message from +39123:\n\n123456"))
	assert.Equal(t, []string{"📱 New message from +39123:\n\n123456"}, sender.texts)
}

func TestNotifier_RateLimitFailsWithoutWaiting(t *testing.T) {
	sender := &scriptedSender{errs: []error{&APIError{ErrorCode: 429, Description: "Too Many Requests", RetryAfter: 1}}}
	n := NewNotifier(sender, logger.NewNopLogger())

	start := time.Now()
	err := n.Notify(context.Background(), 42, "x")
	require.Error(t, err)
	assert.True(t, IsRetryAfter(err))
	assert.Equal(t, 1, sender.calls)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestNotifier_ReportsFailure(t *testing.T) {
	sender := &scriptedSender{errs: []error{&APIError{ErrorCode: 403, Description: "Forbidden: bot was blocked by the user"}}}
	n := NewNotifier(sender, logger.NewNopLogger())

	err := n.Notify(context.Background(), 42, "x")
	require.Error(t, err)
	assert.True(t, IsBotBlocked(err))
	assert.Contains(t, err.Error(), "relay to 42")

	sender = &scriptedSender{errs: []error{errors.New("connection reset")}}
	n = NewNotifier(sender, logger.NewNopLogger())
	assert.Error(t, n.Notify(context.Background(), 42, "x"))
}
