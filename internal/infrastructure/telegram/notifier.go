package telegram

import (
	"context"
	"fmt"

	"github.com/RobertLogos32/bto-prova/internal/infrastructure/metrics"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

type plainSender interface {
	SendMessagePlain(ctx context.Context, chatID int64, text string) error
}

// Notifier relays received codes to client chats. A failed send is returned
// at once; the undelivered code is retried by the next poll cycle.
type Notifier struct {
	bot    plainSender
	logger logger.Interface
}

func NewNotifier(bot plainSender, logger logger.Interface) *Notifier {
	return &Notifier{bot: bot, logger: logger}
}

// Notify sends text verbatim, so provider content is never parsed as markup.
func (n *Notifier) Notify(ctx context.Context, recipientID int64, text string) error {
	err := n.bot.SendMessagePlain(ctx, recipientID, text)
	metrics.ObserveRelay(err)
	if err != nil {
		switch {
		case IsBotBlocked(err):
			n.logger.Warnw("relay recipient blocked the bot", "recipient", recipientID)
		case IsRetryAfter(err):
			n.logger.Infow("relay rate limited", "recipient", recipientID, "retry_after", RetryAfter(err))
		}
		return fmt.Errorf("relay to %d: %w", recipientID, err)
	}
	return nil
}
