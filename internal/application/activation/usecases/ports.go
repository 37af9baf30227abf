package usecases

import (
	"context"

	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
)

// StatusProvider is the part of the number provider the poller talks to.
type StatusProvider interface {
	QueryStatus(ctx context.Context, activationID string) (allocation.ProviderStatus, error)
	// Acknowledge marks the code consumed and completes the activation.
	Acknowledge(ctx context.Context, activationID, code string) error
	// RequestAnotherCode marks the code consumed and keeps the activation
	// open for the next one.
	RequestAnotherCode(ctx context.Context, activationID string) error
	Cancel(ctx context.Context, activationID string) error
}

// RelayNotifier delivers a text to a client.
type RelayNotifier interface {
	Notify(ctx context.Context, recipientID int64, text string) error
}
