package usecases

import (
	"context"
	"fmt"

	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	"github.com/RobertLogos32/bto-prova/internal/shared/biztime"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// Outcome classifies what one status query did to one allocation.
type Outcome string

const (
	OutcomeWaiting   Outcome = "waiting"
	OutcomeDelivered Outcome = "delivered"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeEnded     Outcome = "ended"
	OutcomeUnknown   Outcome = "unknown"
	OutcomeError     Outcome = "error"
)

// RelayText is the message a client receives for a delivered code.
func RelayText(number, content string) string {
	return fmt.Sprintf("📱 New message from %s:\n\n%s", number, content)
}

// itemProcessor applies one provider status to one allocation.
type itemProcessor struct {
	allocationRepo allocation.Repository
	codeRepo       allocation.DeliveredCodeRepository
	provider       StatusProvider
	notifier       RelayNotifier
	catalog        *numberrequest.Catalog
	logger         logger.Interface
}

func (p *itemProcessor) process(ctx context.Context, t *allocation.PollTarget) (Outcome, string, error) {
	a := t.Allocation
	status, err := p.provider.QueryStatus(ctx, a.ActivationID())
	if err != nil {
		return OutcomeError, "", fmt.Errorf("query status of %s: %w", a.ActivationID(), err)
	}

	switch status.Kind {
	case allocation.StatusWaiting:
		return OutcomeWaiting, "", nil
	case allocation.StatusEnded:
		if err := p.markTerminal(ctx, a, allocation.PollEnded); err != nil {
			return OutcomeError, "", err
		}
		p.logger.Infow("activation ended by provider",
			"allocation_sid", a.SID(),
			"activation_id", a.ActivationID(),
			"raw", status.Raw,
		)
		return OutcomeEnded, "", nil
	case allocation.StatusDelivered:
		outcome, err := p.delivered(ctx, t, status.Text)
		return outcome, status.Text, err
	default:
		p.logger.Warnw("unrecognized provider status",
			"allocation_sid", a.SID(),
			"activation_id", a.ActivationID(),
			"raw", status.Raw,
		)
		return OutcomeUnknown, "", nil
	}
}

// delivered records the code once, relays it, confirms it to the provider
// and applies the service's single-code contract.
func (p *itemProcessor) delivered(ctx context.Context, t *allocation.PollTarget, text string) (Outcome, error) {
	a := t.Allocation
	code, created, err := p.codeRepo.Append(ctx, allocation.NewDeliveredCode(a.ID(), text))
	if err != nil {
		return OutcomeError, fmt.Errorf("record code for %s: %w", a.SID(), err)
	}
	single := p.singleCode(t)

	outcome := OutcomeDuplicate
	if created || !code.Delivered() {
		// an uncreated, undelivered row was left by a relay that failed
		relayed, relayErr := p.relay(ctx, t, code)
		if created {
			p.confirm(ctx, a, text, single)
		}
		if relayErr != nil {
			return OutcomeError, relayErr
		}
		if relayed {
			outcome = OutcomeDelivered
		}
	}

	if single {
		if err := p.markTerminal(ctx, a, allocation.PollDelivered); err != nil {
			return OutcomeError, err
		}
	}
	return outcome, nil
}

// confirm tells the provider the code was consumed. Single-code activations
// are completed, the others are kept open for the next code.
func (p *itemProcessor) confirm(ctx context.Context, a *allocation.Allocation, text string, single bool) {
	var err error
	if single {
		err = p.provider.Acknowledge(ctx, a.ActivationID(), text)
	} else {
		err = p.provider.RequestAnotherCode(ctx, a.ActivationID())
	}
	if err != nil {
		p.logger.Warnw("failed to confirm code to provider",
			"allocation_sid", a.SID(),
			"activation_id", a.ActivationID(),
			"single_code", single,
			"error", err,
		)
	}
}

// relay sends the code unless another processor already claimed it. It
// reports whether this call sent it.
func (p *itemProcessor) relay(ctx context.Context, t *allocation.PollTarget, code *allocation.DeliveredCode) (bool, error) {
	a := t.Allocation
	claimed, err := p.codeRepo.ClaimRelay(ctx, code.ID())
	if err != nil {
		return false, fmt.Errorf("claim relay for %s: %w", a.SID(), err)
	}
	if !claimed {
		return false, nil
	}

	if err := p.notifier.Notify(ctx, t.RecipientID, RelayText(a.Number(), code.Content())); err != nil {
		p.logger.Warnw("failed to relay code",
			"allocation_sid", a.SID(),
			"recipient", t.RecipientID,
			"error", err,
		)
		if rerr := p.codeRepo.ReleaseRelay(context.WithoutCancel(ctx), code.ID()); rerr != nil {
			p.logger.Errorw("relay failed and code stays claimed",
				"allocation_sid", a.SID(),
				"code_id", code.ID(),
				"error", rerr,
			)
		}
		return false, fmt.Errorf("relay code for %s: %w", a.SID(), err)
	}
	p.logger.Infow("code relayed",
		"allocation_sid", a.SID(),
		"request_sid", t.RequestSID,
		"recipient", t.RecipientID,
	)
	return true, nil
}

func (p *itemProcessor) singleCode(t *allocation.PollTarget) bool {
	if def, ok := p.catalog.Lookup(t.Service); ok {
		return def.SingleCode
	}
	if def, ok := p.catalog.LookupCode(t.Allocation.ServiceCode()); ok {
		return def.SingleCode
	}
	return false
}

func (p *itemProcessor) markTerminal(ctx context.Context, a *allocation.Allocation, state allocation.PollState) error {
	at := biztime.NowUTC()
	if _, err := p.allocationRepo.MarkTerminal(ctx, a.ID(), state, at); err != nil {
		return fmt.Errorf("mark %s %s: %w", a.SID(), state, err)
	}
	a.ApplyTerminal(state, at)
	return nil
}
