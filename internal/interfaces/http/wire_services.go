package http

import (
	"context"
	"errors"
	"fmt"

	activationUsecases "github.com/RobertLogos32/bto-prova/internal/application/activation/usecases"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/cache"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/scheduler"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/telegram"
)

// errNoRelayChannel keeps codes undelivered until a bot token is configured.
var errNoRelayChannel = errors.New("no relay channel configured")

type relayNotifier = activationUsecases.RelayNotifier

type unavailableNotifier struct{}

func (unavailableNotifier) Notify(ctx context.Context, recipientID int64, text string) error {
	return fmt.Errorf("relay to %d: %w", recipientID, errNoRelayChannel)
}

func (c *Container) initBot() {
	if !c.cfg.Telegram.IsConfigured() {
		c.notifier = unavailableNotifier{}
		return
	}
	c.bot = telegram.NewBotService(c.cfg.Telegram, nil)
	c.notifier = telegram.NewNotifier(c.bot, c.log.With("component", "telegram.notifier"))
	c.announcer = telegram.NewAnnouncer(c.bot, c.ucs.Catalog, c.log.With("component", "telegram.announcer"))
}

func (c *Container) initActivation() {
	r := c.repos
	act := c.cfg.Activation
	log := c.log.With("component", "activation")

	c.ucs.PollActivations = activationUsecases.NewPollActivationsUseCase(
		r.allocations, r.codes, c.ucs.Provider, c.notifier, c.ucs.Catalog, log)
	c.ucs.AwaitCode = activationUsecases.NewAwaitCodeUseCase(
		r.allocations, r.codes, r.requests, r.clients, c.ucs.Provider, c.notifier, c.ucs.Catalog,
		act.AwaitStep, act.AwaitTimeout, log)
	c.ucs.ExpireStale = activationUsecases.NewExpireStaleAllocationsUseCase(
		r.allocations, r.codes, c.ucs.Provider, act.MaxLifetime, log)
}

func (c *Container) initBackground() error {
	c.poller = scheduler.NewActivationPoller(c.ucs.PollActivations, c.cfg.Activation, c.log.With("component", "activation.poller"))

	mgr, err := scheduler.NewSchedulerManager(c.log.With("component", "scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := mgr.RegisterAllocationSweepJob(c.ucs.ExpireStale, c.cfg.Activation.SweepInterval); err != nil {
		return fmt.Errorf("failed to register allocation sweep: %w", err)
	}
	if every := c.cfg.Provider.BalanceProbeInterval; every > 0 {
		if err := mgr.RegisterBalanceProbeJob(c.ucs.Provider, every); err != nil {
			return fmt.Errorf("failed to register balance probe: %w", err)
		}
	}
	c.scheduler = mgr

	if c.bot == nil {
		return nil
	}

	var offsets telegram.OffsetStore
	if c.redis != nil {
		offsets = cache.NewPollingOffsetStore(c.redis, c.bot.BotID())
	}
	handler := telegram.NewBrokerUpdateHandler(c.bot, telegram.UseCases{
		RegisterClient:     c.ucs.RegisterClient,
		DecideClient:       c.ucs.DecideClient,
		SubmitRequest:      c.ucs.SubmitRequest,
		DecideRequest:      c.ucs.DecideRequest,
		ListPending:        c.ucs.ListPending,
		ClientOverview:     c.ucs.ClientOverview,
		ApproveAndAllocate: c.ucs.ApproveAndAllocate,
		RetryAllocation:    c.ucs.RetryAllocation,
		ListUnallocated:    c.ucs.ListUnallocated,
		GetBalance:         c.ucs.GetBalance,
	}, c.ucs.Operators, c.ucs.Catalog, c.log.With("component", "telegram.handler"))

	c.polling = telegram.NewPollingService(c.bot, handler, offsets, c.cfg.Telegram.Workers, c.log.With("component", "telegram.polling"))
	return nil
}

// registerBotCommands publishes the command menu. Operators get their own.
func (c *Container) registerBotCommands(ctx context.Context) {
	if err := c.bot.SetMyCommands(ctx, telegram.DefaultCommands()); err != nil {
		c.log.Warnw("failed to set bot commands", "error", err)
	}
	for _, id := range c.ucs.Operators.IDs() {
		if err := c.bot.SetMyCommandsForChat(ctx, id, telegram.OperatorCommands()); err != nil {
			c.log.Warnw("failed to set operator commands", "operator", id, "error", err)
		}
	}
}
