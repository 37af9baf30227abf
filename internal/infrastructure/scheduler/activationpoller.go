package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/RobertLogos32/bto-prova/internal/application/activation/usecases"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/metrics"
	"github.com/RobertLogos32/bto-prova/internal/shared/config"
	"github.com/RobertLogos32/bto-prova/internal/shared/goroutine"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

const (
	defaultPollInterval    = 20 * time.Second
	defaultBackoffInterval = 60 * time.Second
	defaultCycleTimeout    = 5 * time.Minute
)

// PollCycleRunner runs one poll cycle.
type PollCycleRunner interface {
	Execute(ctx context.Context) (*usecases.PollCycleResult, error)
}

// ActivationPoller is the long-lived loop that polls open activations.
// - Runs a cycle immediately, then every poll interval
// - After a failed cycle the next one waits the backoff interval instead
// - Stop lets the running cycle finish before the loop exits
type ActivationPoller struct {
	runner          PollCycleRunner
	logger          logger.Interface
	interval        time.Duration
	backoffInterval time.Duration
	cycleTimeout    time.Duration
	stopChan        chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
	running         bool
	mu              sync.RWMutex
}

// NewActivationPoller creates a poller from the activation settings. Zero
// values fall back to the defaults.
func NewActivationPoller(runner PollCycleRunner, cfg config.ActivationConfig, logger logger.Interface) *ActivationPoller {
	p := &ActivationPoller{
		runner:          runner,
		logger:          logger,
		interval:        cfg.PollInterval,
		backoffInterval: cfg.BackoffInterval,
		cycleTimeout:    cfg.CycleTimeout,
		stopChan:        make(chan struct{}),
	}
	if p.interval <= 0 {
		p.interval = defaultPollInterval
	}
	if p.backoffInterval <= 0 {
		p.backoffInterval = defaultBackoffInterval
	}
	if p.cycleTimeout <= 0 {
		p.cycleTimeout = defaultCycleTimeout
	}
	return p
}

// Start starts the poller
func (p *ActivationPoller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.logger.Infow("starting activation poller",
		"interval", p.interval,
		"backoff_interval", p.backoffInterval,
	)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runLoop(ctx)
	}()
}

// Stop signals the loop and waits for the current cycle to finish.
func (p *ActivationPoller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()

		p.logger.Infow("stopping activation poller")
		close(p.stopChan)
		p.wg.Wait()
		p.logger.Infow("activation poller stopped")
	})
}

// Wait blocks until the loop has exited.
func (p *ActivationPoller) Wait() {
	p.wg.Wait()
}

// IsRunning returns whether the poller is running
func (p *ActivationPoller) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

func (p *ActivationPoller) runLoop(ctx context.Context) {
	timer := time.NewTimer(p.nextDelay(!p.runCycle(ctx)))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Infow("activation poller stopped due to context cancellation")
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return
		case <-p.stopChan:
			return
		case <-timer.C:
			timer.Reset(p.nextDelay(!p.runCycle(ctx)))
		}
	}
}

func (p *ActivationPoller) nextDelay(failed bool) time.Duration {
	if failed {
		return p.backoffInterval
	}
	return p.interval
}

// runCycle runs one cycle detached from ctx cancellation, so a shutdown never
// interrupts an item halfway. It reports whether the cycle succeeded.
func (p *ActivationPoller) runCycle(ctx context.Context) bool {
	cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cycleTimeout)
	defer cancel()

	startTime := time.Now()
	var (
		result *usecases.PollCycleResult
		err    error
	)
	completed := goroutine.Run(p.logger, "activation-poll-cycle", func() {
		result, err = p.runner.Execute(cycleCtx)
	})
	elapsed := time.Since(startTime)

	failed := !completed || err != nil
	var items map[string]int
	if result != nil {
		items = result.Items()
	}
	metrics.ObservePollCycle(failed, elapsed, items)

	if err != nil {
		p.logger.Errorw("poll cycle failed, backing off",
			"error", err,
			"duration", elapsed,
			"next_in", p.backoffInterval,
		)
	}
	return !failed
}
