// Package scheduler runs the background work of the broker: the activation
// poller and the gocron-managed maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/RobertLogos32/bto-prova/internal/infrastructure/metrics"
	"github.com/RobertLogos32/bto-prova/internal/shared/biztime"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// BatchJob processes one batch and reports how many items it touched.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// BalanceSource reads the provider account balance, e.g. "12.50".
type BalanceSource interface {
	GetBalance(ctx context.Context) (string, error)
}

// minJobTimeout bounds short-interval jobs that would otherwise get almost
// no time to finish.
const minJobTimeout = time.Minute

type scheduledJob struct {
	name     string
	interval time.Duration
	tags     []string
	run      func(ctx context.Context) (int, error)
}

// SchedulerManager owns the gocron scheduler. Every job starts immediately,
// repeats at a fixed interval and never overlaps itself.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	mu      sync.RWMutex
	started bool
}

func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(biztime.Location()))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &SchedulerManager{scheduler: s, logger: log}, nil
}

// RegisterAllocationSweepJob expires allocations that outlived their lifetime.
func (m *SchedulerManager) RegisterAllocationSweepJob(sweep BatchJob, interval time.Duration) error {
	return m.register(scheduledJob{
		name:     "allocation-sweep",
		interval: interval,
		tags:     []string{"allocation", "expire"},
		run:      sweep.Execute,
	})
}

// RegisterBalanceProbeJob publishes the provider balance as a gauge so a low
// balance can alert before allocations start failing.
func (m *SchedulerManager) RegisterBalanceProbeJob(source BalanceSource, interval time.Duration) error {
	return m.register(scheduledJob{
		name:     "balance-probe",
		interval: interval,
		tags:     []string{"provider", "balance"},
		run: func(ctx context.Context) (int, error) {
			raw, err := source.GetBalance(ctx)
			if err != nil {
				return 0, err
			}
			balance, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return 0, fmt.Errorf("unparsable balance %q: %w", raw, err)
			}
			metrics.SetProviderBalance(balance)
			m.logger.Debugw("provider balance probed", "balance", balance)
			return 0, nil
		},
	})
}

func (m *SchedulerManager) register(j scheduledJob) error {
	if j.interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", j.name)
	}
	timeout := max(j.interval, minJobTimeout)

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			m.runJob(ctx, j)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags(j.tags...),
		gocron.WithName(j.name),
	)
	if err != nil {
		return fmt.Errorf("job %s: %w", j.name, err)
	}

	m.logger.Infow("registered scheduled job", "job", j.name, "interval", j.interval)
	return nil
}

func (m *SchedulerManager) runJob(ctx context.Context, j scheduledJob) {
	start := time.Now()

	count, err := j.run(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		// shutdown or timeout; the next run retries
	case err != nil:
		m.logger.Errorw("scheduled job failed",
			"job", j.name,
			"error", err,
			"duration", time.Since(start),
		)
	case count > 0:
		m.logger.Infow("scheduled job processed items",
			"job", j.name,
			"count", count,
			"duration", time.Since(start),
		)
	}
}

func (m *SchedulerManager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs to finish.
func (m *SchedulerManager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	m.started = false

	if err := m.scheduler.Shutdown(); err != nil {
		m.logger.Errorw("scheduler shutdown with error", "error", err)
		return err
	}
	m.logger.Infow("scheduler stopped")
	return nil
}

func (m *SchedulerManager) IsStarted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.started
}

func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
