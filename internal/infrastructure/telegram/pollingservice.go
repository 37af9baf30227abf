package telegram

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/RobertLogos32/bto-prova/internal/shared/goroutine"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// defaultWorkerCount is the number of concurrent update workers. Updates are
// dispatched by userID % workerCount so one user's updates stay ordered.
const defaultWorkerCount = 4

// OffsetStore persists the polling offset across restarts.
type OffsetStore interface {
	GetOffset(ctx context.Context) (int64, error)
	SaveOffset(ctx context.Context, offset int64) error
}

// UpdateHandler handles one update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *Update) error
}

// UpdateSource is the inbound half of the Bot API.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64) ([]Update, error)
	DeleteWebhook(ctx context.Context) error
}

// MemoryOffsetStore keeps the offset for the life of the process.
type MemoryOffsetStore struct {
	offset atomic.Int64
}

func (s *MemoryOffsetStore) GetOffset(ctx context.Context) (int64, error) {
	return s.offset.Load(), nil
}

func (s *MemoryOffsetStore) SaveOffset(ctx context.Context, offset int64) error {
	s.offset.Store(offset)
	return nil
}

// PollingService handles long polling for Telegram updates
type PollingService struct {
	source      UpdateSource
	handler     UpdateHandler
	offsetStore OffsetStore
	workerCount int
	logger      logger.Interface

	// newBackOff builds the retry schedule for failed getUpdates calls.
	newBackOff func() backoff.BackOff

	lastUpdateID       int64
	processedWatermark int64 // highest update_id handled this session

	runningMu  sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewPollingService creates a polling service. A nil offsetStore keeps the offset in memory.
func NewPollingService(source UpdateSource, handler UpdateHandler, offsetStore OffsetStore, workers int, logger logger.Interface) *PollingService {
	if offsetStore == nil {
		offsetStore = &MemoryOffsetStore{}
	}
	if workers <= 0 {
		workers = defaultWorkerCount
	}
	return &PollingService{
		source:      source,
		handler:     handler,
		offsetStore: offsetStore,
		workerCount: workers,
		logger:      logger,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = time.Minute
			b.Reset()
			return b
		},
	}
}

// Start begins polling in the background until ctx is done or Stop is called.
func (s *PollingService) Start(ctx context.Context) error {
	s.runningMu.Lock()
	if s.isRunning {
		s.runningMu.Unlock()
		return nil
	}
	s.isRunning = true
	pollCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel
	s.runningMu.Unlock()

	saved, err := s.offsetStore.GetOffset(ctx)
	if err != nil {
		s.logger.Warnw("failed to load polling offset, starting from 0", "error", err)
	} else if saved > 0 {
		s.lastUpdateID = saved
		s.processedWatermark = saved
		s.logger.Infow("loaded polling offset from store", "offset", saved)
	}

	if err := s.source.DeleteWebhook(ctx); err != nil {
		s.logger.Warnw("failed to delete webhook before polling", "error", err)
	}

	s.logger.Infow("starting telegram polling service", "workers", s.workerCount)

	s.wg.Add(1)
	goroutine.SafeGo(s.logger, "telegram-poll-loop", func() {
		defer s.wg.Done()
		s.pollLoop(pollCtx)
	})
	return nil
}

// Stop cancels the in-flight long poll and waits for the loop to exit.
func (s *PollingService) Stop() {
	s.runningMu.Lock()
	if !s.isRunning {
		s.runningMu.Unlock()
		return
	}
	s.isRunning = false
	s.cancelFunc()
	s.runningMu.Unlock()

	s.wg.Wait()
	s.logger.Infow("telegram polling service stopped")
}

// Wait blocks until the poll loop has exited.
func (s *PollingService) Wait() {
	s.wg.Wait()
}

func (s *PollingService) pollLoop(ctx context.Context) {
	bo := s.newBackOff()
	for ctx.Err() == nil {
		err := s.poll(ctx)
		if err == nil {
			bo.Reset()
			continue
		}
		if ctx.Err() != nil {
			break
		}

		delay := bo.NextBackOff()
		if delay == backoff.Stop {
			delay = time.Minute
		}
		if ra := RetryAfter(err); ra > delay {
			delay = ra
		}
		s.logger.Errorw("failed to get updates",
			"error", err,
			"unauthorized", IsUnauthorized(err),
			"retry_in", delay,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
	s.logger.Infow("polling stopped")
}

// poll fetches one batch and handles it. Only a getUpdates failure is returned.
func (s *PollingService) poll(ctx context.Context) error {
	offset := int64(0)
	if s.lastUpdateID > 0 {
		offset = s.lastUpdateID + 1
	}
	updates, err := s.source.GetUpdates(ctx, offset)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	var maxUpdateID int64
	buckets := make([][]Update, s.workerCount)
	for _, u := range updates {
		if u.UpdateID > maxUpdateID {
			maxUpdateID = u.UpdateID
		}
		// Watermark dedupe covers overlap after a restart.
		if u.UpdateID <= s.processedWatermark {
			continue
		}
		idx := s.workerIndex(&u)
		buckets[idx] = append(buckets[idx], u)
	}

	var batchWg sync.WaitGroup
	for i, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		batchWg.Add(1)
		workerIdx := i
		workerBucket := bucket
		goroutine.SafeGo(s.logger, "telegram-worker-batch", func() {
			defer batchWg.Done()
			s.processWorkerBatch(ctx, workerIdx, workerBucket)
		})
	}
	batchWg.Wait()

	// Commit only after every worker finished so a crash replays the batch.
	if maxUpdateID > s.lastUpdateID {
		s.lastUpdateID = maxUpdateID
	}
	if maxUpdateID > s.processedWatermark {
		s.processedWatermark = maxUpdateID
	}

	// The poll context may already be cancelled during shutdown.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.offsetStore.SaveOffset(saveCtx, s.lastUpdateID); err != nil {
		s.logger.Warnw("failed to save polling offset", "offset", s.lastUpdateID, "error", err)
	}
	return nil
}

// processWorkerBatch handles one worker's updates in order. A panicking
// update is logged and does not stop the rest of the batch.
func (s *PollingService) processWorkerBatch(ctx context.Context, workerIdx int, updates []Update) {
	for i := range updates {
		if ctx.Err() != nil {
			return
		}
		u := &updates[i]
		goroutine.Run(s.logger, fmt.Sprintf("telegram-update-%d", u.UpdateID), func() {
			if err := s.handler.HandleUpdate(ctx, u); err != nil {
				s.logger.Errorw("failed to handle update",
					"worker", workerIdx,
					"update_id", u.UpdateID,
					"error", err,
				)
			}
		})
	}
}

// workerIndex maps an update to a worker by sender so each user's updates
// are handled in order.
func (s *PollingService) workerIndex(u *Update) int {
	var userID int64
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		userID = u.CallbackQuery.From.ID
	case u.Message != nil && u.Message.From != nil:
		userID = u.Message.From.ID
	default:
		userID = u.UpdateID
	}
	idx := int(userID % int64(s.workerCount))
	if idx < 0 {
		idx += s.workerCount
	}
	return idx
}
