package http

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/RobertLogos32/bto-prova/internal/infrastructure/config"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/scheduler"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/telegram"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// Container holds all infrastructure components, repositories, use cases,
// handlers and background services. It wires everything together and
// provides Shutdown for graceful termination.
type Container struct {
	db    *gorm.DB
	cfg   *config.Config
	log   logger.Interface
	redis *redis.Client

	repos *repositories
	ucs   *UseCases

	bot       *telegram.BotService
	notifier  relayNotifier
	announcer *telegram.Announcer

	poller    *scheduler.ActivationPoller
	scheduler *scheduler.SchedulerManager
	polling   *telegram.PollingService

	router *Router

	shutdownOnce sync.Once
}

// NewContainer builds the object graph. redisClient may be nil.
func NewContainer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log logger.Interface) (*Container, error) {
	c := &Container{
		db:    db,
		cfg:   cfg,
		log:   log,
		redis: redisClient,
	}

	c.repos = newRepositories(db, log)

	if err := c.initUseCases(); err != nil {
		return nil, fmt.Errorf("failed to initialize use cases: %w", err)
	}
	c.initBot()
	c.initActivation()
	if err := c.initBackground(); err != nil {
		return nil, fmt.Errorf("failed to initialize background services: %w", err)
	}
	c.initRouter()

	return c, nil
}

func (c *Container) UseCases() *UseCases {
	return c.ucs
}

func (c *Container) Router() *Router {
	return c.router
}

// Announcer tells clients about decisions taken outside the bot. It is nil
// when no bot token is configured.
func (c *Container) Announcer() *telegram.Announcer {
	return c.announcer
}

// Start launches the activation poller, the maintenance scheduler and, when
// a bot token is configured, Telegram long polling.
func (c *Container) Start(ctx context.Context) error {
	c.poller.Start(ctx)
	c.scheduler.Start()

	if c.polling == nil {
		c.log.Warnw("telegram bot token not configured, chat front end disabled")
		return nil
	}

	c.registerBotCommands(ctx)
	if err := c.polling.Start(ctx); err != nil {
		return fmt.Errorf("failed to start telegram polling: %w", err)
	}
	return nil
}

// Shutdown stops background services in reverse start order. In-flight poll
// cycles and updates are allowed to finish.
func (c *Container) Shutdown() error {
	var errs []error
	c.shutdownOnce.Do(func() {
		if c.polling != nil {
			c.polling.Stop()
		}
		if err := c.scheduler.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
		}
		c.poller.Stop()
		c.log.Infow("background services stopped")
	})
	return errors.Join(errs...)
}
