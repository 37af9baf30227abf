package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/RobertLogos32/bto-prova/internal/infrastructure/config"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/database"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/migration"
	"github.com/RobertLogos32/bto-prova/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/RobertLogos32/bto-prova/internal/interfaces/http"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
	"github.com/RobertLogos32/bto-prova/internal/shared/version"
)

const shutdownTimeout = 30 * time.Second

var (
	opts               bootstrap.Options
	autoMigrate        bool
	skipMigrationCheck bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the broker",
		Long:  `Start the HTTP admin API, Telegram long polling, the activation poller and the maintenance jobs.`,
		RunE:  run,
	}

	opts.AddFlags(cmd.Flags())
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Automatically run database migrations on startup (not recommended for production)")
	cmd.Flags().BoolVar(&skipMigrationCheck, "skip-migration-check", false, "Skip migration status check on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap.Load(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	log := logger.WithComponent("server")
	log.Infow("starting broker",
		"environment", opts.Environment(),
		"version", version.String(),
		"auto_migrate", autoMigrate)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Init(ctx, &cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if err := handleMigrations(cfg, log); err != nil {
		return fmt.Errorf("migration handling failed: %w", err)
	}

	redisClient, err := bootstrap.OpenRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	container, err := httpRouter.NewContainer(cfg, database.Get(), redisClient, logger.NewLogger())
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer func() {
		if err := container.Shutdown(); err != nil {
			log.Errorw("background services stopped with errors", "error", err)
		}
	}()

	if err := container.Start(ctx); err != nil {
		return fmt.Errorf("failed to start background services: %w", err)
	}

	srv := newHTTPServer(cfg, container.Router().GetEngine())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("http server listening",
			"address", srv.Addr,
			"mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down broker")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Errorw("broker stopped with error", "error", err)
		return err
	}

	log.Infow("broker exited gracefully")
	return nil
}

// newHTTPServer leaves room in WriteTimeout for the await endpoint, which
// holds the connection for up to the await timeout.
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Activation.AwaitTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleMigrations(cfg *config.Config, log logger.Interface) error {
	if skipMigrationCheck {
		log.Infow("skipping migration check")
		return nil
	}

	strategy, err := migration.NewGooseStrategy(cfg.Database.Driver)
	if err != nil {
		return err
	}

	if autoMigrate {
		if opts.Environment() == "production" {
			log.Warnw("auto-migration is enabled in production environment - this is not recommended!")
		}
		log.Infow("running migrations", "strategy", strategy.GetName())
		if err := strategy.Migrate(database.Get()); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		log.Infow("migrations completed successfully")
		return nil
	}

	current, err := strategy.GetVersion(database.Get())
	if err != nil {
		log.Warnw("failed to check migration status", "error", err)
		return nil
	}
	log.Infow("current migration version", "version", current)
	return nil
}
