package migrate

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RobertLogos32/bto-prova/internal/infrastructure/config"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/database"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/migration"
	"github.com/RobertLogos32/bto-prova/internal/interfaces/cli/bootstrap"
	sharedConfig "github.com/RobertLogos32/bto-prova/internal/shared/config"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

const (
	strategyGoose = "goose"
	strategyGorm  = "gorm"

	defaultScriptsRoot = "./internal/infrastructure/migration/scripts"
)

var (
	opts        bootstrap.Options
	name        string
	steps       int
	strategy    string
	scriptsRoot string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations including running migrations, checking status, and creating new migration files.`,
	}

	opts.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
		newCreateCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		Long:  `Apply all pending database migrations to bring the database schema up to date.`,
		RunE:  runUp,
	}

	cmd.Flags().StringVar(&strategy, "strategy", strategyGoose, "Migration strategy: goose (versioned SQL) or gorm (derive schema from models)")

	return cmd
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		Long:  `Rollback a specified number of database migrations.`,
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  `Display the current migration version and status of the database.`,
		RunE:  runStatus,
	}
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new migration",
		Long:  `Create an empty SQL migration for every supported dialect.`,
		RunE:  runCreate,
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the migration (required)")
	cmd.Flags().StringVar(&scriptsRoot, "dir", defaultScriptsRoot, "Directory holding the per-dialect script folders")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func initEnv() (*config.Config, logger.Interface, error) {
	cfg, err := bootstrap.Load(opts)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.WithComponent("migrate"), nil
}

func openDatabase(cmd *cobra.Command, cfg *config.Config) error {
	if err := database.Init(cmd.Context(), &cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

func selectStrategy(driver, name string) (migration.Strategy, error) {
	switch name {
	case strategyGoose:
		return migration.NewGooseStrategy(driver)
	case strategyGorm:
		return migration.NewAutoMigrateStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown migration strategy %q", name)
	}
}

func runUp(cmd *cobra.Command, args []string) error {
	cfg, log, err := initEnv()
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := selectStrategy(cfg.Database.Driver, strategy)
	if err != nil {
		return err
	}

	if err := openDatabase(cmd, cfg); err != nil {
		return err
	}
	defer database.Close()

	log.Infow("running up migrations", "environment", opts.Environment(), "strategy", s.GetName())

	if err := s.Migrate(database.Get()); err != nil {
		log.Errorw("migration failed", "error", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Infow("migrations completed successfully")
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	cfg, log, err := initEnv()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if steps < 1 {
		return fmt.Errorf("steps must be at least 1")
	}

	s, err := migration.NewGooseStrategy(cfg.Database.Driver)
	if err != nil {
		return err
	}

	if err := openDatabase(cmd, cfg); err != nil {
		return err
	}
	defer database.Close()

	log.Infow("running down migrations", "environment", opts.Environment(), "steps", steps)

	if err := s.MigrateDown(database.Get(), steps); err != nil {
		log.Errorw("down migration failed", "error", err)
		return fmt.Errorf("down migration failed: %w", err)
	}

	log.Infow("down migration completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := initEnv()
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := migration.NewGooseStrategy(cfg.Database.Driver)
	if err != nil {
		return err
	}

	if err := openDatabase(cmd, cfg); err != nil {
		return err
	}
	defer database.Close()

	version, err := s.GetVersion(database.Get())
	if err != nil {
		log.Errorw("failed to get migration version", "error", err)
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nMigration Status:\n")
	fmt.Fprintf(out, "  Environment:     %s\n", opts.Environment())
	fmt.Fprintf(out, "  Driver:          %s\n", cfg.Database.Driver)
	fmt.Fprintf(out, "  Current Version: %d\n", version)

	if err := s.Status(database.Get()); err != nil {
		log.Errorw("failed to get detailed status", "error", err)
		return fmt.Errorf("failed to get detailed status: %w", err)
	}

	return nil
}

// runCreate needs no configuration or database: it only writes files.
func runCreate(cmd *cobra.Command, args []string) error {
	for _, driver := range []string{sharedConfig.DriverMySQL, sharedConfig.DriverPostgres} {
		dir := filepath.Join(scriptsRoot, driver)
		if err := migration.Create(dir, name); err != nil {
			return fmt.Errorf("failed to create %s migration: %w", driver, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Migration '%s' created for mysql and postgres\n", name)
	return nil
}
