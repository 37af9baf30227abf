// Package provider holds operator commands that talk to the number provider
// directly or run one broker operation outside the server process.
package provider

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/RobertLogos32/bto-prova/internal/application/activation/usecases"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/database"
	"github.com/RobertLogos32/bto-prova/internal/infrastructure/provider/smsactivate"
	"github.com/RobertLogos32/bto-prova/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/RobertLogos32/bto-prova/internal/interfaces/http"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

var (
	opts     bootstrap.Options
	operator int64
	timeout  time.Duration
	step     time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Number provider tools",
		Long:  `Query the number provider and run allocation operations from the command line.`,
	}

	opts.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newBalanceCommand(),
		newStatusCommand(),
		newRetryCommand(),
		newAwaitCommand(),
	)

	return cmd
}

func newBalanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the provider account balance",
		Args:  cobra.NoArgs,
		RunE:  runBalance,
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <activation-id>",
		Short: "Show the provider status of one activation",
		Args:  cobra.ExactArgs(1),
		RunE:  runStatus,
	}
}

func newRetryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry <request-sid>",
		Short: "Allocate a number for an approved request again",
		Long:  `Allocate a number for an approved request that has none, typically after the provider had no stock. The client is told about the number when a bot token is configured.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runRetry,
	}

	cmd.Flags().Int64Var(&operator, "operator", 0, "Operator chat ID recorded as actor (default: lowest configured operator ID)")

	return cmd
}

func newAwaitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "await <allocation-sid>",
		Short: "Wait for the code of one allocation",
		Long:  `Poll one allocation until a code arrives, the provider ends the activation or the timeout expires. A delivered code is relayed to the client as usual.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runAwait,
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (default: activation.await_timeout)")
	cmd.Flags().DurationVar(&step, "step", 0, "Interval between polls (default: activation.await_step)")

	return cmd
}

func newClient() (*smsactivate.Client, error) {
	cfg, err := bootstrap.Load(opts)
	if err != nil {
		return nil, err
	}
	return smsactivate.NewClient(cfg.Provider, nil, logger.WithComponent("provider"))
}

func runBalance(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer logger.Sync()

	balance, err := client.GetBalance(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get balance: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Balance: %s\n", balance)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer logger.Sync()

	status, err := client.QueryStatus(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to query activation %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Activation: %s\n", args[0])
	fmt.Fprintf(out, "  Status:   %s\n", status.Kind)
	if status.Text != "" {
		fmt.Fprintf(out, "  Code:     %s\n", status.Text)
	}
	fmt.Fprintf(out, "  Raw:      %s\n", status.Raw)
	return nil
}

// withContainer builds the broker on top of the configured database and
// redis without starting any background service.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *httpRouter.Container) error) error {
	cfg, err := bootstrap.Load(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	if err := database.Init(ctx, &cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

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
	defer container.Shutdown()

	return fn(ctx, container)
}

func runRetry(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *httpRouter.Container) error {
		actor, err := resolveOperator(operator, c.UseCases().Operators.IDs())
		if err != nil {
			return err
		}

		res, err := c.UseCases().RetryAllocation.Execute(ctx, args[0], actor)
		if err != nil {
			return fmt.Errorf("failed to allocate request %s: %w", args[0], err)
		}

		if !res.Existing && res.Request != nil && c.Announcer() != nil {
			c.Announcer().NumberAssigned(ctx, res.Request, res.Allocation)
		}

		out := cmd.OutOrStdout()
		if res.Existing {
			fmt.Fprintf(out, "Request %s already has a number.\n", args[0])
		}
		fmt.Fprintf(out, "Allocation: %s\n", res.Allocation.SID)
		fmt.Fprintf(out, "  Number:   %s\n", res.Allocation.Number)
		fmt.Fprintf(out, "  Service:  %s\n", res.Allocation.ServiceCode)
		return nil
	})
}

func runAwait(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *httpRouter.Container) error {
		res, err := c.UseCases().AwaitCode.Execute(ctx, usecases.AwaitCodeCommand{
			AllocationSID: args[0],
			Step:          step,
			Timeout:       timeout,
		})
		if err != nil {
			return fmt.Errorf("failed to await allocation %s: %w", args[0], err)
		}

		printAwait(cmd.OutOrStdout(), args[0], res)
		return nil
	})
}

func printAwait(out io.Writer, sid string, res *usecases.AwaitCodeResult) {
	fmt.Fprintf(out, "Allocation: %s\n", sid)
	fmt.Fprintf(out, "  State:    %s\n", res.State)
	if res.Code != "" {
		fmt.Fprintf(out, "  Code:     %s\n", res.Code)
	}
}

// resolveOperator falls back to the lowest configured operator ID when none
// is given and refuses IDs outside the roster.
func resolveOperator(requested int64, roster []int64) (int64, error) {
	if len(roster) == 0 {
		return 0, fmt.Errorf("no operators configured (telegram.admin_chat_ids)")
	}
	if requested == 0 {
		return roster[0], nil
	}
	for _, id := range roster {
		if id == requested {
			return requested, nil
		}
	}
	return 0, fmt.Errorf("%d is not a configured operator", requested)
}
