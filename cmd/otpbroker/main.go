package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/RobertLogos32/bto-prova/internal/interfaces/cli/migrate"
	"github.com/RobertLogos32/bto-prova/internal/interfaces/cli/provider"
	"github.com/RobertLogos32/bto-prova/internal/interfaces/cli/server"
	"github.com/RobertLogos32/bto-prova/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "otpbroker",
		Short:        "OTP broker - disposable numbers for one-time codes",
		Long:         `otpbroker leases disposable phone numbers for approved clients and relays the verification codes they receive over Telegram.`,
		Version:      version.String(),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		provider.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
