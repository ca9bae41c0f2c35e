package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the authgate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authgate",
		Short: "authgate - username/password login with a session cookie",
		Long: `authgate registers users, checks their passwords and keeps them signed
in with a signed token cookie that guards the dashboard page.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
