// Package cmd holds the ecosystem command line.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "ecosystem",
		Short: "Agent ecosystem coordination hub",
		Long: `ecosystem registers a fixed roster of worker agents, relays messages
between them, assigns capability-derived tasks and keeps a running revenue
total from timer ticks and agent claims.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file with the agent roster and settings (env ECOSYSTEM_CONFIG)")

	root.AddCommand(
		newServeCmd(opts),
		newAgentCmd(),
		newStatusCmd(),
		newTasksCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
