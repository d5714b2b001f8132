package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/ecosystem/internal/agentclient"
	"github.com/xiaot623/gogo/ecosystem/internal/logger"
)

type agentOptions struct {
	name    string
	hubURL  string
	revenue float64
	once    bool
}

func newAgentCmd() *cobra.Command {
	opts := &agentOptions{}
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Register as an agent and join the relay",
		Long: `agent registers NAME with the hub (retrying while the hub is unavailable),
joins the relay stream and prints every message it receives. With --revenue it
first emits a revenue_generated claim.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAgent(ctx, cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "agent name")
	cmd.Flags().StringVar(&opts.hubURL, "hub", "http://localhost:8080", "hub base URL")
	cmd.Flags().Float64Var(&opts.revenue, "revenue", 0, "emit a revenue claim of this amount after joining")
	cmd.Flags().BoolVar(&opts.once, "once", false, "exit after registering and sending the claim")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runAgent(ctx context.Context, cmd *cobra.Command, opts *agentOptions) error {
	if opts.revenue < 0 {
		return errors.New("--revenue must not be negative")
	}
	out := cmd.OutOrStdout()
	client := agentclient.New(agentclient.Options{
		HubURL: opts.hubURL,
		Logger: logger.New("warn", "text"),
	})

	ack, err := client.Register(ctx, opts.name)
	if err != nil {
		return fmt.Errorf("register %s: %w", opts.name, err)
	}
	fmt.Fprintf(out, "registered %s\n", ack.Registered)

	stream, err := client.Connect(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	if opts.revenue > 0 {
		if err := stream.SendRevenue(opts.name, opts.revenue); err != nil {
			return fmt.Errorf("send revenue: %w", err)
		}
		fmt.Fprintf(out, "sent revenue claim %.2f\n", opts.revenue)
	}
	if opts.once {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-stream.Messages():
			if !ok {
				if err := stream.Err(); err != nil && ctx.Err() == nil {
					return fmt.Errorf("relay closed: %w", err)
				}
				return nil
			}
			fmt.Fprintln(out, string(msg))
		}
	}
}
