package cmd

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/ecosystem/internal/agentclient"
	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

func newStatusCmd() *cobra.Command {
	var orchestratorURL string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the ecosystem status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := agentclient.New(agentclient.Options{OrchestratorURL: orchestratorURL})
			snap, err := client.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch status: %w", err)
			}
			return renderStatus(cmd.OutOrStdout(), snap)
		},
	}
	cmd.Flags().StringVar(&orchestratorURL, "orchestrator", "http://localhost:9000", "orchestrator base URL")
	return cmd
}

func renderStatus(w io.Writer, snap domain.StatusSnapshot) error {
	eco := snap.Ecosystem
	tr := snap.RevenueTracking
	progress := domain.Progress(tr.TotalRevenue, tr.DailyTarget)

	fmt.Fprintf(w, "Ecosystem: %s (%s)\n", eco.ID, eco.Status)
	fmt.Fprintf(w, "Hub: %s\n", snap.CommunicationHub)
	fmt.Fprintf(w, "Agents: %d/%d active\n", eco.ActiveAgents, eco.TotalAgents)
	fmt.Fprintf(w, "Revenue: $%.0f of $%.0f (%d%%), $%.0f/hour\n\n",
		math.Floor(tr.TotalRevenue), tr.DailyTarget, domain.DisplayPercent(progress), tr.HourlyRate)

	table := tablewriter.NewTable(w)
	table.Header("AGENT", "CATEGORY", "TIER", "STATUS", "REGISTERED", "CAPABILITIES")
	for _, a := range snap.Agents {
		registered := "no"
		if a.Registered {
			registered = "yes"
		}
		if err := table.Append([]string{
			a.Name,
			a.Category,
			string(a.RevenueTier),
			string(a.Status),
			registered,
			strings.Join(a.Capabilities, ", "),
		}); err != nil {
			return fmt.Errorf("render agent %s: %w", a.Name, err)
		}
	}
	return table.Render()
}
