package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/ecosystem/internal/config"
	"github.com/xiaot623/gogo/ecosystem/internal/domain"
	"github.com/xiaot623/gogo/ecosystem/internal/scheduler"
)

func newTasksCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "Print the tasks derived from each configured agent's capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath(root))
			if err != nil {
				return err
			}
			renderTasks(cmd.OutOrStdout(), cfg.RosterAgents())
			return nil
		},
	}
}

func renderTasks(w io.Writer, agents []domain.Agent) {
	total := 0
	for _, a := range agents {
		tasks := scheduler.DeriveTasks(a.Capabilities)
		total += len(tasks)
		fmt.Fprintf(w, "%s: %d tasks\n", a.Name, len(tasks))
		for _, t := range tasks {
			fmt.Fprintf(w, "  - %s\n", t)
		}
	}
	fmt.Fprintf(w, "total: %d tasks across %d agents\n", total, len(agents))
}
