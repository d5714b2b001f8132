// Package scheduler derives per-agent task lists and progress reports. It
// reads registry and revenue state and never writes back.
package scheduler

import (
	"log/slog"
	"math"
	"time"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

// Agents is the registry view used for task assignment.
type Agents interface {
	ListActive() []domain.Agent
}

// Totals is the revenue view used for optimization reports.
type Totals interface {
	Totals() (total, hourlyRate, dailyTarget float64)
}

// Assignment is the ephemeral task list of one agent.
type Assignment struct {
	Agent string   `json:"agent"`
	Tasks []string `json:"tasks"`
}

// Scheduler runs the task assignment and optimization passes.
type Scheduler struct {
	agents Agents
	totals Totals
	log    *slog.Logger
	now    func() time.Time
}

// New creates a scheduler.
func New(agents Agents, totals Totals, log *slog.Logger) *Scheduler {
	return &Scheduler{
		agents: agents,
		totals: totals,
		log:    log.With("component", "scheduler"),
		now:    time.Now,
	}
}

// AssignTasks derives the task list of every active agent in registry order.
// Agents whose capabilities map to no task are omitted. The second return
// value is the total number of tasks.
func (s *Scheduler) AssignTasks() ([]Assignment, int) {
	var (
		out   []Assignment
		count int
	)
	for _, agent := range s.agents.ListActive() {
		tasks := DeriveTasks(agent.Capabilities)
		if len(tasks) == 0 {
			continue
		}
		out = append(out, Assignment{Agent: agent.Name, Tasks: tasks})
		count += len(tasks)
		s.log.Info("tasks assigned", "agent", agent.Name, "count", len(tasks))
	}
	s.log.Debug("task assignment pass complete", "agents", len(out), "tasks", count)
	return out, count
}

// Optimize builds a point-in-time progress report.
func (s *Scheduler) Optimize() domain.OptimizationReport {
	total, _, target := s.totals.Totals()
	active := len(s.agents.ListActive())
	progress := domain.Progress(total, target)

	report := domain.OptimizationReport{
		Timestamp:       s.now(),
		ActiveAgents:    active,
		TotalRevenue:    total,
		DailyTarget:     target,
		Progress:        progress,
		ProgressPercent: domain.DisplayPercent(progress),
	}
	s.log.Info("performance analysis",
		"current_revenue", math.Floor(total),
		"daily_target", target,
		"progress_percent", report.ProgressPercent,
		"active_agents", active)
	return report
}
