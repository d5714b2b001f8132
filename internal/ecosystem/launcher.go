package ecosystem

import (
	"context"
	"log/slog"

	"github.com/xiaot623/gogo/ecosystem/internal/artifact"
	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

// Launcher brings one configured agent up. A returned error marks the agent
// failed for the rest of the run.
type Launcher interface {
	Launch(ctx context.Context, agent domain.Agent) error
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, agent domain.Agent) error

// Launch implements Launcher.
func (f LauncherFunc) Launch(ctx context.Context, agent domain.Agent) error {
	return f(ctx, agent)
}

// ConfigLauncher hands an agent its ecosystem configuration by writing
// ecosystem-config.json into the agent's work directory. Agents without a
// work directory have nothing to receive and launch trivially. The agent
// process itself is supervised elsewhere.
type ConfigLauncher struct {
	writer     *artifact.Writer
	hubURL     string
	autonomous bool
	log        *slog.Logger
}

// NewConfigLauncher creates a launcher writing through w.
func NewConfigLauncher(w *artifact.Writer, hubURL string, autonomous bool, log *slog.Logger) *ConfigLauncher {
	return &ConfigLauncher{writer: w, hubURL: hubURL, autonomous: autonomous, log: log}
}

// Launch implements Launcher.
func (l *ConfigLauncher) Launch(ctx context.Context, agent domain.Agent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if agent.WorkDir == "" {
		l.log.Debug("agent has no work directory, skipping config", "agent", agent.Name)
		return nil
	}

	agent.Status = domain.AgentStatusActive
	path, err := l.writer.WriteAgentConfig(artifact.AgentConfig{
		Agent:                agent,
		EcosystemIntegration: true,
		CommunicationHub:     l.hubURL,
		RevenueSharing:       true,
		AutonomousMode:       l.autonomous,
	})
	if err != nil {
		return err
	}
	l.log.Debug("agent config written", "agent", agent.Name, "path", path)
	return nil
}
