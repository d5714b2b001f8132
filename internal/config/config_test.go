package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HubPort)
	assert.Equal(t, 9000, cfg.OrchestratorPort)
	assert.Equal(t, 10000.0, cfg.Targets.Daily)
	assert.Equal(t, time.Minute, cfg.RevenueTick)
	assert.Equal(t, 30*time.Second, cfg.TaskInterval)
	assert.Equal(t, 2*time.Minute, cfg.OptimizeInterval)
	assert.Equal(t, 5*time.Minute, cfg.ReportInterval)
	assert.Equal(t, "http://localhost:8080", cfg.HubURL())
	assert.Contains(t, cfg.EcosystemID, "ai_agents_")
	assert.Len(t, cfg.Agents, 9)
	assert.True(t, cfg.Flags.AutonomousMode)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HUB_PORT", "18080")
	t.Setenv("DAILY_TARGET", "2500")
	t.Setenv("REVENUE_TICK_MS", "1000")
	t.Setenv("ECOSYSTEM_ID", "eco_test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 18080, cfg.HubPort)
	assert.Equal(t, 2500.0, cfg.Targets.Daily)
	assert.Equal(t, time.Second, cfg.RevenueTick)
	assert.Equal(t, "eco_test", cfg.EcosystemID)
}

func TestLoadRosterFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecosystem.yaml")
	content := `
agents:
  - name: Alpha
    category: dev
    capabilities: [code_generation]
    revenue_potential: very_high
  - name: Beta
    category: ops
    capabilities: [task_creation, automation]
    revenue_potential: low
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Agents, 2)

	agents := cfg.RosterAgents()
	assert.Equal(t, "Alpha", agents[0].Name)
	assert.Equal(t, domain.RevenueTierVeryHigh, agents[0].RevenueTier)
	assert.Equal(t, domain.AgentStatusInitializing, agents[0].Status)
	assert.Equal(t, []string{"task_creation", "automation"}, agents[1].Capabilities)
}

func TestLoadRejectsDuplicateAgents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecosystem.yaml")
	content := `
agents:
  - {name: Alpha, capabilities: [a], revenue_potential: low}
  - {name: Alpha, capabilities: [b], revenue_potential: low}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "configured twice")
}

func TestAgentSpecValidate(t *testing.T) {
	assert.Error(t, AgentSpec{}.Validate())
	assert.Error(t, AgentSpec{Name: "x", RevenuePotential: "low"}.Validate())
	assert.Error(t, AgentSpec{Name: "x", Capabilities: []string{"a"}, RevenuePotential: "huge"}.Validate())
	assert.NoError(t, AgentSpec{Name: "x", Capabilities: []string{"a"}, RevenuePotential: "Very-High"}.Validate())
}
