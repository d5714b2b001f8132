package config

import (
	"errors"
	"fmt"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

// AgentSpec is one roster entry as written in a config file.
type AgentSpec struct {
	Name             string   `mapstructure:"name" json:"name"`
	Category         string   `mapstructure:"category" json:"category"`
	Capabilities     []string `mapstructure:"capabilities" json:"capabilities"`
	RevenuePotential string   `mapstructure:"revenue_potential" json:"revenue_potential"`
	Port             int      `mapstructure:"port" json:"port,omitempty"`
	Path             string   `mapstructure:"path" json:"path,omitempty"`
}

// Validate checks a single roster entry.
func (s AgentSpec) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if len(s.Capabilities) == 0 {
		return fmt.Errorf("agent %q: at least one capability is required", s.Name)
	}
	if _, err := domain.ParseRevenueTier(s.RevenuePotential); err != nil {
		return fmt.Errorf("agent %q: %w", s.Name, err)
	}
	return nil
}

// Agent converts the roster entry into a domain agent in the initializing state.
func (s AgentSpec) Agent() domain.Agent {
	tier, _ := domain.ParseRevenueTier(s.RevenuePotential)
	return domain.Agent{
		Name:         s.Name,
		Category:     s.Category,
		Capabilities: append([]string(nil), s.Capabilities...),
		RevenueTier:  tier,
		Status:       domain.AgentStatusInitializing,
		Port:         s.Port,
		WorkDir:      s.Path,
	}
}

// RosterAgents converts every roster entry, keeping configuration order.
func (c *Config) RosterAgents() []domain.Agent {
	out := make([]domain.Agent, 0, len(c.Agents))
	for _, s := range c.Agents {
		out = append(out, s.Agent())
	}
	return out
}

// DefaultAgents is the built-in roster.
func DefaultAgents() []AgentSpec {
	return []AgentSpec{
		{Name: "Adala", Category: "data-labeling", Port: 8001, RevenuePotential: "high",
			Capabilities: []string{"autonomous_data_labeling", "memory_management", "tool_usage"}},
		{Name: "AgentForge", Category: "framework", Port: 8002, RevenuePotential: "high",
			Capabilities: []string{"low_code_framework", "multi_llm", "memory_management"}},
		{Name: "Agents", Category: "multi-agent", Port: 8003, RevenuePotential: "high",
			Capabilities: []string{"multi_agent_communication", "web_navigation", "tool_usage"}},
		{Name: "AutoGen", Category: "microsoft", Port: 8004, RevenuePotential: "very_high",
			Capabilities: []string{"multi_agent_conversation", "code_generation", "automation"}},
		{Name: "BabyAGI", Category: "task-management", Port: 8005, RevenuePotential: "high",
			Capabilities: []string{"task_creation", "prioritization", "execution"}},
		{Name: "CrewAI", Category: "orchestration", Port: 8006, RevenuePotential: "very_high",
			Capabilities: []string{"role_based_agents", "collaborative_intelligence", "task_delegation"}},
		{Name: "LangGraph", Category: "workflow", Port: 8007, RevenuePotential: "very_high",
			Capabilities: []string{"stateful_workflows", "multi_agent_apps", "human_in_loop"}},
		{Name: "MetaGPT", Category: "software-company", Port: 8008, RevenuePotential: "very_high",
			Capabilities: []string{"multi_role_agents", "software_development", "product_management"}},
		{Name: "OpenDevin", Category: "development", Port: 8009, RevenuePotential: "very_high",
			Capabilities: []string{"code_generation", "web_browsing", "sandbox_execution"}},
	}
}
