// Package config provides configuration for the ecosystem controller.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the ecosystem configuration.
type Config struct {
	// Identity
	EcosystemID string

	// Server settings
	HubHost          string // Host advertised in the hub URL handed to agents
	HubPort          int    // Relay stream, /register and /health
	OrchestratorPort int    // /status, /reports and /metrics

	// Revenue targets
	Targets Targets

	// Periodic passes
	RevenueTick      time.Duration
	ReportInterval   time.Duration
	TaskInterval     time.Duration
	OptimizeInterval time.Duration

	// Persisted artifacts
	SharedDir   string
	ReportDir   string
	DatabaseURL string

	// Optional NATS mirror of relayed messages
	NATSURL string

	// Hub settings
	MessageLogSize int
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64

	Flags Flags

	// Logging
	LogLevel  string
	LogFormat string

	Agents []AgentSpec
}

// Targets are the configured revenue targets.
type Targets struct {
	Daily   float64 `json:"daily"`
	Monthly float64 `json:"monthly"`
	Annual  float64 `json:"annual"`
}

// Flags are the feature flags written to the shared configuration.
type Flags struct {
	AutonomousMode         bool
	CollaborationEnabled   bool
	RevenueTrackingEnabled bool
}

// HubURL is the address agents use to reach the hub.
func (c *Config) HubURL() string {
	return fmt.Sprintf("http://%s:%d", c.HubHost, c.HubPort)
}

// Load loads configuration from environment variables and, when path is not
// empty, from a config file (any format viper understands).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		EcosystemID:      v.GetString("ECOSYSTEM_ID"),
		HubHost:          v.GetString("HUB_HOST"),
		HubPort:          v.GetInt("HUB_PORT"),
		OrchestratorPort: v.GetInt("ORCHESTRATOR_PORT"),
		Targets: Targets{
			Daily:   v.GetFloat64("DAILY_TARGET"),
			Monthly: v.GetFloat64("MONTHLY_TARGET"),
			Annual:  v.GetFloat64("ANNUAL_TARGET"),
		},
		RevenueTick:      millis(v, "REVENUE_TICK_MS"),
		ReportInterval:   millis(v, "REPORT_INTERVAL_MS"),
		TaskInterval:     millis(v, "TASK_INTERVAL_MS"),
		OptimizeInterval: millis(v, "OPTIMIZE_INTERVAL_MS"),
		SharedDir:        v.GetString("SHARED_DIR"),
		ReportDir:        v.GetString("REPORT_DIR"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		NATSURL:          v.GetString("NATS_URL"),
		MessageLogSize:   v.GetInt("MESSAGE_LOG_SIZE"),
		PingInterval:     millis(v, "WS_PING_INTERVAL_MS"),
		WriteTimeout:     millis(v, "WS_WRITE_TIMEOUT_MS"),
		ReadTimeout:      millis(v, "WS_READ_TIMEOUT_MS"),
		MaxMessageSize:   v.GetInt64("WS_MAX_MESSAGE_SIZE"),
		Flags: Flags{
			AutonomousMode:         v.GetBool("AUTONOMOUS_MODE"),
			CollaborationEnabled:   v.GetBool("COLLABORATION_ENABLED"),
			RevenueTrackingEnabled: v.GetBool("REVENUE_TRACKING_ENABLED"),
		},
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
		Agents:    DefaultAgents(),
	}

	if cfg.EcosystemID == "" {
		cfg.EcosystemID = fmt.Sprintf("ai_agents_%d", time.Now().UnixMilli())
	}

	if v.IsSet("agents") {
		var specs []AgentSpec
		if err := v.UnmarshalKey("agents", &specs); err != nil {
			return nil, fmt.Errorf("decode agents: %w", err)
		}
		cfg.Agents = specs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the roster and the numeric settings.
func (c *Config) Validate() error {
	if c.Targets.Daily <= 0 {
		return fmt.Errorf("daily target must be positive, got %v", c.Targets.Daily)
	}
	for name, d := range map[string]time.Duration{
		"revenue tick":      c.RevenueTick,
		"report interval":   c.ReportInterval,
		"task interval":     c.TaskInterval,
		"optimize interval": c.OptimizeInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	seen := make(map[string]bool, len(c.Agents))
	for i, a := range c.Agents {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("agent %d: %w", i, err)
		}
		if seen[a.Name] {
			return fmt.Errorf("agent %q configured twice", a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ECOSYSTEM_ID", "")
	v.SetDefault("HUB_HOST", "localhost")
	v.SetDefault("HUB_PORT", 8080)
	v.SetDefault("ORCHESTRATOR_PORT", 9000)
	v.SetDefault("DAILY_TARGET", 10000)
	v.SetDefault("MONTHLY_TARGET", 300000)
	v.SetDefault("ANNUAL_TARGET", 3600000)
	v.SetDefault("REVENUE_TICK_MS", 60000)
	v.SetDefault("REPORT_INTERVAL_MS", 300000)
	v.SetDefault("TASK_INTERVAL_MS", 30000)
	v.SetDefault("OPTIMIZE_INTERVAL_MS", 120000)
	v.SetDefault("SHARED_DIR", "./shared-memory")
	v.SetDefault("REPORT_DIR", "./revenue-tracker")
	v.SetDefault("DATABASE_URL", "file:ecosystem.db?cache=shared&mode=rwc")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("MESSAGE_LOG_SIZE", 1000)
	v.SetDefault("WS_PING_INTERVAL_MS", 30000)
	v.SetDefault("WS_WRITE_TIMEOUT_MS", 10000)
	v.SetDefault("WS_READ_TIMEOUT_MS", 60000)
	v.SetDefault("WS_MAX_MESSAGE_SIZE", 65536)
	v.SetDefault("AUTONOMOUS_MODE", true)
	v.SetDefault("COLLABORATION_ENABLED", true)
	v.SetDefault("REVENUE_TRACKING_ENABLED", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func millis(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt64(key)) * time.Millisecond
}
