// Package domain defines the core domain models for the agent ecosystem.
package domain

import (
	"fmt"
	"strings"
)

// AgentStatus represents the liveness status of a configured agent.
type AgentStatus string

const (
	AgentStatusInitializing AgentStatus = "initializing"
	AgentStatusActive       AgentStatus = "active"
	AgentStatusFailed       AgentStatus = "failed"
)

// Terminal reports whether no further transition is allowed out of the status.
func (s AgentStatus) Terminal() bool {
	return s == AgentStatusFailed
}

// RevenueTier is the declared revenue potential of an agent.
type RevenueTier string

const (
	RevenueTierLow      RevenueTier = "low"
	RevenueTierMedium   RevenueTier = "medium"
	RevenueTierHigh     RevenueTier = "high"
	RevenueTierVeryHigh RevenueTier = "very_high"
)

// ParseRevenueTier converts a configured tier name. Dashes and case are ignored,
// so "very-high", "VeryHigh" and "very_high" are equivalent.
func ParseRevenueTier(s string) (RevenueTier, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	switch norm {
	case "low":
		return RevenueTierLow, nil
	case "medium":
		return RevenueTierMedium, nil
	case "high":
		return RevenueTierHigh, nil
	case "veryhigh":
		return RevenueTierVeryHigh, nil
	}
	return "", fmt.Errorf("unknown revenue tier %q", s)
}

// EcosystemStatus represents the lifecycle status of the whole ecosystem.
type EcosystemStatus string

const (
	EcosystemStatusInitializing EcosystemStatus = "INITIALIZING"
	EcosystemStatusOperational  EcosystemStatus = "OPERATIONAL"
	EcosystemStatusDegraded     EcosystemStatus = "DEGRADED"
	EcosystemStatusStopped      EcosystemStatus = "STOPPED"
)

// MessageType is the type tag carried by every relayed message.
type MessageType string

const (
	MessageTypeRevenueGenerated MessageType = "revenue_generated"
)
