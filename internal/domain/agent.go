package domain

import "time"

// Agent is a configured worker agent known to the registry.
type Agent struct {
	Name         string      `json:"name"`
	Category     string      `json:"category"`
	Capabilities []string    `json:"capabilities"`
	RevenueTier  RevenueTier `json:"revenue_potential"`
	Status       AgentStatus `json:"status"`
	Port         int         `json:"port,omitempty"`
	WorkDir      string      `json:"path,omitempty"`
	Registered   bool        `json:"registered"`
	LastSeen     *time.Time  `json:"last_seen,omitempty"`
}

// Clone returns a deep copy safe to hand out of the registry.
func (a Agent) Clone() Agent {
	out := a
	out.Capabilities = append([]string(nil), a.Capabilities...)
	if a.LastSeen != nil {
		ts := *a.LastSeen
		out.LastSeen = &ts
	}
	return out
}

// RegistrationAck acknowledges a hub registration.
type RegistrationAck struct {
	Name       string    `json:"registered"`
	Configured bool      `json:"configured"`
	First      bool      `json:"first"`
	SeenAt     time.Time `json:"seen_at"`
}
