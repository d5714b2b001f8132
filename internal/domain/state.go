package domain

import "time"

// Contributor is the first-seen record of an agent in revenue_tracking.
type Contributor struct {
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	HourlyRevenue float64  `json:"hourly_revenue"`
	Capabilities  []string `json:"capabilities"`
}

// RevenueTracking is the aggregate revenue state.
type RevenueTracking struct {
	TotalRevenue       float64       `json:"total_revenue"`
	HourlyRate         float64       `json:"hourly_rate"`
	DailyTarget        float64       `json:"daily_target"`
	AgentsContributing []Contributor `json:"agents_contributing"`
}

// Clone returns a deep copy.
func (r RevenueTracking) Clone() RevenueTracking {
	out := r
	out.AgentsContributing = make([]Contributor, len(r.AgentsContributing))
	for i, c := range r.AgentsContributing {
		c.Capabilities = append([]string(nil), c.Capabilities...)
		out.AgentsContributing[i] = c
	}
	return out
}

// EcosystemState is a point-in-time view of the ecosystem aggregate.
type EcosystemState struct {
	ID                  string          `json:"id"`
	Status              EcosystemStatus `json:"status"`
	StartTime           time.Time       `json:"start_time"`
	ActiveAgents        int             `json:"active_agents"`
	TotalAgents         int             `json:"total_agents"`
	RevenueTracking     RevenueTracking `json:"revenue_tracking"`
	CommunicationHubURL string          `json:"communication_hub"`
}

// StatusSnapshot is the read-only dump served to external monitors.
type StatusSnapshot struct {
	Ecosystem        EcosystemState  `json:"ecosystem"`
	Agents           []Agent         `json:"agents"`
	RevenueTracking  RevenueTracking `json:"revenue_tracking"`
	CommunicationHub string          `json:"communication_hub"`
}
