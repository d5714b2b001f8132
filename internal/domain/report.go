package domain

import (
	"math"
	"time"
)

// RevenueReport is an immutable snapshot produced on the report cadence.
type RevenueReport struct {
	Timestamp   time.Time         `json:"timestamp"`
	EcosystemID string            `json:"ecosystem_id"`
	Status      EcosystemStatus   `json:"status"`
	Agents      ReportAgents      `json:"agents"`
	Revenue     ReportRevenue     `json:"revenue"`
	Performance ReportPerformance `json:"performance"`
}

// ReportAgents holds agent counts at report time.
type ReportAgents struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Contributing int `json:"contributing"`
}

// ReportRevenue holds revenue figures at report time.
type ReportRevenue struct {
	Total          float64 `json:"total"`
	HourlyRate     float64 `json:"hourly_rate"`
	DailyTarget    float64 `json:"daily_target"`
	ProjectedDaily float64 `json:"projected_daily"`
}

// ReportPerformance holds uptime and progress at report time.
type ReportPerformance struct {
	UptimeSeconds  int64   `json:"uptime"`
	Progress       float64 `json:"progress"`
	TargetProgress int     `json:"target_progress"`
}

// OptimizationReport is the scheduler's observational snapshot.
type OptimizationReport struct {
	Timestamp       time.Time `json:"timestamp"`
	ActiveAgents    int       `json:"active_agents"`
	TotalRevenue    float64   `json:"total_revenue"`
	DailyTarget     float64   `json:"daily_target"`
	Progress        float64   `json:"progress"`
	ProgressPercent int       `json:"progress_percent"`
}

// Progress returns total/target*100 unrounded. A non-positive target yields 0.
func Progress(total, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return total / target * 100
}

// DisplayPercent floors a progress value for display.
func DisplayPercent(progress float64) int {
	return int(math.Floor(progress))
}
