// Package revenue maintains the running revenue total from timer ticks and
// relayed revenue claims.
package revenue

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

// ActiveLister is the registry view the aggregator reads.
type ActiveLister interface {
	ListActive() []domain.Agent
}

// Observer is told about every applied update.
type Observer interface {
	RevenueUpdated(total, hourlyRate float64)
}

// TickResult summarises one timer tick.
type TickResult struct {
	ActiveAgents    int
	HourlyRate      float64
	Accrued         float64
	TotalRevenue    float64
	NewContributors []string
}

// Aggregator is the single writer of revenue tracking. Ticks and claims go
// through the same mutex, so they never interleave and the total never
// decreases.
type Aggregator struct {
	mu           sync.Mutex
	tracking     domain.RevenueTracking
	contributors mapset.Set

	agents    ActiveLister
	estimator Estimator
	observers []Observer
	log       *slog.Logger
}

// NewAggregator creates an aggregator with a zero total.
func NewAggregator(agents ActiveLister, estimator Estimator, dailyTarget float64, log *slog.Logger) *Aggregator {
	return &Aggregator{
		tracking: domain.RevenueTracking{
			DailyTarget:        dailyTarget,
			AgentsContributing: []domain.Contributor{},
		},
		contributors: mapset.NewSet(),
		agents:       agents,
		estimator:    estimator,
		log:          log.With("component", "revenue"),
	}
}

// AddObserver subscribes o to updates. Call before the first tick.
func (a *Aggregator) AddObserver(o Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, o)
}

// Tick applies one minute of accrual: the hourly rate is recomputed from the
// active agents, replacing the previous rate, and rate/60 is added to the
// total. Agents are recorded as contributors the first time they are seen.
func (a *Aggregator) Tick() TickResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	active := a.agents.ListActive()
	res := TickResult{ActiveAgents: len(active)}

	hourly := 0.0
	for _, agent := range active {
		rate := a.estimator.HourlyRate(agent)
		if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			a.log.Warn("estimator returned unusable rate, counting zero", "agent", agent.Name, "rate", rate)
			rate = 0
		}
		hourly += rate

		if a.contributors.Add(agent.Name) {
			a.tracking.AgentsContributing = append(a.tracking.AgentsContributing, domain.Contributor{
				Name:          agent.Name,
				Category:      agent.Category,
				HourlyRevenue: rate,
				Capabilities:  append([]string(nil), agent.Capabilities...),
			})
			res.NewContributors = append(res.NewContributors, agent.Name)
		}
	}

	a.tracking.HourlyRate = hourly
	res.Accrued = hourly / 60
	a.tracking.TotalRevenue += res.Accrued

	res.HourlyRate = hourly
	res.TotalRevenue = a.tracking.TotalRevenue
	a.notify()

	a.log.Info("revenue tick",
		"total", math.Floor(a.tracking.TotalRevenue),
		"hourly_rate", hourly,
		"active_agents", len(active),
		"daily_target", a.tracking.DailyTarget)
	return res
}

// RecordRevenue adds an explicit claim to the total at face value. Negative
// or non-finite amounts are refused with domain.ErrInvalidAmount.
func (a *Aggregator) RecordRevenue(agent string, amount float64) error {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: %v from %q", domain.ErrInvalidAmount, amount, agent)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.tracking.TotalRevenue += amount
	a.notify()
	a.log.Info("revenue update", "agent", agent, "amount", amount, "total", a.tracking.TotalRevenue)
	return nil
}

func (a *Aggregator) notify() {
	for _, o := range a.observers {
		o.RevenueUpdated(a.tracking.TotalRevenue, a.tracking.HourlyRate)
	}
}

// Tracking returns a copy of the current revenue tracking.
func (a *Aggregator) Tracking() domain.RevenueTracking {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tracking.Clone()
}

// Totals returns the total, the hourly rate and the daily target.
func (a *Aggregator) Totals() (total, hourlyRate, dailyTarget float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tracking.TotalRevenue, a.tracking.HourlyRate, a.tracking.DailyTarget
}

// ReportContext carries the ecosystem facts a report needs besides revenue.
type ReportContext struct {
	EcosystemID  string
	Status       domain.EcosystemStatus
	StartedAt    time.Time
	TotalAgents  int
	ActiveAgents int
}

// Report builds an independent snapshot of the current state.
func (a *Aggregator) Report(now time.Time, rc ReportContext) domain.RevenueReport {
	a.mu.Lock()
	t := a.tracking
	contributing := len(t.AgentsContributing)
	a.mu.Unlock()

	progress := domain.Progress(t.TotalRevenue, t.DailyTarget)
	return domain.RevenueReport{
		Timestamp:   now,
		EcosystemID: rc.EcosystemID,
		Status:      rc.Status,
		Agents: domain.ReportAgents{
			Total:        rc.TotalAgents,
			Active:       rc.ActiveAgents,
			Contributing: contributing,
		},
		Revenue: domain.ReportRevenue{
			Total:          math.Floor(t.TotalRevenue),
			HourlyRate:     t.HourlyRate,
			DailyTarget:    t.DailyTarget,
			ProjectedDaily: t.HourlyRate * 24,
		},
		Performance: domain.ReportPerformance{
			UptimeSeconds:  int64(now.Sub(rc.StartedAt).Seconds()),
			Progress:       progress,
			TargetProgress: domain.DisplayPercent(progress),
		},
	}
}
