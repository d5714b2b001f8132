package revenue

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

// Estimator produces a synthetic hourly contribution for an active agent.
// The numbers are an accounting policy, not a measurement.
type Estimator interface {
	HourlyRate(agent domain.Agent) float64
}

// Band is a half-open range [Min, Max) of hourly contributions.
type Band struct {
	Min float64
	Max float64
}

// DefaultBands are distinct, non-overlapping and ordered by tier.
func DefaultBands() map[domain.RevenueTier]Band {
	return map[domain.RevenueTier]Band{
		domain.RevenueTierLow:      {Min: 100, Max: 300},
		domain.RevenueTierMedium:   {Min: 300, Max: 800},
		domain.RevenueTierHigh:     {Min: 800, Max: 1500},
		domain.RevenueTierVeryHigh: {Min: 1500, Max: 3500},
	}
}

var tierOrder = []domain.RevenueTier{
	domain.RevenueTierLow,
	domain.RevenueTierMedium,
	domain.RevenueTierHigh,
	domain.RevenueTierVeryHigh,
}

// BandEstimator samples a whole-dollar rate uniformly from the agent's tier band.
type BandEstimator struct {
	bands  map[domain.RevenueTier]Band
	sample func() float64
}

// NewBandEstimator validates that every tier has a band and that bands are
// ordered Low < Medium < High < VeryHigh without overlapping.
func NewBandEstimator(bands map[domain.RevenueTier]Band) (*BandEstimator, error) {
	var prev *Band
	for _, tier := range tierOrder {
		b, ok := bands[tier]
		if !ok {
			return nil, fmt.Errorf("missing band for tier %s", tier)
		}
		if b.Min < 0 || b.Max <= b.Min {
			return nil, fmt.Errorf("invalid band for tier %s: [%v, %v)", tier, b.Min, b.Max)
		}
		if prev != nil && b.Min < prev.Max {
			return nil, fmt.Errorf("band for tier %s overlaps the tier below", tier)
		}
		prev = &b
	}
	return &BandEstimator{bands: bands, sample: rand.Float64}, nil
}

// HourlyRate implements Estimator. Unknown tiers fall back to the low band.
func (e *BandEstimator) HourlyRate(agent domain.Agent) float64 {
	b, ok := e.bands[agent.RevenueTier]
	if !ok {
		b = e.bands[domain.RevenueTierLow]
	}
	return b.Min + math.Floor(e.sample()*(b.Max-b.Min))
}

// FixedEstimator returns a constant rate per tier. Missing tiers yield 0.
type FixedEstimator map[domain.RevenueTier]float64

// HourlyRate implements Estimator.
func (f FixedEstimator) HourlyRate(agent domain.Agent) float64 {
	return f[agent.RevenueTier]
}
