// Package risk folds per-supplier KPIs and the external financial risk
// signal into a single bounded, explainable risk score.
package risk

import (
	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/model"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/config"
)

// Badness holds the four KPIs mapped onto a common [0,1] scale where 1 is
// always maximally unfavorable. Heterogeneous KPIs only become combinable
// after this transform.
type Badness struct {
	OnTime  float64
	Delay   float64
	Fill    float64
	Quality float64
}

// Mean returns the equal-weighted mean of the four badness values
func (b Badness) Mean() float64 {
	return (b.OnTime + b.Delay + b.Fill + b.Quality) / 4.0
}

// Normalizer maps raw KPIs onto the badness scale using fixed, injected
// caps. The caps are configuration, never derived from data, so scores stay
// comparable across runs.
type Normalizer struct {
	delayDaysMax     float64
	qualityIssuesMax float64
}

// NewNormalizer creates a normalizer from the scoring configuration
func NewNormalizer(cfg config.ScoringConfig) *Normalizer {
	return &Normalizer{
		delayDaysMax:     cfg.DelayDaysMax,
		qualityIssuesMax: cfg.QualityIssuesMax,
	}
}

// Normalize maps one KPI record onto the badness scale. Early deliveries
// (negative average delay) clamp to zero delay badness rather than earning
// credit.
func (n *Normalizer) Normalize(k model.SupplierKPI) Badness {
	return Badness{
		OnTime:  1.0 - k.OnTimeDeliveryRate,
		Delay:   clamp(k.AvgDeliveryDelayDays/n.delayDaysMax, 0, 1),
		Fill:    1.0 - k.FillRate,
		Quality: clamp(k.QualityIssueRate/n.qualityIssuesMax, 0, 1),
	}
}

// clamp forces x into [lo, hi]
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
