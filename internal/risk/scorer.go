package risk

import (
	"sort"
	"strconv"

	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/model"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/config"
)

// Risk tiers derived from risk_score via fixed thresholds
const (
	TierLow      = "low"
	TierMedium   = "medium"
	TierHigh     = "high"
	TierCritical = "critical"
)

// Tier threshold boundaries
const (
	mediumThreshold   = 0.2
	highThreshold     = 0.5
	criticalThreshold = 0.8
)

// Scorer combines normalized KPI badness with the financial risk signal.
// Every method is a pure function of its inputs; two runs over identical
// rows produce identical summaries.
type Scorer struct {
	normalizer        *Normalizer
	performanceWeight float64
	financialWeight   float64
	strictDomain      bool
}

// NewScorer creates a scorer from the scoring configuration
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{
		normalizer:        NewNormalizer(cfg),
		performanceWeight: cfg.PerformanceWeight,
		financialWeight:   cfg.FinancialWeight,
		strictDomain:      cfg.StrictDomain,
	}
}

// PerformanceScore summarizes a supplier's operational behavior on a
// goodness scale: 0 is very poor, 1 is excellent. Worsening any single KPI
// never raises the result.
func (s *Scorer) PerformanceScore(k model.SupplierKPI) float64 {
	return 1.0 - s.normalizer.Normalize(k).Mean()
}

// Combine blends the performance score with the financial risk score into
// the final bounded risk score:
//
//	risk = w_perf * (1 - performance) + w_fin * (financial / 100)
func (s *Scorer) Combine(performanceScore float64, financialRiskScore int) float64 {
	risk := s.performanceWeight*(1.0-performanceScore) +
		s.financialWeight*(float64(financialRiskScore)/100.0)
	return clamp(risk, 0, 1)
}

// TierForScore classifies a risk score into its tier
func TierForScore(score float64) string {
	switch {
	case score < mediumThreshold:
		return TierLow
	case score < highThreshold:
		return TierMedium
	case score < criticalThreshold:
		return TierHigh
	default:
		return TierCritical
	}
}

// Summarize builds the risk summary row for one supplier. The financial
// risk score is validated here because this is the stage consuming it.
func (s *Scorer) Summarize(k model.SupplierKPI, supplier model.Supplier) (model.SupplierRiskSummary, error) {
	if supplier.FinancialRiskScore < 0 || supplier.FinancialRiskScore > 100 {
		return model.SupplierRiskSummary{}, &model.DomainRangeError{
			SupplierID: supplier.SupplierID,
			Field:      "financial_risk_score",
			Value:      strconv.Itoa(supplier.FinancialRiskScore),
		}
	}

	performance := s.PerformanceScore(k)
	score := s.Combine(performance, supplier.FinancialRiskScore)

	return model.SupplierRiskSummary{
		SupplierID:         supplier.SupplierID,
		PerformanceScore:   performance,
		RiskScore:          score,
		FinancialRiskScore: supplier.FinancialRiskScore,
		RiskTier:           TierForScore(score),
	}, nil
}

// Score builds risk summaries for every KPI record. A KPI row whose
// supplier is missing from master data is a referential violation. Domain
// violations follow the same strict/exclude policy as the aggregator;
// excluded supplier ids are returned for the caller's bookkeeping.
func (s *Scorer) Score(kpis []model.SupplierKPI, suppliers []model.Supplier) ([]model.SupplierRiskSummary, []string, error) {
	supplierByID := make(map[string]model.Supplier, len(suppliers))
	for _, sup := range suppliers {
		supplierByID[sup.SupplierID] = sup
	}

	var summaries []model.SupplierRiskSummary
	var excluded []string
	var orphans []string
	for _, k := range kpis {
		sup, ok := supplierByID[k.SupplierID]
		if !ok {
			orphans = append(orphans, k.SupplierID)
			continue
		}
		summary, err := s.Summarize(k, sup)
		if err != nil {
			if s.strictDomain {
				return nil, nil, err
			}
			excluded = append(excluded, k.SupplierID)
			continue
		}
		summaries = append(summaries, summary)
	}
	if len(orphans) > 0 {
		return nil, nil, &model.DataIntegrityError{Table: "supplier_kpis", IDs: orphans}
	}

	// Deterministic output order so reruns produce identical tables
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].SupplierID < summaries[j].SupplierID })
	sort.Strings(excluded)

	return summaries, excluded, nil
}
