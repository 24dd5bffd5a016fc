// Package generator synthesizes reproducible procurement data: suppliers,
// purchase orders and one delivery per order, with lateness, partial
// deliveries and quality issues that worsen as a supplier's financial risk
// grows.
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/model"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/config"
)

// Behaviour constants for the synthetic dataset
const (
	leadTimeMinDays = 3
	leadTimeMaxDays = 21

	lateProb     = 0.22
	earlyProb    = 0.08
	lateMinDays  = 1
	lateMaxDays  = 14
	earlyMinDays = 1
	earlyMaxDays = 4

	qtyMin = 10
	qtyMax = 500

	partialDeliveryProb = 0.18
	partialMinRatio     = 0.60
	partialMaxRatio     = 0.95

	baseQualityIssueProb = 0.04
)

var categories = []string{"Packaging", "Raw Materials", "Logistics", "Electronics", "Textiles"}

var countries = []string{"DE", "PL", "CZ", "NL", "IT", "ES", "FR", "TR", "CN"}

// Dataset holds one generated batch of raw rows
type Dataset struct {
	Suppliers  []model.Supplier
	Orders     []model.PurchaseOrder
	Deliveries []model.Delivery
}

// profile scales a supplier's misbehaviour with its financial risk: worse
// financial standing means slightly more late, partial and defective
// deliveries.
type profile struct {
	lateProb    float64
	qualityProb float64
	partialProb float64
}

// Generator produces datasets from a seeded RNG, so the same configuration
// always yields the same rows.
type Generator struct {
	cfg       config.GeneratorConfig
	startDate time.Time
	endDate   time.Time
}

// New creates a generator, validating the configured date window
func New(cfg config.GeneratorConfig) (*Generator, error) {
	start, err := time.ParseInLocation("2006-01-02", cfg.StartDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid generator start date %q: %w", cfg.StartDate, err)
	}
	end, err := time.ParseInLocation("2006-01-02", cfg.EndDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid generator end date %q: %w", cfg.EndDate, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("generator end date %s before start date %s", cfg.EndDate, cfg.StartDate)
	}
	return &Generator{cfg: cfg, startDate: start, endDate: end}, nil
}

// Generate synthesizes a full dataset from the configured seed
func (g *Generator) Generate() Dataset {
	rng := rand.New(rand.NewSource(g.cfg.Seed))

	suppliers := g.generateSuppliers(rng)

	profiles := make(map[string]profile, len(suppliers))
	for _, s := range suppliers {
		fin := float64(s.FinancialRiskScore) / 100.0
		profiles[s.SupplierID] = profile{
			lateProb:    clampFloat(lateProb+0.25*fin, 0.05, 0.65),
			qualityProb: clampFloat(baseQualityIssueProb+0.06*fin, 0.01, 0.20),
			partialProb: clampFloat(partialDeliveryProb+0.15*fin, 0.05, 0.55),
		}
	}

	orders := g.generateOrders(rng, suppliers)
	deliveries := g.generateDeliveries(rng, orders, profiles)

	return Dataset{Suppliers: suppliers, Orders: orders, Deliveries: deliveries}
}

func (g *Generator) generateSuppliers(rng *rand.Rand) []model.Supplier {
	suppliers := make([]model.Supplier, 0, g.cfg.NumSuppliers)
	for i := 1; i <= g.cfg.NumSuppliers; i++ {
		suppliers = append(suppliers, model.Supplier{
			SupplierID:         fmt.Sprintf("S%03d", i),
			SupplierName:       fmt.Sprintf("Supplier %02d", i),
			Category:           categories[rng.Intn(len(categories))],
			Country:            countries[rng.Intn(len(countries))],
			FinancialRiskScore: rng.Intn(101),
		})
	}
	return suppliers
}

func (g *Generator) generateOrders(rng *rand.Rand, suppliers []model.Supplier) []model.PurchaseOrder {
	orders := make([]model.PurchaseOrder, 0, g.cfg.NumOrders)
	for j := 1; j <= g.cfg.NumOrders; j++ {
		supplier := suppliers[rng.Intn(len(suppliers))]
		orderDate := g.randDate(rng)
		leadTime := randBetween(rng, leadTimeMinDays, leadTimeMaxDays)

		orders = append(orders, model.PurchaseOrder{
			POID:            fmt.Sprintf("PO%05d", j),
			SupplierID:      supplier.SupplierID,
			OrderDate:       orderDate,
			PromisedDate:    orderDate.AddDate(0, 0, leadTime),
			QuantityOrdered: randBetween(rng, qtyMin, qtyMax),
		})
	}
	return orders
}

func (g *Generator) generateDeliveries(rng *rand.Rand, orders []model.PurchaseOrder, profiles map[string]profile) []model.Delivery {
	deliveries := make([]model.Delivery, 0, len(orders))
	for _, po := range orders {
		prof := profiles[po.SupplierID]

		// Decide late / early / on-time. Lateness depends on the supplier
		// profile; the early probability is fixed.
		var deliveryDate time.Time
		r := rng.Float64()
		switch {
		case r < prof.lateProb:
			deliveryDate = po.PromisedDate.AddDate(0, 0, randBetween(rng, lateMinDays, lateMaxDays))
		case r < prof.lateProb+earlyProb:
			deliveryDate = po.PromisedDate.AddDate(0, 0, -randBetween(rng, earlyMinDays, earlyMaxDays))
		default:
			deliveryDate = po.PromisedDate
		}

		// Partial deliveries
		delivered := po.QuantityOrdered
		if rng.Float64() < prof.partialProb {
			ratio := partialMinRatio + rng.Float64()*(partialMaxRatio-partialMinRatio)
			delivered = int(float64(po.QuantityOrdered)*ratio + 0.5)
			if delivered < 0 {
				delivered = 0
			}
		}

		// Quality issues
		issues := 0
		if rng.Float64() < prof.qualityProb {
			issues = 1
		}

		deliveries = append(deliveries, model.Delivery{
			POID:              po.POID,
			DeliveryDate:      deliveryDate,
			QuantityDelivered: delivered,
			QualityIssues:     issues,
		})
	}
	return deliveries
}

// randDate returns a uniform random date between the configured start and
// end dates (inclusive).
func (g *Generator) randDate(rng *rand.Rand) time.Time {
	span := int(g.endDate.Sub(g.startDate).Hours()/24) + 1
	return g.startDate.AddDate(0, 0, rng.Intn(span))
}

// randBetween returns a uniform random int in [lo, hi]
func randBetween(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

func clampFloat(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
