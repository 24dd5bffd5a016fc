// Package kpi turns raw purchase order / delivery rows into per-supplier
// operational KPIs. All computation happens in memory over the full batch;
// the aggregator never writes to the database itself.
package kpi

import (
	"sort"
	"strconv"
	"time"

	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/model"
)

// Aggregator joins purchase orders 1:1 to deliveries and computes one
// SupplierKPI record per supplier with at least one order.
type Aggregator struct {
	// strictDomain: fail the whole run on a DomainRangeError instead of
	// excluding the offending supplier.
	strictDomain bool
}

// NewAggregator creates an aggregator with the given domain violation policy
func NewAggregator(strictDomain bool) *Aggregator {
	return &Aggregator{strictDomain: strictDomain}
}

// pair is one purchase order joined to its delivery
type pair struct {
	order    model.PurchaseOrder
	delivery model.Delivery
}

// Aggregate computes per-supplier KPIs over the joined order/delivery pairs.
// Suppliers with zero orders are simply absent from the result. Referential
// mismatches return a DataIntegrityError naming the offending ids. Domain
// violations either fail the run (strict) or exclude the supplier; excluded
// supplier ids are returned so callers can keep them out of downstream
// derived tables too.
func (a *Aggregator) Aggregate(
	suppliers []model.Supplier,
	orders []model.PurchaseOrder,
	deliveries []model.Delivery,
) ([]model.SupplierKPI, []string, error) {
	supplierSet := make(map[string]bool, len(suppliers))
	for _, s := range suppliers {
		supplierSet[s.SupplierID] = true
	}

	deliveryByPO := make(map[string]model.Delivery, len(deliveries))
	for _, d := range deliveries {
		deliveryByPO[d.POID] = d
	}

	// Referential checks first: an unmatched row must never silently shrink
	// an average.
	var unknownSuppliers []string
	var missingDeliveries []string
	orderIDs := make(map[string]bool, len(orders))
	for _, po := range orders {
		orderIDs[po.POID] = true
		if !supplierSet[po.SupplierID] {
			unknownSuppliers = append(unknownSuppliers, po.POID)
		}
		if _, ok := deliveryByPO[po.POID]; !ok {
			missingDeliveries = append(missingDeliveries, po.POID)
		}
	}
	if len(unknownSuppliers) > 0 {
		return nil, nil, &model.DataIntegrityError{Table: "purchase_orders", IDs: unknownSuppliers}
	}
	if len(missingDeliveries) > 0 {
		return nil, nil, &model.DataIntegrityError{Table: "purchase_orders", IDs: missingDeliveries}
	}

	var orphanDeliveries []string
	for _, d := range deliveries {
		if !orderIDs[d.POID] {
			orphanDeliveries = append(orphanDeliveries, d.POID)
		}
	}
	if len(orphanDeliveries) > 0 {
		return nil, nil, &model.DataIntegrityError{Table: "deliveries", IDs: orphanDeliveries}
	}

	// Group joined pairs by supplier
	pairsBySupplier := make(map[string][]pair)
	for _, po := range orders {
		pairsBySupplier[po.SupplierID] = append(pairsBySupplier[po.SupplierID], pair{
			order:    po,
			delivery: deliveryByPO[po.POID],
		})
	}

	var kpis []model.SupplierKPI
	var excluded []string
	for supplierID, pairs := range pairsBySupplier {
		k, err := aggregateSupplier(supplierID, pairs)
		if err != nil {
			if a.strictDomain {
				return nil, nil, err
			}
			excluded = append(excluded, supplierID)
			continue
		}
		kpis = append(kpis, k)
	}

	// Deterministic output order so reruns produce identical tables
	sort.Slice(kpis, func(i, j int) bool { return kpis[i].SupplierID < kpis[j].SupplierID })
	sort.Strings(excluded)

	return kpis, excluded, nil
}

// aggregateSupplier computes the KPI record for one supplier's pairs
func aggregateSupplier(supplierID string, pairs []pair) (model.SupplierKPI, error) {
	if err := validatePairs(supplierID, pairs); err != nil {
		return model.SupplierKPI{}, err
	}

	n := len(pairs)
	onTime := 0
	delaySum := 0.0
	fillSum := 0.0
	issueSum := 0

	for _, p := range pairs {
		if !p.delivery.DeliveryDate.After(p.order.PromisedDate) {
			onTime++
		}
		delaySum += float64(daysBetween(p.order.PromisedDate, p.delivery.DeliveryDate))

		// Fill rate is capped per order: over-delivery never compensates for
		// a short delivery elsewhere.
		fill := float64(p.delivery.QuantityDelivered) / float64(p.order.QuantityOrdered)
		if fill > 1.0 {
			fill = 1.0
		}
		fillSum += fill

		issueSum += p.delivery.QualityIssues
	}

	return model.SupplierKPI{
		SupplierID:           supplierID,
		OnTimeDeliveryRate:   float64(onTime) / float64(n),
		AvgDeliveryDelayDays: delaySum / float64(n),
		FillRate:             fillSum / float64(n),
		QualityIssueRate:     float64(issueSum) / float64(n),
		NPOs:                 n,
	}, nil
}

// validatePairs checks every joined row against its declared domain. Rows
// with quantity_ordered <= 0 would otherwise divide by zero in the fill
// rate, so validation always runs before any averaging.
func validatePairs(supplierID string, pairs []pair) error {
	for _, p := range pairs {
		if p.order.QuantityOrdered <= 0 {
			return &model.DomainRangeError{
				SupplierID: supplierID,
				Field:      "quantity_ordered",
				Value:      strconv.Itoa(p.order.QuantityOrdered),
			}
		}
		if p.delivery.QuantityDelivered < 0 {
			return &model.DomainRangeError{
				SupplierID: supplierID,
				Field:      "quantity_delivered",
				Value:      strconv.Itoa(p.delivery.QuantityDelivered),
			}
		}
		if p.delivery.QualityIssues < 0 {
			return &model.DomainRangeError{
				SupplierID: supplierID,
				Field:      "quality_issues",
				Value:      strconv.Itoa(p.delivery.QualityIssues),
			}
		}
		if p.order.PromisedDate.Before(p.order.OrderDate) {
			return &model.DomainRangeError{
				SupplierID: supplierID,
				Field:      "promised_date",
				Value:      p.order.PromisedDate.Format("2006-01-02"),
			}
		}
	}
	return nil
}

// daysBetween returns the signed whole-day difference to - from. Dates are
// stored at midnight, so the division is exact.
func daysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}
