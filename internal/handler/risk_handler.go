package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/model"
	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/risk"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/database"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/logger"
	"github.com/Flazoukie/supplier-performance-data-pipeline/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Valid tier filter values
var riskTiers = map[string]bool{
	risk.TierLow:      true,
	risk.TierMedium:   true,
	risk.TierHigh:     true,
	risk.TierCritical: true,
}

// Sortable columns for the risk list endpoint, mapped to their table-qualified
// form: the list query joins suppliers, which shares supplier_id and
// financial_risk_score and would make the bare columns ambiguous.
var riskSortColumns = map[string]string{
	"supplier_id":          "supplier_risk_summary.supplier_id",
	"performance_score":    "supplier_risk_summary.performance_score",
	"risk_score":           "supplier_risk_summary.risk_score",
	"financial_risk_score": "supplier_risk_summary.financial_risk_score",
}

// ListRiskSummaries retrieves the derived risk summary table, highest risk
// first by default
func ListRiskSummaries(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing supplier risk summaries with filters")
	prometheus.RecordQueryOperation("list_risk")

	page, limit := pagination(c)
	offset := (page - 1) * limit

	query := database.GetDB().Model(&model.SupplierRiskSummary{}).
		Joins("JOIN suppliers ON suppliers.supplier_id = supplier_risk_summary.supplier_id")

	// Filter by risk tier if specified
	if tier := c.QueryParam("tier"); tier != "" {
		if riskTiers[tier] {
			query = query.Where("risk_tier = ?", tier)
			log.Info("Filtering risk summaries by tier", zap.String("tier", tier))
		} else {
			log.Warn("Invalid tier parameter", zap.String("value", tier))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Invalid tier, expected one of: low, medium, high, critical",
			})
		}
	}

	// Filter by minimum risk score if specified
	if minScore := c.QueryParam("min_score"); minScore != "" {
		value, err := strconv.ParseFloat(minScore, 64)
		if err == nil {
			query = query.Where("risk_score >= ?", value)
			log.Info("Filtering risk summaries by minimum score", zap.Float64("min_score", value))
		} else {
			log.Warn("Invalid min_score parameter", zap.String("value", minScore), zap.Error(err))
		}
	}

	// Filter by supplier category if specified
	if category := c.QueryParam("category"); category != "" {
		query = query.Where("suppliers.category = ?", category)
		log.Info("Filtering risk summaries by category", zap.String("category", category))
	}

	// Filter by supplier country if specified
	if country := c.QueryParam("country"); country != "" {
		query = query.Where("suppliers.country = ?", country)
		log.Info("Filtering risk summaries by country", zap.String("country", country))
	}

	// Sorting with a column whitelist; the dashboard's default view is the
	// riskiest suppliers first
	order, ok := riskSortColumns[c.QueryParam("sort_by")]
	if !ok {
		order = riskSortColumns["risk_score"]
	}
	if c.QueryParam("order") != "asc" {
		order += " desc"
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	// Count total rows before pagination is applied
	var total int64
	query.Count(&total)

	var summaries []model.SupplierRiskSummary
	result := query.
		Order(order).
		Limit(limit).
		Offset(offset).
		Find(&summaries)

	if result.Error != nil {
		log.Error("Failed to retrieve risk summaries", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve risk summaries",
		})
	}

	log.Info("Risk summaries retrieved successfully",
		zap.Int("count", len(summaries)),
		zap.Int64("total", total))

	return c.JSON(http.StatusOK, echo.Map{
		"risk_summaries": summaries,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// GetRiskSummary retrieves the risk summary for one supplier
func GetRiskSummary(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordQueryOperation("get_risk")

	supplierID := c.Param("supplier_id")
	log.Info("Getting supplier risk summary", zap.String("supplier_id", supplierID))

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var summary model.SupplierRiskSummary
	result := database.GetDB().Where("supplier_id = ?", supplierID).First(&summary)
	if result.Error != nil {
		log.Warn("Supplier risk summary not found",
			zap.String("supplier_id", supplierID),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier risk summary not found",
		})
	}

	return c.JSON(http.StatusOK, summary)
}
