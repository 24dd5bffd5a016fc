package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/model"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/database"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/logger"
	"github.com/Flazoukie/supplier-performance-data-pipeline/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Sortable columns for the KPI list endpoint, mapped to their table-qualified
// form: the list query joins suppliers, which shares supplier_id and would
// make the bare column ambiguous. Anything else falls back to supplier_id so
// user input never reaches the ORDER BY clause directly.
var kpiSortColumns = map[string]string{
	"supplier_id":             "supplier_kpis.supplier_id",
	"on_time_delivery_rate":   "supplier_kpis.on_time_delivery_rate",
	"avg_delivery_delay_days": "supplier_kpis.avg_delivery_delay_days",
	"fill_rate":               "supplier_kpis.fill_rate",
	"quality_issue_rate":      "supplier_kpis.quality_issue_rate",
	"n_pos":                   "supplier_kpis.n_pos",
}

// ListKPIs retrieves the derived supplier KPI table with filters and sorting
func ListKPIs(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing supplier KPIs with filters")
	prometheus.RecordQueryOperation("list_kpis")

	page, limit := pagination(c)
	offset := (page - 1) * limit

	query := database.GetDB().Model(&model.SupplierKPI{}).
		Joins("JOIN suppliers ON suppliers.supplier_id = supplier_kpis.supplier_id")

	// Filter by supplier category if specified
	if category := c.QueryParam("category"); category != "" {
		query = query.Where("suppliers.category = ?", category)
		log.Info("Filtering KPIs by category", zap.String("category", category))
	}

	// Filter by supplier country if specified
	if country := c.QueryParam("country"); country != "" {
		query = query.Where("suppliers.country = ?", country)
		log.Info("Filtering KPIs by country", zap.String("country", country))
	}

	// Filter by minimum on-time delivery rate if specified
	if minOnTime := c.QueryParam("min_on_time"); minOnTime != "" {
		value, err := strconv.ParseFloat(minOnTime, 64)
		if err == nil {
			query = query.Where("on_time_delivery_rate >= ?", value)
			log.Info("Filtering KPIs by minimum on-time rate", zap.Float64("min_on_time", value))
		} else {
			log.Warn("Invalid min_on_time parameter", zap.String("value", minOnTime), zap.Error(err))
		}
	}

	// Filter by maximum average delay if specified
	if maxDelay := c.QueryParam("max_delay"); maxDelay != "" {
		value, err := strconv.ParseFloat(maxDelay, 64)
		if err == nil {
			query = query.Where("avg_delivery_delay_days <= ?", value)
			log.Info("Filtering KPIs by maximum delay", zap.Float64("max_delay", value))
		} else {
			log.Warn("Invalid max_delay parameter", zap.String("value", maxDelay), zap.Error(err))
		}
	}

	// Sorting with a column whitelist
	order, ok := kpiSortColumns[c.QueryParam("sort_by")]
	if !ok {
		order = kpiSortColumns["supplier_id"]
	}
	if c.QueryParam("order") == "desc" {
		order += " desc"
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	// Count total rows before pagination is applied
	var total int64
	query.Count(&total)

	var kpis []model.SupplierKPI
	result := query.
		Order(order).
		Limit(limit).
		Offset(offset).
		Find(&kpis)

	if result.Error != nil {
		log.Error("Failed to retrieve supplier KPIs", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve supplier KPIs",
		})
	}

	log.Info("Supplier KPIs retrieved successfully",
		zap.Int("count", len(kpis)),
		zap.Int64("total", total))

	return c.JSON(http.StatusOK, echo.Map{
		"kpis": kpis,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// GetKPI retrieves the KPI record for one supplier
func GetKPI(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordQueryOperation("get_kpi")

	supplierID := c.Param("supplier_id")
	log.Info("Getting supplier KPI", zap.String("supplier_id", supplierID))

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var k model.SupplierKPI
	result := database.GetDB().Where("supplier_id = ?", supplierID).First(&k)
	if result.Error != nil {
		log.Warn("Supplier KPI not found",
			zap.String("supplier_id", supplierID),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Supplier KPI not found",
		})
	}

	return c.JSON(http.StatusOK, k)
}
