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

// ListSuppliers retrieves supplier master data with optional filters
func ListSuppliers(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing suppliers with filters")
	prometheus.RecordQueryOperation("list_suppliers")

	page, limit := pagination(c)
	offset := (page - 1) * limit

	query := database.GetDB().Model(&model.Supplier{})

	// Filter by category if specified
	if category := c.QueryParam("category"); category != "" {
		query = query.Where("category = ?", category)
		log.Info("Filtering suppliers by category", zap.String("category", category))
	}

	// Filter by country if specified
	if country := c.QueryParam("country"); country != "" {
		query = query.Where("country = ?", country)
		log.Info("Filtering suppliers by country", zap.String("country", country))
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	// Count total rows before pagination is applied
	var total int64
	query.Count(&total)

	var suppliers []model.Supplier
	result := query.
		Order("supplier_id").
		Limit(limit).
		Offset(offset).
		Find(&suppliers)

	if result.Error != nil {
		log.Error("Failed to retrieve suppliers", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve suppliers",
		})
	}

	log.Info("Suppliers retrieved successfully",
		zap.Int("count", len(suppliers)),
		zap.Int64("total", total))

	return c.JSON(http.StatusOK, echo.Map{
		"suppliers": suppliers,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// pagination parses the page/limit query parameters with defaults
func pagination(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20 // Default limit
	}

	return page, limit
}
