package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/model"
	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/pipeline"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/database"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/logger"
	"github.com/Flazoukie/supplier-performance-data-pipeline/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var pipelineRunner *pipeline.Runner

// InitPipeline wires the pipeline runner used by the pipeline endpoints
func InitPipeline(r *pipeline.Runner) {
	pipelineRunner = r
}

// PipelineRunRequest defines the structure for pipeline trigger requests
type PipelineRunRequest struct {
	Generate bool  `json:"generate"`
	Seed     int64 `json:"seed"`
}

// RunPipeline triggers one synchronous pipeline run
func RunPipeline(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Pipeline run requested")
	prometheus.RecordQueryOperation("run_pipeline")

	if pipelineRunner == nil {
		log.Error("Pipeline runner not initialized")
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "pipeline runner not initialized",
		})
	}

	var req PipelineRunRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	run, err := pipelineRunner.Run(pipeline.Options{
		Generate: req.Generate,
		Seed:     req.Seed,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			log.Warn("Pipeline run rejected, another run is active")
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "a pipeline run is already in progress",
			})
		}

		// Data problems are the caller's to fix; everything else is ours
		var integrityErr *model.DataIntegrityError
		if errors.As(err, &integrityErr) {
			log.Warn("Pipeline run failed on data integrity",
				zap.String("table", integrityErr.Table),
				zap.Strings("ids", integrityErr.IDs))
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{
				"error": "data integrity violation",
				"table": integrityErr.Table,
				"ids":   integrityErr.IDs,
				"run":   run,
			})
		}

		var rangeErr *model.DomainRangeError
		if errors.As(err, &rangeErr) {
			log.Warn("Pipeline run failed on domain range",
				zap.String("supplier_id", rangeErr.SupplierID),
				zap.String("field", rangeErr.Field),
				zap.String("value", rangeErr.Value))
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{
				"error":       "domain range violation",
				"supplier_id": rangeErr.SupplierID,
				"field":       rangeErr.Field,
				"value":       rangeErr.Value,
				"run":         run,
			})
		}

		log.Error("Pipeline run failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "pipeline run failed",
			"run":   run,
		})
	}

	log.Info("Pipeline run completed",
		zap.String("run_id", run.RunID),
		zap.Int("kpi_rows", run.KPIRows),
		zap.Int("risk_rows", run.RiskRows))
	return c.JSON(http.StatusOK, run)
}

// ListPipelineRuns retrieves recent pipeline runs, newest first
func ListPipelineRuns(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordQueryOperation("list_runs")

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20 // Default limit
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var runs []model.PipelineRun
	result := database.GetDB().
		Order("started_at desc").
		Limit(limit).
		Find(&runs)

	if result.Error != nil {
		log.Error("Failed to retrieve pipeline runs", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve pipeline runs",
		})
	}

	log.Info("Pipeline runs retrieved successfully", zap.Int("count", len(runs)))
	return c.JSON(http.StatusOK, echo.Map{
		"runs": runs,
	})
}
