package main

import (
	"strconv"
	"time"

	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/handler"
	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/middleware"
	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/pipeline"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/config"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/database"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/jwtutil"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/logger"
	"github.com/Flazoukie/supplier-performance-data-pipeline/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting supplier risk service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utilities
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utilities initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize database and run migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.DB.Host),
		zap.String("db_name", cfg.DB.DBName))

	// Wire the pipeline runner into the handlers
	runner := pipeline.NewRunner(database.GetDB(), log, cfg)
	handler.InitPipeline(runner)
	log.Info("Pipeline runner initialized",
		zap.Float64("delay_days_max", cfg.Scoring.DelayDaysMax),
		zap.Float64("quality_issues_max", cfg.Scoring.QualityIssuesMax),
		zap.Bool("strict_domain", cfg.Scoring.StrictDomain))

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Process request
			err := next(c)

			// Calculate duration
			duration := time.Since(start).Seconds()
			status := c.Response().Status

			// Log request details
			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Float64("duration_s", duration),
				zap.String("ip", c.RealIP()),
			)

			// Update Prometheus metrics
			prometheus.HttpRequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Request().URL.Path,
				strconv.Itoa(status),
			).Inc()

			prometheus.HttpRequestDuration.WithLabelValues(
				c.Request().Method,
				c.Request().URL.Path,
				strconv.Itoa(status),
			).Observe(duration)

			return err
		}
	})

	// Routes
	// Public routes that don't require authentication
	e.GET("/", handler.Hello)
	e.GET("/health", handler.Hello)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API routes that require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Supplier master data
	api.GET("/suppliers", handler.ListSuppliers)

	// Derived KPI table
	api.GET("/kpis", handler.ListKPIs)
	api.GET("/kpis/:supplier_id", handler.GetKPI)

	// Derived risk summary table
	api.GET("/risk", handler.ListRiskSummaries)
	api.GET("/risk/:supplier_id", handler.GetRiskSummary)

	// Pipeline control
	api.POST("/pipeline/run", handler.RunPipeline)
	api.GET("/pipeline/runs", handler.ListPipelineRuns)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
