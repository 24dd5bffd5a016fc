package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/model"
	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/pipeline"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/config"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/database"
	"github.com/Flazoukie/supplier-performance-data-pipeline/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	prometheus.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "handler_test"}})
	os.Exit(m.Run())
}

// setupDB points the handlers at a fresh sqlite database seeded with two
// suppliers and their derived rows.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.SetDB(db)

	suppliers := []model.Supplier{
		{SupplierID: "S001", SupplierName: "Supplier 01", Category: "Packaging", Country: "DE", FinancialRiskScore: 40},
		{SupplierID: "S002", SupplierName: "Supplier 02", Category: "Logistics", Country: "PL", FinancialRiskScore: 85},
	}
	kpis := []model.SupplierKPI{
		{SupplierID: "S001", OnTimeDeliveryRate: 0.9, AvgDeliveryDelayDays: 0.5, FillRate: 0.98, QualityIssueRate: 0.02, NPOs: 40},
		{SupplierID: "S002", OnTimeDeliveryRate: 0.5, AvgDeliveryDelayDays: 6.0, FillRate: 0.80, QualityIssueRate: 0.15, NPOs: 25},
	}
	summaries := []model.SupplierRiskSummary{
		{SupplierID: "S001", PerformanceScore: 0.93, RiskScore: 0.17, FinancialRiskScore: 40, RiskTier: "low"},
		{SupplierID: "S002", PerformanceScore: 0.55, RiskScore: 0.57, FinancialRiskScore: 85, RiskTier: "high"},
	}
	require.NoError(t, db.Create(&suppliers).Error)
	require.NoError(t, db.Create(&kpis).Error)
	require.NoError(t, db.Create(&summaries).Error)
	return db
}

func doRequest(t *testing.T, h echo.HandlerFunc, method, target, body string, pathParams map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range pathParams {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	require.NoError(t, h(c))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec, payload
}

func TestListKPIs(t *testing.T) {
	setupDB(t)

	rec, payload := doRequest(t, ListKPIs, http.MethodGet, "/api/kpis", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	kpis := payload["kpis"].([]interface{})
	require.Len(t, kpis, 2)
	// default sort is supplier_id ascending
	first := kpis[0].(map[string]interface{})
	assert.Equal(t, "S001", first["supplier_id"])

	pagination := payload["pagination"].(map[string]interface{})
	assert.EqualValues(t, 2, pagination["total"])
}

func TestListKPIsFilterByCountry(t *testing.T) {
	setupDB(t)

	rec, payload := doRequest(t, ListKPIs, http.MethodGet, "/api/kpis?country=PL", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	kpis := payload["kpis"].([]interface{})
	require.Len(t, kpis, 1)
	assert.Equal(t, "S002", kpis[0].(map[string]interface{})["supplier_id"])
}

func TestListKPIsSortBySupplierID(t *testing.T) {
	setupDB(t)

	// supplier_id exists on both sides of the join and must stay sortable
	rec, payload := doRequest(t, ListKPIs, http.MethodGet, "/api/kpis?sort_by=supplier_id&order=desc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	kpis := payload["kpis"].([]interface{})
	require.Len(t, kpis, 2)
	assert.Equal(t, "S002", kpis[0].(map[string]interface{})["supplier_id"])
	assert.Equal(t, "S001", kpis[1].(map[string]interface{})["supplier_id"])
}

func TestListKPIsPaginationTotalIgnoresPageSize(t *testing.T) {
	setupDB(t)

	rec, payload := doRequest(t, ListKPIs, http.MethodGet, "/api/kpis?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	kpis := payload["kpis"].([]interface{})
	require.Len(t, kpis, 1)

	pagination := payload["pagination"].(map[string]interface{})
	assert.EqualValues(t, 2, pagination["total"])
	assert.EqualValues(t, 2, pagination["total_pages"])
}

func TestGetKPINotFound(t *testing.T) {
	setupDB(t)

	rec, _ := doRequest(t, GetKPI, http.MethodGet, "/api/kpis/S404", "", map[string]string{"supplier_id": "S404"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRiskSummariesDefaultSort(t *testing.T) {
	setupDB(t)

	rec, payload := doRequest(t, ListRiskSummaries, http.MethodGet, "/api/risk", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	summaries := payload["risk_summaries"].([]interface{})
	require.Len(t, summaries, 2)
	// riskiest supplier first
	assert.Equal(t, "S002", summaries[0].(map[string]interface{})["supplier_id"])
}

func TestListRiskSummariesTierFilter(t *testing.T) {
	setupDB(t)

	rec, payload := doRequest(t, ListRiskSummaries, http.MethodGet, "/api/risk?tier=high", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summaries := payload["risk_summaries"].([]interface{})
	require.Len(t, summaries, 1)
	assert.Equal(t, "S002", summaries[0].(map[string]interface{})["supplier_id"])
}

func TestListRiskSummariesSortBySupplierID(t *testing.T) {
	setupDB(t)

	// supplier_id and financial_risk_score exist on both sides of the join
	// and must stay sortable
	for _, sortBy := range []string{"supplier_id", "financial_risk_score"} {
		rec, payload := doRequest(t, ListRiskSummaries, http.MethodGet, "/api/risk?sort_by="+sortBy+"&order=asc", "", nil)
		require.Equal(t, http.StatusOK, rec.Code, "sort_by=%s", sortBy)

		summaries := payload["risk_summaries"].([]interface{})
		require.Len(t, summaries, 2)
		assert.Equal(t, "S001", summaries[0].(map[string]interface{})["supplier_id"])
	}
}

func TestListRiskSummariesPaginationTotalIgnoresPageSize(t *testing.T) {
	setupDB(t)

	rec, payload := doRequest(t, ListRiskSummaries, http.MethodGet, "/api/risk?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	summaries := payload["risk_summaries"].([]interface{})
	require.Len(t, summaries, 1)

	pagination := payload["pagination"].(map[string]interface{})
	assert.EqualValues(t, 2, pagination["total"])
}

func TestListRiskSummariesRejectsUnknownTier(t *testing.T) {
	setupDB(t)

	rec, _ := doRequest(t, ListRiskSummaries, http.MethodGet, "/api/risk?tier=extreme", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRiskSummary(t *testing.T) {
	setupDB(t)

	rec, payload := doRequest(t, GetRiskSummary, http.MethodGet, "/api/risk/S001", "", map[string]string{"supplier_id": "S001"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "S001", payload["supplier_id"])
	assert.Equal(t, "low", payload["risk_tier"])
}

func TestRunPipelineEndpoint(t *testing.T) {
	db := setupDB(t)

	cfg := &config.Config{
		Scoring: config.ScoringConfig{
			DelayDaysMax:      30,
			QualityIssuesMax:  1.0,
			PerformanceWeight: 0.7,
			FinancialWeight:   0.3,
			StrictDomain:      true,
		},
		Generator: config.GeneratorConfig{
			Seed:         42,
			NumSuppliers: 5,
			NumOrders:    40,
			StartDate:    "2024-01-01",
			EndDate:      "2024-12-31",
		},
		Data: config.DataConfig{Dir: t.TempDir()},
	}
	InitPipeline(pipeline.NewRunner(db, zap.NewNop(), cfg))

	rec, payload := doRequest(t, RunPipeline, http.MethodPost, "/api/pipeline/run", `{"generate": true}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RunStatusSucceeded, payload["status"])
	assert.EqualValues(t, 5, payload["suppliers"])
	assert.EqualValues(t, 40, payload["orders"])

	recRuns, runsPayload := doRequest(t, ListPipelineRuns, http.MethodGet, "/api/pipeline/runs", "", nil)
	require.Equal(t, http.StatusOK, recRuns.Code)
	runs := runsPayload["runs"].([]interface{})
	require.Len(t, runs, 1)
}

func TestRunPipelineMissingInputReturnsServerError(t *testing.T) {
	db := setupDB(t)

	cfg := &config.Config{
		Scoring:   config.ScoringConfig{StrictDomain: true},
		Generator: config.GeneratorConfig{},
		Data:      config.DataConfig{Dir: t.TempDir()},
	}
	InitPipeline(pipeline.NewRunner(db, zap.NewNop(), cfg))

	rec, _ := doRequest(t, RunPipeline, http.MethodPost, "/api/pipeline/run", `{}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
