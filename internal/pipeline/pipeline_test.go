package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/generator"
	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/model"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/config"
	"github.com/Flazoukie/supplier-performance-data-pipeline/prometheus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	prometheus.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "pipeline_test"}})
	os.Exit(m.Run())
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Supplier{},
		&model.PurchaseOrder{},
		&model.Delivery{},
		&model.SupplierKPI{},
		&model.SupplierRiskSummary{},
		&model.PipelineRun{},
	))
	return db
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
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
}

func TestRunGenerateAndPublish(t *testing.T) {
	db := testDB(t)
	runner := NewRunner(db, zap.NewNop(), testConfig(t))

	run, err := runner.Run(Options{Generate: true})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusSucceeded, run.Status)
	assert.True(t, run.Generated)
	assert.NotNil(t, run.FinishedAt)
	assert.Equal(t, 5, run.Suppliers)
	assert.Equal(t, 40, run.Orders)
	assert.Equal(t, 40, run.Deliveries)
	assert.Equal(t, run.KPIRows, run.RiskRows)

	var kpis []model.SupplierKPI
	require.NoError(t, db.Find(&kpis).Error)
	assert.Len(t, kpis, run.KPIRows)

	var summaries []model.SupplierRiskSummary
	require.NoError(t, db.Find(&summaries).Error)
	assert.Len(t, summaries, run.RiskRows)
	for _, s := range summaries {
		assert.GreaterOrEqual(t, s.RiskScore, 0.0)
		assert.LessOrEqual(t, s.RiskScore, 1.0)
		assert.NotEmpty(t, s.RiskTier)
	}

	// The run is persisted for later inspection
	var stored model.PipelineRun
	require.NoError(t, db.First(&stored, "run_id = ?", run.RunID).Error)
	assert.Equal(t, model.RunStatusSucceeded, stored.Status)
}

func TestRunIsIdempotent(t *testing.T) {
	db := testDB(t)
	runner := NewRunner(db, zap.NewNop(), testConfig(t))

	_, err := runner.Run(Options{Generate: true})
	require.NoError(t, err)
	var first []model.SupplierRiskSummary
	require.NoError(t, db.Order("supplier_id").Find(&first).Error)

	// Same inputs, same outputs, no row growth
	_, err = runner.Run(Options{Generate: true})
	require.NoError(t, err)
	var second []model.SupplierRiskSummary
	require.NoError(t, db.Order("supplier_id").Find(&second).Error)

	assert.Equal(t, first, second)
}

func TestRunFailureKeepsPreviousDerivedTables(t *testing.T) {
	db := testDB(t)
	cfg := testConfig(t)
	runner := NewRunner(db, zap.NewNop(), cfg)

	run, err := runner.Run(Options{Generate: true})
	require.NoError(t, err)
	previousKPIRows := run.KPIRows

	// Break referential integrity: an order whose delivery never arrives
	ordersPath := filepath.Join(cfg.Data.Dir, generator.OrdersFile)
	f, err := os.OpenFile(ordersPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("PO99999,S001,2024-06-01,2024-06-10,100\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	failed, err := runner.Run(Options{})
	var integrityErr *model.DataIntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, "purchase_orders", integrityErr.Table)
	assert.Contains(t, integrityErr.IDs, "PO99999")
	assert.Equal(t, model.RunStatusFailed, failed.Status)
	assert.NotEmpty(t, failed.Error)

	// The derived tables still hold the last good publish
	var kpiRows int64
	require.NoError(t, db.Model(&model.SupplierKPI{}).Count(&kpiRows).Error)
	assert.EqualValues(t, previousKPIRows, kpiRows)
}

func writeRawCSVs(t *testing.T, dir, suppliers string) {
	t.Helper()
	orders := "po_id,supplier_id,order_date,promised_date,quantity_ordered\n" +
		"PO00001,S001,2024-01-01,2024-01-10,100\n" +
		"PO00002,S002,2024-01-01,2024-01-10,100\n"
	deliveries := "po_id,delivery_date,quantity_delivered,quality_issues\n" +
		"PO00001,2024-01-10,100,0\n" +
		"PO00002,2024-01-10,100,0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, generator.SuppliersFile), []byte(suppliers), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, generator.OrdersFile), []byte(orders), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, generator.DeliveriesFile), []byte(deliveries), 0o644))
}

func TestRunLenientExcludesSupplierFromBothTables(t *testing.T) {
	db := testDB(t)
	cfg := testConfig(t)
	cfg.Scoring.StrictDomain = false
	runner := NewRunner(db, zap.NewNop(), cfg)

	// S001 carries a financial risk score outside [0, 100]
	writeRawCSVs(t, cfg.Data.Dir, "supplier_id,supplier_name,category,country,financial_risk_score\n"+
		"S001,Supplier 01,Packaging,DE,150\n"+
		"S002,Supplier 02,Logistics,PL,20\n")

	run, err := runner.Run(Options{})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusSucceeded, run.Status)
	assert.Equal(t, 1, run.KPIRows)
	assert.Equal(t, 1, run.RiskRows)

	var kpis []model.SupplierKPI
	require.NoError(t, db.Find(&kpis).Error)
	require.Len(t, kpis, 1)
	assert.Equal(t, "S002", kpis[0].SupplierID)

	var summaries []model.SupplierRiskSummary
	require.NoError(t, db.Find(&summaries).Error)
	require.Len(t, summaries, 1)
	assert.Equal(t, "S002", summaries[0].SupplierID)
}

func TestRunStrictFailsOnDomainViolation(t *testing.T) {
	db := testDB(t)
	cfg := testConfig(t)
	runner := NewRunner(db, zap.NewNop(), cfg)

	writeRawCSVs(t, cfg.Data.Dir, "supplier_id,supplier_name,category,country,financial_risk_score\n"+
		"S001,Supplier 01,Packaging,DE,150\n"+
		"S002,Supplier 02,Logistics,PL,20\n")

	run, err := runner.Run(Options{})
	var rangeErr *model.DomainRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "S001", rangeErr.SupplierID)
	assert.Equal(t, "financial_risk_score", rangeErr.Field)
	assert.Equal(t, model.RunStatusFailed, run.Status)

	// Nothing was published
	var kpiRows int64
	require.NoError(t, db.Model(&model.SupplierKPI{}).Count(&kpiRows).Error)
	assert.Zero(t, kpiRows)
}

func TestRunMissingInputFails(t *testing.T) {
	db := testDB(t)
	runner := NewRunner(db, zap.NewNop(), testConfig(t))

	run, err := runner.Run(Options{})
	require.Error(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
}

func TestRunSeedOverrideChangesGeneratedData(t *testing.T) {
	db := testDB(t)
	cfg := testConfig(t)
	runner := NewRunner(db, zap.NewNop(), cfg)

	_, err := runner.Run(Options{Generate: true})
	require.NoError(t, err)
	var first []model.SupplierRiskSummary
	require.NoError(t, db.Order("supplier_id").Find(&first).Error)

	_, err = runner.Run(Options{Generate: true, Seed: 7})
	require.NoError(t, err)
	var second []model.SupplierRiskSummary
	require.NoError(t, db.Order("supplier_id").Find(&second).Error)

	assert.NotEqual(t, first, second)
}
