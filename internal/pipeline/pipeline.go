// Package pipeline sequences one batch run: optional data generation, raw
// table load, KPI aggregation and risk scoring. The two derived tables are
// only ever replaced together, inside a single transaction, so a failed run
// leaves the previous good output untouched.
package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/generator"
	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/kpi"
	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/model"
	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/risk"
	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/warehouse"
	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/config"
	"github.com/Flazoukie/supplier-performance-data-pipeline/prometheus"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrRunInProgress is returned when a run is requested while another one is
// still executing.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Options controls a single run
type Options struct {
	// Generate synthesizes fresh CSV input before loading.
	Generate bool
	// Seed overrides the configured generator seed when nonzero.
	Seed int64
}

// Runner executes pipeline runs against one database
type Runner struct {
	db  *gorm.DB
	log *zap.Logger
	cfg *config.Config
	mu  sync.Mutex
}

// NewRunner creates a pipeline runner
func NewRunner(db *gorm.DB, log *zap.Logger, cfg *config.Config) *Runner {
	return &Runner{db: db, log: log, cfg: cfg}
}

// Run executes one full pipeline run and records it as a PipelineRun row.
// The returned run carries the outcome even when err is non-nil; err is nil
// only for a fully published run.
func (r *Runner) Run(opts Options) (*model.PipelineRun, error) {
	if !r.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()

	run := &model.PipelineRun{
		RunID:     uuid.New().String(),
		Status:    model.RunStatusRunning,
		Generated: opts.Generate,
		StartedAt: time.Now().UTC(),
	}
	if err := r.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("record pipeline run: %w", err)
	}

	err := r.execute(run, opts)

	now := time.Now().UTC()
	run.FinishedAt = &now
	if err != nil {
		run.Status = model.RunStatusFailed
		run.Error = err.Error()
		prometheus.RecordPipelineRun(model.RunStatusFailed)
		r.log.Error("Pipeline run failed",
			zap.String("run_id", run.RunID),
			zap.Error(err))
	} else {
		run.Status = model.RunStatusSucceeded
		prometheus.RecordPipelineRun(model.RunStatusSucceeded)
		r.log.Info("Pipeline run succeeded",
			zap.String("run_id", run.RunID),
			zap.Int("suppliers", run.Suppliers),
			zap.Int("orders", run.Orders),
			zap.Int("kpi_rows", run.KPIRows),
			zap.Int("risk_rows", run.RiskRows))
	}
	if saveErr := r.db.Save(run).Error; saveErr != nil {
		r.log.Error("Failed to update pipeline run record",
			zap.String("run_id", run.RunID),
			zap.Error(saveErr))
	}

	return run, err
}

// execute runs the pipeline stages in DAG order
func (r *Runner) execute(run *model.PipelineRun, opts Options) error {
	if opts.Generate {
		done := prometheus.TrackPipelineStage("generate")
		start := time.Now()

		genCfg := r.cfg.Generator
		if opts.Seed != 0 {
			genCfg.Seed = opts.Seed
		}
		gen, err := generator.New(genCfg)
		if err != nil {
			return err
		}
		if err := generator.WriteCSV(gen.Generate(), r.cfg.Data.Dir); err != nil {
			return err
		}
		done(start)
	}

	loadDone := prometheus.TrackPipelineStage("load")
	loadStart := time.Now()
	loader := warehouse.NewLoader(r.db, r.log)
	counts, err := loader.LoadCSV(r.cfg.Data.Dir)
	if err != nil {
		return err
	}
	loadDone(loadStart)

	run.Suppliers = counts.Suppliers
	run.Orders = counts.Orders
	run.Deliveries = counts.Deliveries

	// The loader accepts whatever rows the files contain; the run stops
	// here when the relations between them are broken.
	if len(counts.OrdersWithUnknownSupplier) > 0 {
		return &model.DataIntegrityError{Table: "purchase_orders", IDs: counts.OrdersWithUnknownSupplier}
	}
	if len(counts.OrdersWithoutDelivery) > 0 {
		return &model.DataIntegrityError{Table: "purchase_orders", IDs: counts.OrdersWithoutDelivery}
	}
	if len(counts.DeliveriesWithoutOrder) > 0 {
		return &model.DataIntegrityError{Table: "deliveries", IDs: counts.DeliveriesWithoutOrder}
	}

	kpis, summaries, err := r.derive()
	if err != nil {
		return err
	}
	run.KPIRows = len(kpis)
	run.RiskRows = len(summaries)

	return r.publish(kpis, summaries)
}

// derive recomputes both derived tables in memory from the raw tables
func (r *Runner) derive() ([]model.SupplierKPI, []model.SupplierRiskSummary, error) {
	var suppliers []model.Supplier
	if err := r.db.Order("supplier_id").Find(&suppliers).Error; err != nil {
		return nil, nil, fmt.Errorf("read suppliers: %w", err)
	}
	var orders []model.PurchaseOrder
	if err := r.db.Order("po_id").Find(&orders).Error; err != nil {
		return nil, nil, fmt.Errorf("read purchase orders: %w", err)
	}
	var deliveries []model.Delivery
	if err := r.db.Order("po_id").Find(&deliveries).Error; err != nil {
		return nil, nil, fmt.Errorf("read deliveries: %w", err)
	}

	kpiDone := prometheus.TrackPipelineStage("aggregate")
	kpiStart := time.Now()
	aggregator := kpi.NewAggregator(r.cfg.Scoring.StrictDomain)
	kpis, excluded, err := aggregator.Aggregate(suppliers, orders, deliveries)
	if err != nil {
		return nil, nil, err
	}
	if len(excluded) > 0 {
		r.log.Warn("Suppliers excluded from KPI aggregation by domain policy",
			zap.Strings("supplier_ids", excluded))
	}
	kpiDone(kpiStart)

	scoreDone := prometheus.TrackPipelineStage("score")
	scoreStart := time.Now()
	scorer := risk.NewScorer(r.cfg.Scoring)
	summaries, excludedFromRisk, err := scorer.Score(kpis, suppliers)
	if err != nil {
		return nil, nil, err
	}
	scoreDone(scoreStart)

	// A supplier dropped by the risk stage must leave both derived tables:
	// a KPI row without a risk row would break the one-to-one invariant
	// between them.
	if len(excludedFromRisk) > 0 {
		r.log.Warn("Suppliers excluded from risk scoring by domain policy",
			zap.Strings("supplier_ids", excludedFromRisk))
		dropped := make(map[string]bool, len(excludedFromRisk))
		for _, id := range excludedFromRisk {
			dropped[id] = true
		}
		kept := kpis[:0]
		for _, k := range kpis {
			if !dropped[k.SupplierID] {
				kept = append(kept, k)
			}
		}
		kpis = kept
	}

	return kpis, summaries, nil
}

// publish replaces both derived tables atomically and refreshes the tier
// distribution gauge.
func (r *Runner) publish(kpis []model.SupplierKPI, summaries []model.SupplierRiskSummary) error {
	done := prometheus.TrackPipelineStage("publish")
	start := time.Now()

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&model.SupplierRiskSummary{}, &model.SupplierKPI{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return fmt.Errorf("clear derived table: %w", err)
			}
		}
		if len(kpis) > 0 {
			if err := tx.Create(&kpis).Error; err != nil {
				return fmt.Errorf("insert supplier_kpis: %w", err)
			}
		}
		if len(summaries) > 0 {
			if err := tx.Create(&summaries).Error; err != nil {
				return fmt.Errorf("insert supplier_risk_summary: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	tierCounts := map[string]int{
		risk.TierLow:      0,
		risk.TierMedium:   0,
		risk.TierHigh:     0,
		risk.TierCritical: 0,
	}
	for _, s := range summaries {
		tierCounts[s.RiskTier]++
	}
	for tier, count := range tierCounts {
		prometheus.UpdateSuppliersPerTier(tier, count)
	}

	done(start)
	return nil
}
