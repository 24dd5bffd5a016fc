// Package warehouse loads raw CSV exports into the analytical store and
// reports referential integrity between the tables after each load.
package warehouse

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/generator"
	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const insertBatchSize = 200

// Counts summarizes one load: row counts per table plus the ids violating
// the purchase-order / delivery / supplier relations.
type Counts struct {
	Suppliers  int
	Orders     int
	Deliveries int

	OrdersWithoutDelivery     []string
	DeliveriesWithoutOrder    []string
	OrdersWithUnknownSupplier []string
}

// Clean reports whether the load satisfied all referential expectations
func (c Counts) Clean() bool {
	return len(c.OrdersWithoutDelivery) == 0 &&
		len(c.DeliveriesWithoutOrder) == 0 &&
		len(c.OrdersWithUnknownSupplier) == 0
}

// Loader replaces the three raw tables from CSV files. Raw tables are
// reloaded wholesale; re-running a load never duplicates rows.
type Loader struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewLoader creates a loader bound to a database connection
func NewLoader(db *gorm.DB, log *zap.Logger) *Loader {
	return &Loader{db: db, log: log}
}

// LoadCSV reads the three CSV files from dir and replaces the raw tables
// inside one transaction. Missing input files fail before anything is
// touched.
func (l *Loader) LoadCSV(dir string) (Counts, error) {
	suppliersPath := filepath.Join(dir, generator.SuppliersFile)
	ordersPath := filepath.Join(dir, generator.OrdersFile)
	deliveriesPath := filepath.Join(dir, generator.DeliveriesFile)

	// Fail early if inputs are missing
	for _, path := range []string{suppliersPath, ordersPath, deliveriesPath} {
		if _, err := os.Stat(path); err != nil {
			return Counts{}, fmt.Errorf("missing input file %s: %w", path, err)
		}
	}

	suppliers, err := readSuppliers(suppliersPath)
	if err != nil {
		return Counts{}, err
	}
	orders, err := readOrders(ordersPath)
	if err != nil {
		return Counts{}, err
	}
	deliveries, err := readDeliveries(deliveriesPath)
	if err != nil {
		return Counts{}, err
	}

	err = l.db.Transaction(func(tx *gorm.DB) error {
		// Full reload: drop all rows so reruns stay clean
		for _, m := range []interface{}{&model.Delivery{}, &model.PurchaseOrder{}, &model.Supplier{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return fmt.Errorf("clear raw table: %w", err)
			}
		}

		if len(suppliers) > 0 {
			if err := tx.CreateInBatches(suppliers, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert suppliers: %w", err)
			}
		}
		if len(orders) > 0 {
			if err := tx.CreateInBatches(orders, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert purchase orders: %w", err)
			}
		}
		if len(deliveries) > 0 {
			if err := tx.CreateInBatches(deliveries, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert deliveries: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Counts{}, err
	}

	counts := integrityCounts(suppliers, orders, deliveries)

	l.log.Info("Raw tables loaded",
		zap.String("dir", dir),
		zap.Int("suppliers", counts.Suppliers),
		zap.Int("purchase_orders", counts.Orders),
		zap.Int("deliveries", counts.Deliveries),
		zap.Int("orders_without_delivery", len(counts.OrdersWithoutDelivery)),
		zap.Int("deliveries_without_order", len(counts.DeliveriesWithoutOrder)),
		zap.Int("orders_with_unknown_supplier", len(counts.OrdersWithUnknownSupplier)),
	)

	return counts, nil
}

// integrityCounts computes the key integrity checks over the loaded rows
func integrityCounts(suppliers []model.Supplier, orders []model.PurchaseOrder, deliveries []model.Delivery) Counts {
	counts := Counts{
		Suppliers:  len(suppliers),
		Orders:     len(orders),
		Deliveries: len(deliveries),
	}

	supplierSet := make(map[string]bool, len(suppliers))
	for _, s := range suppliers {
		supplierSet[s.SupplierID] = true
	}
	deliverySet := make(map[string]bool, len(deliveries))
	for _, d := range deliveries {
		deliverySet[d.POID] = true
	}
	orderSet := make(map[string]bool, len(orders))
	for _, po := range orders {
		orderSet[po.POID] = true
		if !deliverySet[po.POID] {
			counts.OrdersWithoutDelivery = append(counts.OrdersWithoutDelivery, po.POID)
		}
		if !supplierSet[po.SupplierID] {
			counts.OrdersWithUnknownSupplier = append(counts.OrdersWithUnknownSupplier, po.POID)
		}
	}
	for _, d := range deliveries {
		if !orderSet[d.POID] {
			counts.DeliveriesWithoutOrder = append(counts.DeliveriesWithoutOrder, d.POID)
		}
	}

	return counts
}
