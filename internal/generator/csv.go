package generator

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// CSV file names shared with the warehouse loader
const (
	SuppliersFile  = "suppliers.csv"
	OrdersFile     = "purchase_orders.csv"
	DeliveriesFile = "deliveries.csv"
)

const dateFormat = "2006-01-02"

// WriteCSV writes the dataset to the exchange directory as three CSV files,
// creating the directory if needed.
func WriteCSV(ds Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory %s: %w", dir, err)
	}

	supplierRows := make([][]string, 0, len(ds.Suppliers))
	for _, s := range ds.Suppliers {
		supplierRows = append(supplierRows, []string{
			s.SupplierID,
			s.SupplierName,
			s.Category,
			s.Country,
			strconv.Itoa(s.FinancialRiskScore),
		})
	}
	if err := writeFile(
		filepath.Join(dir, SuppliersFile),
		[]string{"supplier_id", "supplier_name", "category", "country", "financial_risk_score"},
		supplierRows,
	); err != nil {
		return err
	}

	orderRows := make([][]string, 0, len(ds.Orders))
	for _, po := range ds.Orders {
		orderRows = append(orderRows, []string{
			po.POID,
			po.SupplierID,
			po.OrderDate.Format(dateFormat),
			po.PromisedDate.Format(dateFormat),
			strconv.Itoa(po.QuantityOrdered),
		})
	}
	if err := writeFile(
		filepath.Join(dir, OrdersFile),
		[]string{"po_id", "supplier_id", "order_date", "promised_date", "quantity_ordered"},
		orderRows,
	); err != nil {
		return err
	}

	deliveryRows := make([][]string, 0, len(ds.Deliveries))
	for _, d := range ds.Deliveries {
		deliveryRows = append(deliveryRows, []string{
			d.POID,
			d.DeliveryDate.Format(dateFormat),
			strconv.Itoa(d.QuantityDelivered),
			strconv.Itoa(d.QualityIssues),
		})
	}
	return writeFile(
		filepath.Join(dir, DeliveriesFile),
		[]string{"po_id", "delivery_date", "quantity_delivered", "quality_issues"},
		deliveryRows,
	)
}

func writeFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header to %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows to %s: %w", path, err)
	}
	w.Flush()
	return w.Error()
}
