package warehouse

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Flazoukie/supplier-performance-data-pipeline/internal/model"
)

const dateFormat = "2006-01-02"

// readSuppliers parses suppliers.csv with explicit type casting
func readSuppliers(path string) ([]model.Supplier, error) {
	records, err := readRecords(path, 5)
	if err != nil {
		return nil, err
	}

	suppliers := make([]model.Supplier, 0, len(records))
	for i, rec := range records {
		score, err := strconv.Atoi(rec[4])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: financial_risk_score %q: %w", path, i+2, rec[4], err)
		}
		suppliers = append(suppliers, model.Supplier{
			SupplierID:         rec[0],
			SupplierName:       rec[1],
			Category:           rec[2],
			Country:            rec[3],
			FinancialRiskScore: score,
		})
	}
	return suppliers, nil
}

// readOrders parses purchase_orders.csv with explicit type casting
func readOrders(path string) ([]model.PurchaseOrder, error) {
	records, err := readRecords(path, 5)
	if err != nil {
		return nil, err
	}

	orders := make([]model.PurchaseOrder, 0, len(records))
	for i, rec := range records {
		orderDate, err := parseDate(rec[2])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: order_date %q: %w", path, i+2, rec[2], err)
		}
		promisedDate, err := parseDate(rec[3])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: promised_date %q: %w", path, i+2, rec[3], err)
		}
		qty, err := strconv.Atoi(rec[4])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: quantity_ordered %q: %w", path, i+2, rec[4], err)
		}
		orders = append(orders, model.PurchaseOrder{
			POID:            rec[0],
			SupplierID:      rec[1],
			OrderDate:       orderDate,
			PromisedDate:    promisedDate,
			QuantityOrdered: qty,
		})
	}
	return orders, nil
}

// readDeliveries parses deliveries.csv with explicit type casting
func readDeliveries(path string) ([]model.Delivery, error) {
	records, err := readRecords(path, 4)
	if err != nil {
		return nil, err
	}

	deliveries := make([]model.Delivery, 0, len(records))
	for i, rec := range records {
		deliveryDate, err := parseDate(rec[1])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: delivery_date %q: %w", path, i+2, rec[1], err)
		}
		qty, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: quantity_delivered %q: %w", path, i+2, rec[2], err)
		}
		issues, err := strconv.Atoi(rec[3])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: quality_issues %q: %w", path, i+2, rec[3], err)
		}
		deliveries = append(deliveries, model.Delivery{
			POID:              rec[0],
			DeliveryDate:      deliveryDate,
			QuantityDelivered: qty,
			QualityIssues:     issues,
		})
	}
	return deliveries, nil
}

// readRecords reads a headered CSV file and checks the column count
func readRecords(path string, columns int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = columns

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read %s: missing header row", path)
	}

	// Drop the header row
	return rows[1:], nil
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateFormat, s, time.UTC)
}
