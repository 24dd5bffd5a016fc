package model

import "time"

// PurchaseOrder represents the purchase_orders table. Each order references
// exactly one supplier and, in this dataset's scope, has exactly one delivery.
type PurchaseOrder struct {
	POID            string    `gorm:"primaryKey;column:po_id;type:varchar(20)" json:"po_id"`
	SupplierID      string    `gorm:"column:supplier_id;type:varchar(20);index;not null" json:"supplier_id"`
	OrderDate       time.Time `gorm:"column:order_date;type:date;not null" json:"order_date"`
	PromisedDate    time.Time `gorm:"column:promised_date;type:date;not null" json:"promised_date"`
	QuantityOrdered int       `gorm:"column:quantity_ordered;not null" json:"quantity_ordered"`
}

// TableName specifies the table name for PurchaseOrder
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// Delivery represents the deliveries table, keyed by the purchase order it
// fulfils (1:1 with purchase_orders).
type Delivery struct {
	POID              string    `gorm:"primaryKey;column:po_id;type:varchar(20)" json:"po_id"`
	DeliveryDate      time.Time `gorm:"column:delivery_date;type:date;not null" json:"delivery_date"`
	QuantityDelivered int       `gorm:"column:quantity_delivered;not null" json:"quantity_delivered"`
	QualityIssues     int       `gorm:"column:quality_issues;not null" json:"quality_issues"`
}

// TableName specifies the table name for Delivery
func (Delivery) TableName() string {
	return "deliveries"
}
