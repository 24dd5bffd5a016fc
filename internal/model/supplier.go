package model

// Supplier represents the suppliers master data table. Rows are loaded once
// per pipeline run and never mutated by the scoring engine.
type Supplier struct {
	SupplierID         string `gorm:"primaryKey;column:supplier_id;type:varchar(20)" json:"supplier_id"`
	SupplierName       string `gorm:"column:supplier_name;type:varchar(100);not null" json:"supplier_name"`
	Category           string `gorm:"column:category;type:varchar(50);index" json:"category"`
	Country            string `gorm:"column:country;type:varchar(10);index" json:"country"`
	FinancialRiskScore int    `gorm:"column:financial_risk_score;not null" json:"financial_risk_score"`
}

// TableName specifies the table name for Supplier
func (Supplier) TableName() string {
	return "suppliers"
}
