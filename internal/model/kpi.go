package model

// SupplierKPI represents the supplier_kpis derived table: one row per
// supplier with at least one purchase order, fully recomputed each run.
type SupplierKPI struct {
	SupplierID           string  `gorm:"primaryKey;column:supplier_id;type:varchar(20)" json:"supplier_id"`
	OnTimeDeliveryRate   float64 `gorm:"column:on_time_delivery_rate;not null" json:"on_time_delivery_rate"`
	AvgDeliveryDelayDays float64 `gorm:"column:avg_delivery_delay_days;not null" json:"avg_delivery_delay_days"`
	FillRate             float64 `gorm:"column:fill_rate;not null" json:"fill_rate"`
	QualityIssueRate     float64 `gorm:"column:quality_issue_rate;not null" json:"quality_issue_rate"`
	NPOs                 int     `gorm:"column:n_pos;not null" json:"n_pos"`
}

// TableName specifies the table name for SupplierKPI
func (SupplierKPI) TableName() string {
	return "supplier_kpis"
}

// SupplierRiskSummary represents the supplier_risk_summary derived table.
// risk_score is always recomputable from performance_score and
// financial_risk_score; risk_tier is recomputable from risk_score and is
// persisted only so the dashboard can filter on it.
type SupplierRiskSummary struct {
	SupplierID         string  `gorm:"primaryKey;column:supplier_id;type:varchar(20)" json:"supplier_id"`
	PerformanceScore   float64 `gorm:"column:performance_score;not null" json:"performance_score"`
	RiskScore          float64 `gorm:"column:risk_score;not null;index" json:"risk_score"`
	FinancialRiskScore int     `gorm:"column:financial_risk_score;not null" json:"financial_risk_score"`
	RiskTier           string  `gorm:"column:risk_tier;type:varchar(10);index" json:"risk_tier"`
}

// TableName specifies the table name for SupplierRiskSummary
func (SupplierRiskSummary) TableName() string {
	return "supplier_risk_summary"
}
