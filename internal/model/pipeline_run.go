package model

import "time"

// Pipeline run statuses
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// PipelineRun records one execution of the generate -> load -> kpis -> risk
// pipeline for the status endpoint.
type PipelineRun struct {
	RunID      string     `gorm:"primaryKey;column:run_id;type:varchar(40)" json:"run_id"`
	Status     string     `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Error      string     `gorm:"column:error;type:text" json:"error,omitempty"`
	Generated  bool       `gorm:"column:generated" json:"generated"`
	Suppliers  int        `gorm:"column:suppliers" json:"suppliers"`
	Orders     int        `gorm:"column:orders" json:"orders"`
	Deliveries int        `gorm:"column:deliveries" json:"deliveries"`
	KPIRows    int        `gorm:"column:kpi_rows" json:"kpi_rows"`
	RiskRows   int        `gorm:"column:risk_rows" json:"risk_rows"`
	StartedAt  time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

// TableName specifies the table name for PipelineRun
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}
