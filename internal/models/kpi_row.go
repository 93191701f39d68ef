package models

import "github.com/google/uuid"

const (
	EvaluationPass    = "Đạt"
	EvaluationFail    = "Không đạt"
	EvaluationPending = "Chưa đạt"
	NoTimeRange       = "Không có"
)

// KPITaskRow is one presentation row of a KPI target line, shared by the
// detail view and the spreadsheet export.
type KPITaskRow struct {
	KPIID      uuid.UUID `json:"kpi_id"`
	KPIName    string    `json:"kpi_name"`
	TaskTitle  string    `json:"task_title"`
	TimeRange  string    `json:"time_range"`
	Target     float64   `json:"target"`
	Actual     float64   `json:"actual"`
	Percent    float64   `json:"percent"`
	Evaluation string    `json:"evaluation"`
	ProofLinks []string  `json:"proof_links"`
	ProofCount int       `json:"proof_count"`
}
