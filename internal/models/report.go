package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is the output of one monthly report build.
type Report struct {
	Title        string             `json:"title"`
	Content      string             `json:"content"`
	Stats        ReportStats        `json:"stats"`
	TasksCache   []CachedTask       `json:"tasks_cache"`
	Sections     ReportSections     `json:"sections"`
	ActivityLogs []ActivityLogEntry `json:"activity_logs"`
}

type ReportStats struct {
	Total      int     `json:"total"`
	Done       int     `json:"done"`
	Overdue    int     `json:"overdue"`
	Pending    int     `json:"pending"`
	AvgPerDay  float64 `json:"avg_per_day"`
	OnTimeRate float64 `json:"on_time_rate"`
}

// CachedTask aggregates every task of the month sharing one title.
type CachedTask struct {
	Title    string   `json:"title"`
	Progress int      `json:"progress"`
	Dates    []string `json:"dates"`
	Status   string   `json:"status"`
	Link     string   `json:"link,omitempty"`
	Links    []string `json:"links"`
}

type ReportSections struct {
	Highlights      []string     `json:"highlights"`
	Issues          []string     `json:"issues"`
	Recommendations []string     `json:"recommendations"`
	KPIs            []SummaryKPI `json:"kpis"`
	ActivityLogs    []string     `json:"activity_logs"`
}

// SummaryKPI is a copy of a KPI's totals at report time.
type SummaryKPI struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	TargetProgress int       `json:"target_progress"`
	ActualProgress int       `json:"actual_progress"`
	Percent        float64   `json:"percent"`
}

type ActivityLogEntry struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	LoggedAt time.Time `json:"logged_at"`
}
