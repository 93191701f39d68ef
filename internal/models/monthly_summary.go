package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MonthlySummary is the stored report for one user and month. Once LockedAt
// is set the generated fields are frozen, and LockedRows holds the KPI rows
// as they were at lock time.
type MonthlySummary struct {
	ID           uuid.UUID                              `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID                              `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_summary_user_month"`
	Month        string                                 `json:"month" gorm:"size:7;not null;uniqueIndex:idx_summary_user_month"`
	Title        string                                 `json:"title"`
	Content      string                                 `json:"content" gorm:"type:text"`
	Stats        datatypes.JSONType[ReportStats]        `json:"stats"`
	TasksCache   datatypes.JSONType[[]CachedTask]       `json:"tasksCache"`
	Sections     datatypes.JSONType[ReportSections]     `json:"sections"`
	ActivityLogs datatypes.JSONType[[]ActivityLogEntry] `json:"activityLogs"`
	LockedAt     *time.Time                             `json:"lockedAt"`
	LockedBy     *uuid.UUID                             `json:"lockedBy" gorm:"type:uuid"`
	LockedRows   datatypes.JSONType[[]KPITaskRow]       `json:"lockedRows" gorm:"default:'null'"`
	Version      int                                    `json:"version" gorm:"not null;default:0"`
	CreatedAt    time.Time                              `json:"createdAt"`
	UpdatedAt    time.Time                              `json:"updatedAt"`
}

func (s *MonthlySummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *MonthlySummary) IsLocked() bool {
	return s.LockedAt != nil
}

// Apply copies a generated report into the summary's snapshot fields.
func (s *MonthlySummary) Apply(r *Report) {
	s.Title = r.Title
	s.Content = r.Content
	s.Stats = datatypes.NewJSONType(r.Stats)
	s.TasksCache = datatypes.NewJSONType(r.TasksCache)
	s.Sections = datatypes.NewJSONType(r.Sections)
	s.ActivityLogs = datatypes.NewJSONType(r.ActivityLogs)
}

type CreateSummaryRequest struct {
	UserID *uuid.UUID `json:"userId"`
	Month  string     `json:"month" validate:"required,yearmonth"`
}
