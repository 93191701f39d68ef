package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KPI belongs to one user and gathers tasks over [StartDate, EndDate].
// TargetProgress, ActualProgress and Percent are a cached view that only
// the aggregator writes.
type KPI struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID      `json:"userId" gorm:"type:uuid;index;not null"`
	Name           string         `json:"name" gorm:"not null"`
	StartDate      time.Time      `json:"startDate" gorm:"not null"`
	EndDate        time.Time      `json:"endDate" gorm:"not null"`
	TaskTitles     string         `json:"taskTitles"`
	TargetProgress int            `json:"targetProgress" gorm:"default:0"`
	ActualProgress int            `json:"actualProgress" gorm:"default:0"`
	Percent        float64        `json:"percent" gorm:"default:0"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
	Tasks          []KPITask      `json:"tasks,omitempty" gorm:"foreignKey:KPIID"`
}

func (k *KPI) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

// DerivedColumns are never written by ordinary KPI updates.
var DerivedColumns = []string{"target_progress", "actual_progress", "percent"}

// KPITask is one target line of a KPI, matched to tasks by title.
type KPITask struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	KPIID          uuid.UUID      `json:"kpiId" gorm:"column:kpi_id;type:uuid;index;not null"`
	TaskTitle      string         `json:"taskTitle" gorm:"not null"`
	TargetProgress float64        `json:"targetProgress" gorm:"default:0"`
	CompletedUnit  *float64       `json:"completedUnit"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

func (kt *KPITask) BeforeCreate(tx *gorm.DB) error {
	if kt.ID == uuid.Nil {
		kt.ID = uuid.New()
	}
	return nil
}

// KPI DTOs
type CreateKPIRequest struct {
	UserID     *uuid.UUID             `json:"userId"`
	Name       string                 `json:"name" validate:"required"`
	StartDate  string                 `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate    string                 `json:"endDate" validate:"required,datetime=2006-01-02"`
	TaskTitles string                 `json:"taskTitles"`
	Tasks      []CreateKPITaskRequest `json:"tasks" validate:"dive"`
}

type UpdateKPIRequest struct {
	Name       *string `json:"name"`
	StartDate  *string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate    *string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	TaskTitles *string `json:"taskTitles"`
}

type CreateKPITaskRequest struct {
	TaskTitle      string   `json:"taskTitle" validate:"required"`
	TargetProgress float64  `json:"targetProgress" validate:"min=0"`
	CompletedUnit  *float64 `json:"completedUnit" validate:"omitempty,min=0"`
}
