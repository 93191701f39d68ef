package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskAssignment tracks a delegated user's own progress and status on a task.
type TaskAssignment struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	TaskID    uuid.UUID      `json:"taskId" gorm:"type:uuid;not null;uniqueIndex:idx_task_user"`
	UserID    uuid.UUID      `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_task_user"`
	Status    string         `json:"status" gorm:"not null;default:'pending'"`
	Progress  int            `json:"progress" gorm:"default:0"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (ta *TaskAssignment) BeforeCreate(tx *gorm.DB) error {
	if ta.ID == uuid.Nil {
		ta.ID = uuid.New()
	}
	return nil
}

type UpdateAssignmentRequest struct {
	Status   *string `json:"status"`
	Progress *int    `json:"progress" validate:"omitempty,min=0"`
}
