package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const StatusCompleted = "completed"

// Priority labels as entered by users.
const (
	PriorityUrgent = "Khẩn cấp"
	PriorityHigh   = "Cao"
	PriorityMedium = "Trung bình"
	PriorityLow    = "Thấp"
)

// Task is owned by one user and may be delegated to others through
// TaskAssignment rows. Progress is the task's goal in units.
type Task struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID        `json:"userId" gorm:"type:uuid;index;not null"`
	Title       string           `json:"title"`
	TaskDate    time.Time        `json:"taskDate" gorm:"index;not null"`
	DeadlineAt  *time.Time       `json:"deadlineAt" gorm:"index"`
	Progress    int              `json:"progress" gorm:"default:0"`
	Status      string           `json:"status" gorm:"not null;default:'pending'"` // pending, in_progress, completed
	Priority    string           `json:"priority"`
	FileLink    string           `json:"fileLink"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt   `json:"-" gorm:"index"`
	Assignments []TaskAssignment `json:"assignments,omitempty" gorm:"foreignKey:TaskID"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// DueAt is the deadline when set, otherwise the task date.
func (t *Task) DueAt() time.Time {
	if t.DeadlineAt != nil {
		return *t.DeadlineAt
	}
	return t.TaskDate
}

// AssignmentFor returns the pivot row for userID, if one was loaded.
func (t *Task) AssignmentFor(userID uuid.UUID) *TaskAssignment {
	for i := range t.Assignments {
		if t.Assignments[i].UserID == userID {
			return &t.Assignments[i]
		}
	}
	return nil
}

// Task DTOs
type CreateTaskRequest struct {
	UserID     *uuid.UUID  `json:"userId"`
	Title      string      `json:"title" validate:"required"`
	TaskDate   string      `json:"taskDate" validate:"required,datetime=2006-01-02"`
	DeadlineAt *time.Time  `json:"deadlineAt"`
	Progress   int         `json:"progress" validate:"min=0"`
	Status     string      `json:"status"`
	Priority   string      `json:"priority"`
	FileLink   string      `json:"fileLink" validate:"omitempty,url"`
	Assignees  []uuid.UUID `json:"assignees"`
}
