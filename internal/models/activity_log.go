package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLog is a free-text journal entry folded into the monthly report.
type ActivityLog struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID      `json:"userId" gorm:"type:uuid;index;not null"`
	Title     string         `json:"title" gorm:"not null"`
	Content   string         `json:"content"`
	LoggedAt  time.Time      `json:"loggedAt" gorm:"index;not null"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type CreateActivityLogRequest struct {
	Title    string     `json:"title" validate:"required"`
	Content  string     `json:"content"`
	LoggedAt *time.Time `json:"loggedAt"`
}
