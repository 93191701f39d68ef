package repositories

import (
	"context"

	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	// FindInWindow returns userID's entries in w ordered by logged time then id.
	FindInWindow(ctx context.Context, userID uuid.UUID, w Window) ([]models.ActivityLog, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return apperror.Internal(err, "failed to create activity log")
	}
	return nil
}

func (r *activityLogRepository) FindInWindow(ctx context.Context, userID uuid.UUID, w Window) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND logged_at >= ? AND logged_at < ?", userID, w.From, w.To).
		Order("logged_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, apperror.Internal(err, "failed to load activity logs")
	}
	return entries, nil
}
