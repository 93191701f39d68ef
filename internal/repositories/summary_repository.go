package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SummaryRepository interface {
	Create(ctx context.Context, s *models.MonthlySummary) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MonthlySummary, error)
	// GetByUserMonth returns the summary or nil when none exists yet.
	GetByUserMonth(ctx context.Context, userID uuid.UUID, month string) (*models.MonthlySummary, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.MonthlySummary, error)
	// SaveSnapshot overwrites the generated fields of an unlocked summary
	// whose stored version still equals s.Version, then bumps s.Version.
	SaveSnapshot(ctx context.Context, s *models.MonthlySummary) error
	// SetLock locks (lockedAt set) or unlocks the summary, storing rows as
	// its frozen KPI rows.
	SetLock(ctx context.Context, s *models.MonthlySummary, lockedAt *time.Time, lockedBy *uuid.UUID, rows []models.KPITaskRow) error
}

type summaryRepository struct {
	db *gorm.DB
}

func NewSummaryRepository(db *gorm.DB) SummaryRepository {
	return &summaryRepository{db: db}
}

func (r *summaryRepository) Create(ctx context.Context, s *models.MonthlySummary) error {
	s.Version = 1
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		// A concurrent writer got the (user, month) row first.
		if existing, lookupErr := r.GetByUserMonth(ctx, s.UserID, s.Month); lookupErr == nil && existing != nil {
			return apperror.Conflict("Summary for %s was created concurrently", s.Month)
		}
		return apperror.Internal(err, "failed to create summary")
	}
	return nil
}

func (r *summaryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MonthlySummary, error) {
	var s models.MonthlySummary
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "summary")
	}
	return &s, nil
}

func (r *summaryRepository) GetByUserMonth(ctx context.Context, userID uuid.UUID, month string) (*models.MonthlySummary, error) {
	var s models.MonthlySummary
	err := r.db.WithContext(ctx).Where("user_id = ? AND month = ?", userID, month).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal(err, "failed to load summary")
	}
	return &s, nil
}

func (r *summaryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.MonthlySummary, error) {
	var list []models.MonthlySummary
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("month DESC").Find(&list).Error; err != nil {
		return nil, apperror.Internal(err, "failed to load summaries")
	}
	return list, nil
}

func (r *summaryRepository) SaveSnapshot(ctx context.Context, s *models.MonthlySummary) error {
	result := r.db.WithContext(ctx).Model(&models.MonthlySummary{}).
		Where("id = ? AND version = ? AND locked_at IS NULL", s.ID, s.Version).
		Updates(map[string]any{
			"title":         s.Title,
			"content":       s.Content,
			"stats":         s.Stats,
			"tasks_cache":   s.TasksCache,
			"sections":      s.Sections,
			"activity_logs": s.ActivityLogs,
			"version":       s.Version + 1,
		})
	if result.Error != nil {
		return apperror.Internal(result.Error, "failed to save summary")
	}
	if result.RowsAffected == 0 {
		return r.explainMiss(ctx, s.ID, true)
	}
	s.Version++
	return nil
}

func (r *summaryRepository) SetLock(ctx context.Context, s *models.MonthlySummary, lockedAt *time.Time, lockedBy *uuid.UUID, rows []models.KPITaskRow) error {
	frozen := datatypes.NewJSONType(rows)
	result := r.db.WithContext(ctx).Model(&models.MonthlySummary{}).
		Where("id = ? AND version = ?", s.ID, s.Version).
		Updates(map[string]any{
			"locked_at":   lockedAt,
			"locked_by":   lockedBy,
			"locked_rows": frozen,
			"version":     s.Version + 1,
		})
	if result.Error != nil {
		return apperror.Internal(result.Error, "failed to update summary lock")
	}
	if result.RowsAffected == 0 {
		return r.explainMiss(ctx, s.ID, false)
	}
	s.LockedAt, s.LockedBy, s.LockedRows = lockedAt, lockedBy, frozen
	s.Version++
	return nil
}

// explainMiss turns a conditional update that matched nothing into the
// reason it did not apply.
func (r *summaryRepository) explainMiss(ctx context.Context, id uuid.UUID, needUnlocked bool) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if needUnlocked && current.IsLocked() {
		return apperror.Locked("Summary %s is locked", current.Month)
	}
	return apperror.Conflict("Summary %s was modified concurrently", current.Month)
}
