package repositories

import (
	"context"

	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type KPIRepository interface {
	Create(ctx context.Context, kpi *models.KPI) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.KPI, error)
	// FindOverlapping returns userID's KPIs whose window intersects w.
	FindOverlapping(ctx context.Context, userID uuid.UUID, w Window) ([]models.KPI, error)
	// UpdateDetails writes the editable columns only; derived totals are skipped.
	UpdateDetails(ctx context.Context, kpi *models.KPI) error
	// SaveTotals is the single writer of the derived total columns.
	SaveTotals(ctx context.Context, id uuid.UUID, target, actual int, percent float64) error
}

type kpiRepository struct {
	db *gorm.DB
}

func NewKPIRepository(db *gorm.DB) KPIRepository {
	return &kpiRepository{db: db}
}

func (r *kpiRepository) Create(ctx context.Context, kpi *models.KPI) error {
	kpi.TargetProgress, kpi.ActualProgress, kpi.Percent = 0, 0, 0
	if err := r.db.WithContext(ctx).Create(kpi).Error; err != nil {
		return apperror.Internal(err, "failed to create KPI")
	}
	return nil
}

func (r *kpiRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.KPI, error) {
	var kpi models.KPI
	err := r.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&kpi, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "KPI")
	}
	return &kpi, nil
}

func (r *kpiRepository) FindOverlapping(ctx context.Context, userID uuid.UUID, w Window) ([]models.KPI, error) {
	var kpis []models.KPI
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND start_date < ? AND end_date >= ?", userID, w.To, w.From).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("start_date ASC, created_at ASC").
		Find(&kpis).Error
	if err != nil {
		return nil, apperror.Internal(err, "failed to load KPIs")
	}
	return kpis, nil
}

func (r *kpiRepository) UpdateDetails(ctx context.Context, kpi *models.KPI) error {
	result := r.db.WithContext(ctx).Model(&models.KPI{}).
		Where("id = ?", kpi.ID).
		Omit(models.DerivedColumns...).
		Updates(map[string]any{
			"name":        kpi.Name,
			"start_date":  kpi.StartDate,
			"end_date":    kpi.EndDate,
			"task_titles": kpi.TaskTitles,
		})
	if result.Error != nil {
		return apperror.Internal(result.Error, "failed to update KPI")
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("KPI not found")
	}
	return nil
}

func (r *kpiRepository) SaveTotals(ctx context.Context, id uuid.UUID, target, actual int, percent float64) error {
	result := r.db.WithContext(ctx).Model(&models.KPI{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"target_progress": target,
			"actual_progress": actual,
			"percent":         percent,
		})
	if result.Error != nil {
		return apperror.Internal(result.Error, "failed to save KPI totals")
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("KPI not found")
	}
	return nil
}
