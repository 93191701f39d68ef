package repositories

import (
	"context"
	"errors"

	"github.com/arnold/kpitrack-api/internal/apperror"
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	// FindTouchingWindow returns tasks whose task date or deadline falls in w
	// and where userID is the owner or an assignee.
	FindTouchingWindow(ctx context.Context, userID uuid.UUID, w Window) ([]models.Task, error)
	// FindDatedInWindow returns tasks whose task date falls in w, ordered by date.
	FindDatedInWindow(ctx context.Context, userID uuid.UUID, w Window) ([]models.Task, error)
	// SaveAssignment creates or updates userID's pivot row on taskID.
	SaveAssignment(ctx context.Context, taskID, userID uuid.UUID, req models.UpdateAssignmentRequest) (*models.TaskAssignment, error)
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return apperror.Internal(err, "failed to create task")
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Preload("Assignments").First(&task, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "task")
	}
	return &task, nil
}

func (r *taskRepository) FindTouchingWindow(ctx context.Context, userID uuid.UUID, w Window) ([]models.Task, error) {
	var tasks []models.Task
	err := r.involving(ctx, userID).
		Where("((tasks.task_date >= ? AND tasks.task_date < ?) OR (tasks.deadline_at >= ? AND tasks.deadline_at < ?))",
			w.From, w.To, w.From, w.To).
		Order("tasks.task_date ASC, tasks.created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, apperror.Internal(err, "failed to load tasks")
	}
	return tasks, nil
}

func (r *taskRepository) FindDatedInWindow(ctx context.Context, userID uuid.UUID, w Window) ([]models.Task, error) {
	var tasks []models.Task
	err := r.involving(ctx, userID).
		Where("tasks.task_date >= ? AND tasks.task_date < ?", w.From, w.To).
		Order("tasks.task_date ASC, tasks.created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, apperror.Internal(err, "failed to load tasks")
	}
	return tasks, nil
}

// involving scopes to tasks owned by or delegated to userID and preloads
// only that user's assignment rows.
func (r *taskRepository) involving(ctx context.Context, userID uuid.UUID) *gorm.DB {
	db := r.db.WithContext(ctx)
	assigned := db.Model(&models.TaskAssignment{}).Select("task_id").Where("user_id = ?", userID)
	return db.Model(&models.Task{}).
		Where("(tasks.user_id = ? OR tasks.id IN (?))", userID, assigned).
		Preload("Assignments", "user_id = ?", userID)
}

func (r *taskRepository) SaveAssignment(ctx context.Context, taskID, userID uuid.UUID, req models.UpdateAssignmentRequest) (*models.TaskAssignment, error) {
	var a models.TaskAssignment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("task_id = ? AND user_id = ?", taskID, userID).First(&a).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		isNew := err != nil
		if isNew {
			a = models.TaskAssignment{TaskID: taskID, UserID: userID, Status: "pending"}
		}
		if req.Status != nil {
			a.Status = *req.Status
		}
		if req.Progress != nil {
			a.Progress = *req.Progress
		}
		if isNew {
			return tx.Create(&a).Error
		}
		return tx.Save(&a).Error
	})
	if err != nil {
		return nil, apperror.Internal(err, "failed to save assignment")
	}
	return &a, nil
}
