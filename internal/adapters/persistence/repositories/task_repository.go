package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/core/domain"
)

// taskRepository implements TaskRepository interface
type taskRepository struct {
	base
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *gorm.DB, timeout time.Duration) TaskRepository {
	return &taskRepository{base: newBase(db, timeout)}
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Create(task).Error)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var task models.Task
	if err := db.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Save(task).Error)
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskRatingAudit{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err)
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter, opts ListOptions) ([]*models.Task, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := func() *gorm.DB {
		q := applyScope(db.Model(&models.Task{}), filter.Scope,
			scopeColumns{household: "assigned_to", owner: "assigned_by", zoneOfHousehold: true})
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Priority != "" {
			q = q.Where("priority = ?", filter.Priority)
		}
		if filter.Category != "" {
			q = q.Where("category = ?", filter.Category)
		}
		if filter.AssignedTo != "" {
			q = q.Where("assigned_to = ?", filter.AssignedTo)
		}
		if filter.AssignedBy != "" {
			q = q.Where("assigned_by = ?", filter.AssignedBy)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q, err := page(query(), TaskSortFields, opts)
	if err != nil {
		return nil, 0, err
	}
	var tasks []*models.Task
	if err := q.Find(&tasks).Error; err != nil {
		return nil, 0, translate(err)
	}
	return tasks, total, nil
}

func (r *taskRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&models.Task{}).
		Where("status IN ? AND due_date < ?", []string{domain.TaskStatusPending, domain.TaskStatusInProgress}, now).
		Update("status", domain.TaskStatusOverdue)
	return result.RowsAffected, translate(result.Error)
}

func (r *taskRepository) CreateRatingAudit(ctx context.Context, audit *models.TaskRatingAudit) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Create(audit).Error)
}

func (r *taskRepository) ListRatingAudits(ctx context.Context, taskID string) ([]*models.TaskRatingAudit, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var audits []*models.TaskRatingAudit
	err := db.Where("task_id = ?", taskID).Order("created_at DESC").Find(&audits).Error
	return audits, translate(err)
}
