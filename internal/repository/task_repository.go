package repository

import (
	"context"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskhub/internal/model"
)

// TaskFilter narrows and orders a task listing. SortColumn must already be a
// vetted column name; an empty value means no ORDER BY. Limit <= 0 returns
// all matches.
type TaskFilter struct {
	Completed  *bool
	Limit      int
	Skip       int
	SortColumn string
	SortDesc   bool
}

// TaskRepository defines task persistence operations. Every read and delete is
// scoped by owner so one user can never reach another user's tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	FindByOwner(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]model.Task, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*model.Task, error)
	Delete(ctx context.Context, task *model.Task) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository builds a GORM-backed repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *taskRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)

	if filter.Completed != nil {
		q = q.Where("completed = ?", *filter.Completed)
	}
	if filter.SortColumn != "" {
		q = q.Order(clause.OrderByColumn{
			Column: clause.Column{Name: filter.SortColumn},
			Desc:   filter.SortDesc,
		})
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	} else if filter.Skip > 0 {
		// MySQL rejects OFFSET without LIMIT
		q = q.Limit(math.MaxInt)
	}
	if filter.Skip > 0 {
		q = q.Offset(filter.Skip)
	}

	var tasks []model.Task
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) Delete(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Delete(task).Error
}
