package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "taskhub/internal/errors"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

// ListOptions carries the raw query options for a task listing.
type ListOptions struct {
	Completed *bool
	Limit     int
	Skip      int
	// SortBy is "field" or "field_direction", e.g. "createdAt_desc".
	SortBy string
}

// taskSortColumns maps exposed sort field names to their columns. Fields not
// listed here are ignored rather than interpolated into SQL.
var taskSortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"description": "description",
	"completed":   "completed",
}

func (o ListOptions) filter() repository.TaskFilter {
	f := repository.TaskFilter{
		Completed: o.Completed,
		Limit:     o.Limit,
		Skip:      o.Skip,
	}
	if o.SortBy == "" {
		return f
	}
	parts := strings.SplitN(o.SortBy, "_", 2)
	column, ok := taskSortColumns[parts[0]]
	if !ok {
		return f
	}
	f.SortColumn = column
	// anything other than "desc" sorts ascending
	f.SortDesc = len(parts) == 2 && parts[1] == "desc"
	return f
}

// TaskService handles task operations, always scoped to the calling user.
type TaskService interface {
	Create(ctx context.Context, ownerID uuid.UUID, description string) (*model.Task, error)
	List(ctx context.Context, ownerID uuid.UUID, opts ListOptions) ([]model.Task, error)
	Get(ctx context.Context, id, ownerID uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, patch map[string]interface{}) (*model.Task, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) (*model.Task, error)
}

type taskService struct {
	tasks repository.TaskRepository
}

// NewTaskService creates a new task service.
func NewTaskService(tasks repository.TaskRepository) TaskService {
	return &taskService{tasks: tasks}
}

// Create stores a new task. The owner is always the authenticated caller; an
// owner value in the payload can never spoof it.
func (s *taskService) Create(ctx context.Context, ownerID uuid.UUID, description string) (*model.Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, &apperrors.ValidationError{Fields: []string{"description"}}
	}

	task := &model.Task{
		Description: description,
		OwnerID:     ownerID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, ownerID uuid.UUID, opts ListOptions) ([]model.Task, error) {
	tasks, err := s.tasks.FindByOwner(ctx, ownerID, opts.filter())
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Get returns the task only when the caller owns it. A miss and an ownership
// mismatch are reported identically.
func (s *taskService) Get(ctx context.Context, id, ownerID uuid.UUID) (*model.Task, error) {
	task, err := s.tasks.FindByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}

var allowedTaskUpdates = map[string]bool{
	"description": true,
	"completed":   true,
}

// Update applies a restricted-field patch; any key outside the allow-set
// rejects the whole patch.
func (s *taskService) Update(ctx context.Context, id, ownerID uuid.UUID, patch map[string]interface{}) (*model.Task, error) {
	var invalid []string
	for key := range patch {
		if !allowedTaskUpdates[key] {
			invalid = append(invalid, key)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, &apperrors.InvalidUpdateError{Keys: invalid}
	}

	task, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	var fields []string
	for key, value := range patch {
		switch key {
		case "description":
			v, ok := value.(string)
			v = strings.TrimSpace(v)
			if !ok || v == "" {
				fields = append(fields, "description")
				continue
			}
			task.Description = v
		case "completed":
			v, ok := value.(bool)
			if !ok {
				fields = append(fields, "completed")
				continue
			}
			task.Completed = v
		}
	}
	if len(fields) > 0 {
		sort.Strings(fields)
		return nil, &apperrors.ValidationError{Fields: fields}
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// Delete removes the task only when the caller owns it and returns the
// deleted record.
func (s *taskService) Delete(ctx context.Context, id, ownerID uuid.UUID) (*model.Task, error) {
	task, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Delete(ctx, task); err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}
	return task, nil
}
