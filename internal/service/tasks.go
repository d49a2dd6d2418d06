// Package service provides the business logic for accounts and tasks,
// delegating persistence to repository interfaces.
package service

import (
	"context"

	"github.com/atinyakov/TaskTracker/internal/apperr"
	"github.com/atinyakov/TaskTracker/internal/models"
	"github.com/google/uuid"
)

// TaskRepository defines the owner-scoped persistence operations needed by TaskService.
// Every method takes the owner and applies it in the same store operation as the
// id match, so a task owned by someone else behaves exactly like a missing one.
type TaskRepository interface {
	// CreateTask inserts t and sets its timestamps.
	CreateTask(ctx context.Context, t *models.Task) error
	// ListTasks returns the owner's tasks narrowed by q.
	ListTasks(ctx context.Context, ownerID string, q models.TaskQuery) ([]models.Task, error)
	// GetTask returns the owner's task with id, or apperr.ErrNotFound.
	GetTask(ctx context.Context, ownerID, id string) (*models.Task, error)
	// UpdateTask applies patch to the owner's task with id, or returns apperr.ErrNotFound.
	UpdateTask(ctx context.Context, ownerID, id string, patch models.TaskPatch) (*models.Task, error)
	// DeleteTask removes the owner's task with id, or returns apperr.ErrNotFound.
	DeleteTask(ctx context.Context, ownerID, id string) (*models.Task, error)
	// DeleteTasksByOwner removes all of the owner's tasks.
	DeleteTasksByOwner(ctx context.Context, ownerID string) (int64, error)
}

// TaskService implements task operations on behalf of an authenticated user.
type TaskService struct {
	// repo is the underlying persistence repository.
	repo TaskRepository
}

// NewTaskService constructs a TaskService with the provided TaskRepository.
func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

// validTaskID reports whether id can name a stored task. Anything else is
// reported as not found, same as an unknown id.
func validTaskID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ListTasks returns the caller's tasks filtered, sorted, and paged by q.
func (s *TaskService) ListTasks(ctx context.Context, ownerID string, q models.TaskQuery) ([]models.Task, error) {
	if q.Limit < 0 {
		return nil, apperr.Validation("limit", "must be a non-negative integer")
	}
	if q.Offset < 0 {
		return nil, apperr.Validation("skip", "must be a non-negative integer")
	}
	if q.Sort != nil && !q.Sort.Field.Valid() {
		return nil, apperr.Validation("sortBy", "unsupported field "+string(q.Sort.Field))
	}
	return s.repo.ListTasks(ctx, ownerID, q)
}

// GetTask returns the caller's task with id.
func (s *TaskService) GetTask(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if !validTaskID(id) {
		return nil, apperr.ErrNotFound
	}
	return s.repo.GetTask(ctx, ownerID, id)
}

// CreateTask stores a new task owned by the caller.
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, in models.NewTask) (*models.Task, error) {
	desc, err := requireDescription(&in.Description)
	if err != nil {
		return nil, err
	}

	t := &models.Task{
		ID:          uuid.NewString(),
		Description: desc,
		Completed:   in.Completed,
		OwnerID:     ownerID,
	}
	if err := s.repo.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTask applies patch to the caller's task with id.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, id string, patch models.TaskPatch) (*models.Task, error) {
	if patch.Description != nil {
		desc, err := requireDescription(patch.Description)
		if err != nil {
			return nil, err
		}
		patch.Description = &desc
	}
	if !validTaskID(id) {
		return nil, apperr.ErrNotFound
	}
	return s.repo.UpdateTask(ctx, ownerID, id, patch)
}

// DeleteTask removes the caller's task with id and returns it.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if !validTaskID(id) {
		return nil, apperr.ErrNotFound
	}
	return s.repo.DeleteTask(ctx, ownerID, id)
}
