package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"
)

// TaskService applies the owner-only rule on top of a TaskRepository. Every
// single-task operation goes through owned: missing is ErrTaskNotFound,
// someone else's is ErrForbidden.
type TaskService struct {
	tasks  repositories.TaskRepository
	logger logrus.FieldLogger
}

func NewTaskService(tasks repositories.TaskRepository, logger logrus.FieldLogger) *TaskService {
	return &TaskService{tasks: tasks, logger: logger}
}

func (s *TaskService) Create(ctx context.Context, owner *models.UserProfile, in models.TaskCreate) (*models.Task, error) {
	task := in.NewTask(owner.ID)
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, wrapStoreError("create task", err)
	}

	s.logger.WithFields(logrus.Fields{"task_id": task.ID, "user_id": owner.ID}).Debug("Task created")
	return task, nil
}

func (s *TaskService) List(ctx context.Context, owner *models.UserProfile, skip, limit int) ([]models.Task, error) {
	tasks, err := s.tasks.ListByOwner(ctx, owner.ID, skip, limit)
	if err != nil {
		return nil, wrapStoreError("list tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, owner *models.UserProfile, id int64) (*models.Task, error) {
	return s.owned(ctx, owner, id)
}

func (s *TaskService) Update(ctx context.Context, owner *models.UserProfile, id int64, patch models.TaskUpdate) (*models.Task, error) {
	if _, err := s.owned(ctx, owner, id); err != nil {
		return nil, err
	}

	task, err := s.tasks.Update(ctx, id, patch)
	if err != nil {
		return nil, wrapStoreError("update task", err)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, owner *models.UserProfile, id int64) error {
	if _, err := s.owned(ctx, owner, id); err != nil {
		return err
	}

	deleted, err := s.tasks.Delete(ctx, id)
	if err != nil {
		return wrapStoreError("delete task", err)
	}
	if !deleted {
		return models.ErrTaskNotFound
	}

	s.logger.WithFields(logrus.Fields{"task_id": id, "user_id": owner.ID}).Debug("Task deleted")
	return nil
}

func (s *TaskService) owned(ctx context.Context, owner *models.UserProfile, id int64) (*models.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, wrapStoreError("get task", err)
	}
	if task.UserID != owner.ID {
		return nil, models.ErrForbidden
	}
	return task, nil
}

// wrapStoreError passes domain errors through untouched and wraps the rest.
func wrapStoreError(op string, err error) error {
	var verr *models.ValidationError
	if errors.Is(err, models.ErrTaskNotFound) || errors.As(err, &verr) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
