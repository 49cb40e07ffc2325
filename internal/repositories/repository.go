package repositories

import (
	"context"

	"task-manager/api/internal/models"
)

// UserRepository owns user records. Create enforces username and email
// uniqueness atomically with the insert.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// TaskRepository owns task records. It does not check ownership; callers
// decide who may see or change a task.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, id int64) (*models.Task, error)
	ListByOwner(ctx context.Context, ownerID int64, skip, limit int) ([]models.Task, error)
	Update(ctx context.Context, id int64, patch models.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

func validateWindow(skip, limit int) error {
	if skip < 0 {
		return models.NewValidationError("skip", "must be greater than or equal to 0")
	}
	if limit <= 0 {
		return models.NewValidationError("limit", "must be greater than 0")
	}
	return nil
}
