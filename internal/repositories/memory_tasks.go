package repositories

import (
	"context"
	"slices"
	"sync"
	"time"

	"task-manager/api/internal/models"
)

type MemoryTaskRepository struct {
	mu      sync.RWMutex
	tasks   map[int64]*models.Task
	byOwner map[int64][]int64 // task ids in creation order
	nextID  int64
	now     func() time.Time
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{
		tasks:   make(map[int64]*models.Task),
		byOwner: make(map[int64][]int64),
		nextID:  1,
		now:     time.Now,
	}
}

func (r *MemoryTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	task.ID = r.nextID
	task.CreatedAt = now
	task.UpdatedAt = now
	r.nextID++

	r.tasks[task.ID] = task.Clone()
	r.byOwner[task.UserID] = append(r.byOwner[task.UserID], task.ID)

	return nil
}

func (r *MemoryTaskRepository) Get(ctx context.Context, id int64) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, models.ErrTaskNotFound
	}
	return task.Clone(), nil
}

func (r *MemoryTaskRepository) ListByOwner(ctx context.Context, ownerID int64, skip, limit int) ([]models.Task, error) {
	if err := validateWindow(skip, limit); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byOwner[ownerID]
	if skip >= len(ids) {
		return []models.Task{}, nil
	}
	end := len(ids)
	if limit < end-skip {
		end = skip + limit
	}

	tasks := make([]models.Task, 0, end-skip)
	for _, id := range ids[skip:end] {
		tasks = append(tasks, *r.tasks[id].Clone())
	}
	return tasks, nil
}

func (r *MemoryTaskRepository) Update(ctx context.Context, id int64, patch models.TaskUpdate) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tasks[id]
	if !ok {
		return nil, models.ErrTaskNotFound
	}

	updated := stored.Clone()
	patch.Apply(updated)
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	updated.Touch(r.now().UTC())

	r.tasks[id] = updated
	return updated.Clone(), nil
}

func (r *MemoryTaskRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return false, nil
	}

	delete(r.tasks, id)
	owned := r.byOwner[task.UserID]
	if i := slices.Index(owned, id); i >= 0 {
		r.byOwner[task.UserID] = slices.Delete(owned, i, i+1)
	}
	return true, nil
}
