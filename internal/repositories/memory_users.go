package repositories

import (
	"context"
	"sync"
	"time"

	"task-manager/api/internal/models"
)

type MemoryUserRepository struct {
	mu         sync.RWMutex
	users      map[int64]*models.User
	byUsername map[string]int64
	byEmail    map[string]int64
	nextID     int64
	now        func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:      make(map[int64]*models.User),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
		nextID:     1,
		now:        time.Now,
	}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[user.Username]; taken {
		return models.ErrDuplicateUsername
	}
	if _, taken := r.byEmail[user.Email]; taken {
		return models.ErrDuplicateEmail
	}

	user.ID = r.nextID
	r.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now().UTC()
	}

	stored := *user
	r.users[stored.ID] = &stored
	r.byUsername[stored.Username] = stored.ID
	r.byEmail[stored.Email] = stored.ID

	return nil
}

func (r *MemoryUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return r.copyOf(id)
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return r.copyOf(id)
}

// copyOf must be called with r.mu held.
func (r *MemoryUserRepository) copyOf(id int64) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	c := *user
	return &c, nil
}
