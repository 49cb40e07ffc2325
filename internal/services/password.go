package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"task-manager/api/internal/worker"
)

// MaxPasswordBytes is the bcrypt input limit. Longer passwords are truncated
// before hashing and comparison.
const MaxPasswordBytes = 72

// PasswordHasher runs bcrypt on a bounded worker pool.
type PasswordHasher struct {
	cost int
	pool *worker.Pool

	dummyOnce sync.Once
	dummyHash []byte
	dummyErr  error
}

func NewPasswordHasher(cost int, pool *worker.Pool) *PasswordHasher {
	return &PasswordHasher{cost: cost, pool: pool}
}

func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	var hash []byte
	err := h.pool.Do(ctx, func() error {
		var err error
		hash, err = bcrypt.GenerateFromPassword(truncatePassword(password), h.cost)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether password matches hash. A malformed hash is an
// error, a mismatch is not.
func (h *PasswordHasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	return h.compare(ctx, []byte(hash), password)
}

// CompareDummy spends the same work as Compare against a hash nothing
// matches, so unknown users cost as much as wrong passwords.
func (h *PasswordHasher) CompareDummy(ctx context.Context, password string) error {
	h.dummyOnce.Do(func() {
		h.dummyHash, h.dummyErr = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), h.cost)
	})
	if h.dummyErr != nil {
		return fmt.Errorf("dummy hash: %w", h.dummyErr)
	}
	_, err := h.compare(ctx, h.dummyHash, password)
	return err
}

func (h *PasswordHasher) compare(ctx context.Context, hash []byte, password string) (bool, error) {
	var match bool
	err := h.pool.Do(ctx, func() error {
		err := bcrypt.CompareHashAndPassword(hash, truncatePassword(password))
		switch {
		case err == nil:
			match = true
			return nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return false, fmt.Errorf("compare password: %w", err)
	}
	return match, nil
}

func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}
