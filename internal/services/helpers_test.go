package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"task-manager/api/internal/logging"
	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"
	"task-manager/api/internal/worker"
)

const testSecret = "test-secret"

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	pool := worker.NewPool(2, logging.Discard())
	t.Cleanup(pool.Stop)
	return NewPasswordHasher(bcrypt.MinCost, pool)
}

func newTestCredentials(t *testing.T) (*CredentialStore, *repositories.MemoryUserRepository) {
	t.Helper()
	users := repositories.NewMemoryUserRepository()
	return NewCredentialStore(users, newTestHasher(t), logging.Discard()), users
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time          { return c.t }
func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTokens(clock *fixedClock) *TokenService {
	s := NewTokenService(testSecret, "task-manager-api", 30*time.Minute)
	if clock != nil {
		s.now = clock.Now
	}
	return s
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func registerUser(t *testing.T, store *CredentialStore, username string) *models.UserProfile {
	t.Helper()
	profile, err := store.Register(context.Background(), models.UserCreate{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return profile
}

// countingLookup counts calls that reach the underlying store.
type countingLookup struct {
	next  ProfileLookup
	calls atomic.Int32
}

func (c *countingLookup) FindByUsername(ctx context.Context, username string) (*models.UserProfile, error) {
	c.calls.Add(1)
	return c.next.FindByUsername(ctx, username)
}
