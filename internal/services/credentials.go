package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"
	"task-manager/api/internal/validation"
)

// CredentialStore registers users and checks their passwords.
type CredentialStore struct {
	users  repositories.UserRepository
	hasher *PasswordHasher
	logger logrus.FieldLogger
	now    func() time.Time
}

func NewCredentialStore(users repositories.UserRepository, hasher *PasswordHasher, logger logrus.FieldLogger) *CredentialStore {
	return &CredentialStore{
		users:  users,
		hasher: hasher,
		logger: logger,
		now:    time.Now,
	}
}

// Register creates an active user. Username is checked before email; the
// repository repeats both checks atomically with the insert.
func (s *CredentialStore) Register(ctx context.Context, in models.UserCreate) (*models.UserProfile, error) {
	if err := validation.Struct(in); err != nil {
		return nil, &models.ValidationError{Fields: validation.ToDetails(err)}
	}

	if err := s.ensureAbsent(ctx, s.users.FindByUsername, "username", in.Username, models.ErrDuplicateUsername); err != nil {
		return nil, err
	}
	if err := s.ensureAbsent(ctx, s.users.FindByEmail, "email", in.Email, models.ErrDuplicateEmail); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	var fullName *string
	if in.FullName != nil {
		name := *in.FullName
		fullName = &name
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     fullName,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateUsername) || errors.Is(err, models.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
	return user.Profile(), nil
}

// Authenticate returns the profile for a matching username and password.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (s *CredentialStore) Authenticate(ctx context.Context, username, password string) (*models.UserProfile, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		if err := s.hasher.CompareDummy(ctx, password); err != nil {
			return nil, err
		}
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := s.hasher.Compare(ctx, user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrInvalidCredentials
	}
	return user.Profile(), nil
}

func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*models.UserProfile, error) {
	return s.profile(s.users.FindByUsername(ctx, username))
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	return s.profile(s.users.FindByEmail(ctx, email))
}

func (s *CredentialStore) profile(user *models.User, err error) (*models.UserProfile, error) {
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user.Profile(), nil
}

func (s *CredentialStore) ensureAbsent(
	ctx context.Context,
	find func(context.Context, string) (*models.User, error),
	field, value string,
	dup error,
) error {
	_, err := find(ctx, value)
	switch {
	case err == nil:
		return dup
	case errors.Is(err, models.ErrUserNotFound):
		return nil
	default:
		return fmt.Errorf("check %s: %w", field, err)
	}
}
