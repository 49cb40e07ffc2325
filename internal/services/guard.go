package services

import (
	"context"
	"errors"
	"fmt"

	"task-manager/api/internal/models"
)

// Guard turns a bearer token into the active user it names.
type Guard struct {
	tokens *TokenService
	users  ProfileLookup
}

func NewGuard(tokens *TokenService, users ProfileLookup) *Guard {
	return &Guard{tokens: tokens, users: users}
}

func (g *Guard) Resolve(ctx context.Context, token string) (*models.UserProfile, error) {
	username, ok := g.tokens.Verify(token)
	if !ok {
		return nil, models.ErrUnauthenticated
	}

	user, err := g.users.FindByUsername(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}

	if !user.IsActive {
		return nil, models.ErrInactiveAccount
	}
	return user, nil
}
