package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"task-manager/api/internal/models"
)

const currentUserKey = "current_user"

// Resolver turns a bearer token into the caller's profile.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*models.UserProfile, error)
}

// RequireUser rejects requests without a valid bearer token for an active
// user and stores the resolved profile on the context.
func RequireUser(resolver Resolver, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortUnauthenticated(c)
			return
		}

		user, err := resolver.Resolve(c.Request.Context(), token)
		switch {
		case err == nil:
			SetCurrentUser(c, user)
			c.Next()
		case errors.Is(err, models.ErrUnauthenticated):
			AbortUnauthenticated(c)
		case errors.Is(err, models.ErrInactiveAccount):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "inactive_user",
				"message": "Inactive user",
			})
		default:
			logger.WithError(err).Error("Failed to resolve bearer token")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "Internal server error",
			})
		}
	}
}

// AbortUnauthenticated writes the 401 challenge shared by the guard and login.
func AbortUnauthenticated(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthenticated",
		"message": "Could not validate credentials",
	})
}

// SetCurrentUser attaches the authenticated profile to the request.
func SetCurrentUser(c *gin.Context, user *models.UserProfile) {
	c.Set(currentUserKey, user)
}

// CurrentUser returns the profile stored by RequireUser.
func CurrentUser(c *gin.Context) (*models.UserProfile, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.UserProfile)
	return user, ok && user != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
