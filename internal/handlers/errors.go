package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"task-manager/api/internal/middleware"
	"task-manager/api/internal/models"
	"task-manager/api/internal/validation"
)

type apiError struct {
	status  int
	code    string
	message string
}

var knownErrors = []struct {
	target error
	apiError
}{
	{models.ErrDuplicateUsername, apiError{http.StatusBadRequest, "duplicate_username", "Username already registered"}},
	{models.ErrDuplicateEmail, apiError{http.StatusBadRequest, "duplicate_email", "Email already registered"}},
	{models.ErrInactiveAccount, apiError{http.StatusBadRequest, "inactive_user", "Inactive user"}},
	{models.ErrTaskNotFound, apiError{http.StatusNotFound, "not_found", "Task not found"}},
	{models.ErrForbidden, apiError{http.StatusForbidden, "forbidden", "Not enough permissions"}},
}

// respondError maps domain errors onto status codes. Anything unrecognised
// is logged and reported as a bare 500.
func respondError(c *gin.Context, logger logrus.FieldLogger, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "validation_error",
			"message": "Request validation failed",
			"details": verr.Fields,
		})
		return
	}

	if errors.Is(err, models.ErrInvalidCredentials) {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_credentials",
			"message": "Incorrect username or password",
		})
		return
	}

	if errors.Is(err, models.ErrUnauthenticated) {
		middleware.AbortUnauthenticated(c)
		return
	}

	for _, known := range knownErrors {
		if errors.Is(err, known.target) {
			c.JSON(known.status, gin.H{"error": known.code, "message": known.message})
			return
		}
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.FullPath(),
		"request_id": c.GetString(middleware.RequestIDKey),
	}).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "Internal server error",
	})
}

// respondBindError reports a request that failed to bind or validate.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":   "validation_error",
		"message": "Request validation failed",
		"details": validation.ToDetails(err),
	})
}

func currentUser(c *gin.Context) (*models.UserProfile, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.AbortUnauthenticated(c)
	}
	return user, ok
}
