package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"task-manager/api/internal/models"
	"task-manager/api/internal/services"
)

type Credentials interface {
	Register(ctx context.Context, in models.UserCreate) (*models.UserProfile, error)
	Authenticate(ctx context.Context, username, password string) (*models.UserProfile, error)
}

type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
}

type AuthHandler struct {
	credentials Credentials
	tokens      TokenIssuer
	logger      logrus.FieldLogger
}

func NewAuthHandler(credentials Credentials, tokens TokenIssuer, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{credentials: credentials, tokens: tokens, logger: logger}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var in models.UserCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	profile, err := h.credentials.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}

// Login accepts an OAuth2-style password form.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.login(c, req)
}

func (h *AuthHandler) LoginJSON(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.login(c, req)
}

func (h *AuthHandler) login(c *gin.Context, req models.LoginRequest) {
	user, err := h.credentials.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	token, _, err := h.tokens.Issue(user.Username)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   services.TokenTypeBearer,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}
