package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"task-manager/api/internal/logging"
	"task-manager/api/internal/middleware"
	"task-manager/api/internal/models"
)

type stubResolver struct {
	tokens map[string]*models.UserProfile
	err    error
	seen   string
}

func (s *stubResolver) Resolve(_ context.Context, token string) (*models.UserProfile, error) {
	s.seen = token
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.tokens[token]
	if !ok {
		return nil, models.ErrUnauthenticated
	}
	if !user.IsActive {
		return nil, models.ErrInactiveAccount
	}
	return user, nil
}

func newProtectedRouter(resolver middleware.Resolver) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.RequireUser(resolver, logging.Discard()))
	router.GET("/protected", func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	})
	return router
}

func doProtected(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireUser_NoToken(t *testing.T) {
	w := doProtected(newProtectedRouter(&stubResolver{}), "")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Errorf("Expected WWW-Authenticate: Bearer, got %q", got)
	}
}

func TestRequireUser_MalformedHeader(t *testing.T) {
	router := newProtectedRouter(&stubResolver{})

	for _, header := range []string{"Basic abc", "Bearer", "Bearer    ", "token-without-scheme"} {
		if w := doProtected(router, header); w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected status %d, got %d", header, http.StatusUnauthorized, w.Code)
		}
	}
}

func TestRequireUser_InvalidToken(t *testing.T) {
	w := doProtected(newProtectedRouter(&stubResolver{}), "Bearer invalid_token")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestRequireUser_ValidToken(t *testing.T) {
	resolver := &stubResolver{tokens: map[string]*models.UserProfile{
		"good": {ID: 1, Username: "alice", IsActive: true},
	}}
	w := doProtected(newProtectedRouter(resolver), "bearer good")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if w.Body.String() != `{"username":"alice"}` {
		t.Errorf("Unexpected body %s", w.Body.String())
	}
	if resolver.seen != "good" {
		t.Errorf("Expected resolver to see token %q, got %q", "good", resolver.seen)
	}
}

func TestRequireUser_InactiveUser(t *testing.T) {
	resolver := &stubResolver{tokens: map[string]*models.UserProfile{
		"dormant": {ID: 2, Username: "dormant", IsActive: false},
	}}
	w := doProtected(newProtectedRouter(resolver), "Bearer dormant")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestRequireUser_ResolverFailure(t *testing.T) {
	w := doProtected(newProtectedRouter(&stubResolver{err: errors.New("store down")}), "Bearer any")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

func TestSetCurrentUser_VisibleToCurrentUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if _, ok := middleware.CurrentUser(c); ok {
		t.Fatal("Expected no user before SetCurrentUser")
	}

	middleware.SetCurrentUser(c, &models.UserProfile{ID: 3, Username: "carol", IsActive: true})

	user, ok := middleware.CurrentUser(c)
	if !ok || user.Username != "carol" {
		t.Errorf("Expected carol from CurrentUser, got %+v (ok=%v)", user, ok)
	}

	middleware.SetCurrentUser(c, nil)
	if _, ok := middleware.CurrentUser(c); ok {
		t.Error("Expected a nil profile to read back as absent")
	}
}
