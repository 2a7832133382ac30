package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"huddle/internal/core/domain"
	"huddle/internal/core/services"
	"huddle/internal/infrastructure/middleware"
	"huddle/internal/infrastructure/repositories/memory"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

type nopEmailSender struct{}

func (nopEmailSender) SendPasswordReset(ctx context.Context, to, code string) error { return nil }

// newUserRouter wires a real user service behind the handler with the
// given user acting as the authenticated caller.
func newUserRouter(t *testing.T, handler *UserHandler, actor domain.UserID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zaptest.NewLogger(t)))
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, actor)
		c.Next()
	})
	handler.SetupRoutes(router.Group("/api/v1"))
	return router
}

func TestSetTierEndpoint(t *testing.T) {
	ctx := context.Background()
	userService := services.NewUserService(
		memory.NewMemoryUserRepository(),
		services.NewSequence(0),
		nopEmailSender{},
		zaptest.NewLogger(t).Sugar(),
	)

	owner, err := userService.Register(ctx, "alice@example.com", "password123", "Alice", "Smith")
	if err != nil {
		t.Fatalf("register owner: %v", err)
	}
	target, err := userService.Register(ctx, "bob@example.com", "password123", "Bob", "Jones")
	if err != nil {
		t.Fatalf("register target: %v", err)
	}

	router := newUserRouter(t, NewUserHandler(userService), owner.ID)

	put := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPut, "/api/v1/users/2/tier", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	if w := put(`{"tier": "owner"}`); w.Code != http.StatusOK {
		t.Fatalf("expected 200 promoting to owner, got %d: %s", w.Code, w.Body.String())
	}
	profile, err := userService.Profile(ctx, owner.ID, target.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Tier != domain.TierOwner {
		t.Fatalf("expected tier %q after promotion, got %q", domain.TierOwner, profile.Tier)
	}

	if w := put(`{"tier": "member"}`); w.Code != http.StatusOK {
		t.Fatalf("expected 200 demoting to member, got %d: %s", w.Code, w.Body.String())
	}

	// Tier names are a closed set; numeric and unknown values never bind.
	for _, body := range []string{`{"tier": 2}`, `{"tier": "admin"}`, `{}`} {
		if w := put(body); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for body %s, got %d", body, w.Code)
		}
	}
}
