package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crewpay/internal/models"
	"crewpay/internal/repositories/cache"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signed(t *testing.T, method jwt.SigningMethod, key interface{}, claims *models.UserClaims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func newAuthApp(extra ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := append([]fiber.Handler{NewAuthMiddleware(testSecret).Handler}, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.JSON(actor)
	})
	app.Get("/", handlers...)
	return app
}

func get(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAuthMiddleware(t *testing.T) {
	app := newAuthApp()

	t.Run("valid token exposes actor", func(t *testing.T) {
		token := signed(t, jwt.SigningMethodHS256, []byte(testSecret), &models.UserClaims{UserID: 7, Role: models.RolePoster})
		assert.Equal(t, fiber.StatusOK, get(t, app, token).StatusCode)
	})

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "").StatusCode)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signed(t, jwt.SigningMethodHS256, []byte("other"), &models.UserClaims{UserID: 7, Role: models.RolePoster})
		assert.Equal(t, fiber.StatusUnauthorized, get(t, app, token).StatusCode)
	})

	t.Run("other algorithm rejected", func(t *testing.T) {
		token := signed(t, jwt.SigningMethodHS512, []byte(testSecret), &models.UserClaims{UserID: 7, Role: models.RolePoster})
		assert.Equal(t, fiber.StatusUnauthorized, get(t, app, token).StatusCode)
	})

	t.Run("expired", func(t *testing.T) {
		token := signed(t, jwt.SigningMethodHS256, []byte(testSecret), &models.UserClaims{
			UserID: 7, Role: models.RolePoster,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		})
		assert.Equal(t, fiber.StatusUnauthorized, get(t, app, token).StatusCode)
	})

	t.Run("anonymous user id only for system", func(t *testing.T) {
		token := signed(t, jwt.SigningMethodHS256, []byte(testSecret), &models.UserClaims{Role: models.RolePoster})
		assert.Equal(t, fiber.StatusUnauthorized, get(t, app, token).StatusCode)

		token = signed(t, jwt.SigningMethodHS256, []byte(testSecret), &models.UserClaims{Role: models.RoleSystem})
		assert.Equal(t, fiber.StatusOK, get(t, app, token).StatusCode)
	})
}

func TestRequireRoleAndPermission(t *testing.T) {
	roleApp := newAuthApp(RequireRole(models.RoleAdmin))
	permApp := newAuthApp(HasPermission(models.PermissionDisputeVote))

	admin := signed(t, jwt.SigningMethodHS256, []byte(testSecret), &models.UserClaims{UserID: 1, Role: models.RoleAdmin})
	reviewer := signed(t, jwt.SigningMethodHS256, []byte(testSecret), &models.UserClaims{
		UserID: 2, Role: models.RoleReviewer, Permissions: []string{models.PermissionDisputeVote},
	})
	poster := signed(t, jwt.SigningMethodHS256, []byte(testSecret), &models.UserClaims{UserID: 3, Role: models.RolePoster})

	assert.Equal(t, fiber.StatusOK, get(t, roleApp, admin).StatusCode)
	assert.Equal(t, fiber.StatusForbidden, get(t, roleApp, reviewer).StatusCode)

	assert.Equal(t, fiber.StatusOK, get(t, permApp, admin).StatusCode)
	assert.Equal(t, fiber.StatusOK, get(t, permApp, reviewer).StatusCode)
	assert.Equal(t, fiber.StatusForbidden, get(t, permApp, poster).StatusCode)
}

type fakeLimiter struct {
	decision cache.RateDecision
	err      error
	subjects []string
}

func (f *fakeLimiter) Allow(_ context.Context, subject string) (cache.RateDecision, error) {
	f.subjects = append(f.subjects, subject)
	return f.decision, f.err
}

func (f *fakeLimiter) Limit() int64 { return 5 }

func TestRateLimit(t *testing.T) {
	token := signed(t, jwt.SigningMethodHS256, []byte(testSecret), &models.UserClaims{UserID: 7, Role: models.RolePoster})

	t.Run("allowed sets headers", func(t *testing.T) {
		limiter := &fakeLimiter{decision: cache.RateDecision{Allowed: true, Count: 1, Remaining: 4}}
		resp := get(t, newAuthApp(RateLimit(limiter)), token)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "5", resp.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", resp.Header.Get("X-RateLimit-Remaining"))
		assert.Equal(t, []string{"user:7"}, limiter.subjects)
	})

	t.Run("over limit", func(t *testing.T) {
		limiter := &fakeLimiter{decision: cache.RateDecision{Allowed: false, Count: 6, ResetIn: 20 * time.Second}}
		resp := get(t, newAuthApp(RateLimit(limiter)), token)
		assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "21", resp.Header.Get(fiber.HeaderRetryAfter))
	})

	t.Run("fails open", func(t *testing.T) {
		limiter := &fakeLimiter{err: errors.New("connection refused")}
		resp := get(t, newAuthApp(RateLimit(limiter)), token)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
