package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	apperrors "donaid/internal/errors"
	"donaid/internal/models"
	"donaid/internal/services/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.Account, *auth.Tokens, error) {
	args := m.Called(ctx, email, password)
	return nil, nil, args.Error(2)
}

func (m *MockAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*auth.Tokens, error) {
	args := m.Called(ctx, refreshToken)
	return nil, args.Error(1)
}

func (m *MockAuthService) ValidateToken(ctx context.Context, accessToken string) (*models.UserClaims, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserClaims), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func newApp(svc auth.Service, extra ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := []fiber.Handler{NewAuthMiddleware(svc, nil).Handler}
	handlers = append(handlers, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("userID").(string))
	})
	app.Get("/protected", handlers...)
	return app
}

func get(t *testing.T, app *fiber.App, header string) int {
	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set(fiber.HeaderAuthorization, header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuthMiddleware(t *testing.T) {
	admin := &models.UserClaims{UserID: "1", Role: models.RoleAdmin}
	ngo := &models.UserClaims{UserID: "2", Role: models.RoleNGO, Permissions: []string{models.PermissionStatsRead}}

	svc := new(MockAuthService)
	svc.On("ValidateToken", mock.Anything, "admin-token").Return(admin, nil)
	svc.On("ValidateToken", mock.Anything, "ngo-token").Return(ngo, nil)
	svc.On("ValidateToken", mock.Anything, "stale-token").Return(nil, apperrors.ErrSessionExpired)
	svc.On("ValidateToken", mock.Anything, "bad-token").Return(nil, apperrors.Wrap(apperrors.ErrInvalidToken, errors.New("signature")))
	svc.On("ValidateToken", mock.Anything, "db-down").Return(nil, errors.New("connection refused"))

	t.Run("authentication", func(t *testing.T) {
		app := newApp(svc)
		assert.Equal(t, fiber.StatusUnauthorized, get(t, app, ""))
		assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "Basic abc"))
		assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "Bearer bad-token"))
		assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "Bearer stale-token"))
		assert.Equal(t, fiber.StatusInternalServerError, get(t, app, "Bearer db-down"))
		assert.Equal(t, fiber.StatusOK, get(t, app, "Bearer ngo-token"))
	})

	t.Run("admin only", func(t *testing.T) {
		app := newApp(svc, AdminAuthMiddleware)
		assert.Equal(t, fiber.StatusOK, get(t, app, "Bearer admin-token"))
		assert.Equal(t, fiber.StatusForbidden, get(t, app, "Bearer ngo-token"))
	})

	t.Run("permissions", func(t *testing.T) {
		read := newApp(svc, HasPermission(models.PermissionStatsRead))
		assert.Equal(t, fiber.StatusOK, get(t, read, "Bearer ngo-token"))
		assert.Equal(t, fiber.StatusOK, get(t, read, "Bearer admin-token"))

		write := newApp(svc, HasPermission(models.PermissionStatsWrite))
		assert.Equal(t, fiber.StatusForbidden, get(t, write, "Bearer ngo-token"))
	})
}

func TestAdminAuthMiddleware_NoClaims(t *testing.T) {
	app := fiber.New()
	app.Get("/", AdminAuthMiddleware, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
