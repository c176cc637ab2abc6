package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "donaid/internal/errors"
	"donaid/internal/models"
	"donaid/internal/services/auth"
	"donaid/internal/utils"

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
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Account), args.Get(1).(*auth.Tokens), args.Error(2)
}

func (m *MockAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*auth.Tokens, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Tokens), args.Error(1)
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

func TestLoginUser(t *testing.T) {
	account := &models.Account{ID: "1", Email: "admin@donaid.org", Role: models.RoleAdmin}
	tokens := &auth.Tokens{AccessToken: "access", RefreshToken: "refresh"}

	svc := new(MockAuthService)
	svc.On("Login", mock.Anything, "admin@donaid.org", "Donate#2026").Return(account, tokens, nil)
	svc.On("Login", mock.Anything, "admin@donaid.org", "wrong").Return(nil, nil, apperrors.ErrInvalidCredentials)

	app := fiber.New()
	app.Post("/login", NewAuthHandler(svc, nil).LoginUser)

	status, body := do(t, app, fiber.MethodPost, "/login", `{"email":"admin@donaid.org","password":"Donate#2026"}`)
	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "access", data["access_token"])
	assert.Equal(t, "admin", data["user"].(map[string]interface{})["role"])

	status, body = do(t, app, fiber.MethodPost, "/login", `{"email":"admin@donaid.org","password":"wrong"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])

	status, _ = do(t, app, fiber.MethodPost, "/login", `{"email":"not-an-email","password":"x"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRefreshToken(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("RefreshTokens", mock.Anything, "good").Return(&auth.Tokens{AccessToken: "a2", RefreshToken: "r2"}, nil)
	svc.On("RefreshTokens", mock.Anything, "stale").Return(nil, apperrors.ErrSessionExpired)

	app := fiber.New()
	app.Post("/refresh", NewAuthHandler(svc, nil).RefreshToken)

	status, _ := do(t, app, fiber.MethodPost, "/refresh", `{"refresh_token":"good"}`)
	assert.Equal(t, fiber.StatusOK, status)

	req := httptest.NewRequest(fiber.MethodPost, "/refresh", nil)
	req.Header.Set("Cookie", "refresh_token=good")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	status, _ = do(t, app, fiber.MethodPost, "/refresh", `{"refresh_token":"stale"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = do(t, app, fiber.MethodPost, "/refresh", `{}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestLogoutUser(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Logout", mock.Anything, "1").Return(nil)

	withClaims := func(c *fiber.Ctx) error {
		c.Locals(utils.ClaimsKey, &models.UserClaims{UserID: "1", Role: models.RoleAdmin})
		return c.Next()
	}

	app := fiber.New()
	h := NewAuthHandler(svc, nil)
	app.Post("/logout", withClaims, h.LogoutUser)
	app.Post("/anonymous-logout", h.LogoutUser)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/logout", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(strings.Join(resp.Header.Values("Set-Cookie"), ";"), "refresh_token=;"))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/anonymous-logout", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	svc.AssertExpectations(t)
}
