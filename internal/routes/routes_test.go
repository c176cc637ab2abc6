package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "donaid/internal/errors"
	"donaid/internal/handlers"
	"donaid/internal/models"
	"donaid/internal/services/auth"
	"donaid/internal/services/stats"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenAuth accepts "admin" and "ngo" as bearer tokens.
type tokenAuth struct{}

func (tokenAuth) Login(context.Context, string, string) (*models.Account, *auth.Tokens, error) {
	return nil, nil, apperrors.ErrInvalidCredentials
}

func (tokenAuth) RefreshTokens(context.Context, string) (*auth.Tokens, error) {
	return nil, apperrors.ErrInvalidToken
}

func (tokenAuth) ValidateToken(_ context.Context, token string) (*models.UserClaims, error) {
	switch token {
	case "admin":
		return &models.UserClaims{UserID: "1", Role: models.RoleAdmin, Permissions: models.GetDefaultPermissions(models.RoleAdmin)}, nil
	case "ngo":
		return &models.UserClaims{UserID: "2", Role: models.RoleNGO, Permissions: models.GetDefaultPermissions(models.RoleNGO)}, nil
	}
	return nil, apperrors.ErrInvalidToken
}

func (tokenAuth) Logout(context.Context, string) error { return nil }

// emptyStats answers every lookup with "not found".
type emptyStats struct{ stats.Service }

func (emptyStats) GetLatestSnapshot(context.Context, models.PeriodType) (*models.Snapshot, error) {
	return nil, apperrors.ErrSnapshotNotFound
}

func newApp() *fiber.App {
	app := fiber.New()
	SetupRoutes(app, Dependencies{
		StatsService: emptyStats{},
		AuthService:  tokenAuth{},
		HealthChecks: map[string]handlers.HealthCheckFunc{
			"database": func(context.Context) error { return nil },
		},
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("donaid_up 1\n"))
		}),
		SnapshotTimeout: time.Minute,
	})
	return app
}

func TestRoutes(t *testing.T) {
	app := newApp()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health", fiber.MethodGet, "/health", "", fiber.StatusOK},
		{"metrics", fiber.MethodGet, "/metrics", "", fiber.StatusOK},
		{"login is public", fiber.MethodPost, "/api/login", "", fiber.StatusBadRequest},
		{"stats need a token", fiber.MethodGet, "/api/admin/stats/latest", "", fiber.StatusUnauthorized},
		{"stats need an admin", fiber.MethodGet, "/api/admin/stats/latest", "ngo", fiber.StatusForbidden},
		{"admin reaches the service", fiber.MethodGet, "/api/admin/stats/latest", "admin", fiber.StatusNotFound},
		{"logout needs a token", fiber.MethodPost, "/api/logout", "", fiber.StatusUnauthorized},
		{"logout", fiber.MethodPost, "/api/logout", "admin", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tt.token)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
