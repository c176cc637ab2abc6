package main

import (
	"context"
	"testing"

	"donaid/internal/models"
	"donaid/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newUsers(t *testing.T) repositories.UserRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), repositories.GormConfig())
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))
	t.Cleanup(func() { _ = repositories.Close(db) })
	return repositories.NewUserRepository(db)
}

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t)

	created, err := seedAdmin(ctx, users, "admin@donaid.org", "Str0ng!Pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, created)

	account, err := users.GetByEmail(ctx, "admin@donaid.org")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, account.Role)
	assert.True(t, account.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("Str0ng!Pass")))

	created, err = seedAdmin(ctx, users, "ADMIN@donaid.org", "Str0ng!Pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestSeedAdmin_WeakPassword(t *testing.T) {
	created, err := seedAdmin(context.Background(), newUsers(t), "admin@donaid.org", "password", bcrypt.MinCost)
	require.Error(t, err)
	assert.False(t, created)
	assert.Contains(t, err.Error(), "ADMIN_PASSWORD")
}
