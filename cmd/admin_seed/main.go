package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"donaid/internal/bootstrap"
	"donaid/internal/config"
	applogger "donaid/internal/logger"
	"donaid/internal/models"
	"donaid/internal/repositories"
	"donaid/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()

	log := applogger.NewForEnvironment(config.GetEnv("ENV", "development"), config.GetEnv("LOG_LEVEL", "info"))
	defer func() { _ = log.Sync() }()

	adminEmail := config.GetEnv("ADMIN_EMAIL", "")
	adminPassword := config.GetEnv("ADMIN_PASSWORD", "")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stores, err := bootstrap.OpenStores(ctx, config.StatsStore(), log)
	if err != nil {
		log.Fatal("failed to open stores", zap.Error(err))
	}

	created, err := seedAdmin(ctx, stores.Users, adminEmail, adminPassword, bcrypt.DefaultCost)
	if closeErr := stores.Close(context.Background()); closeErr != nil {
		log.Warn("failed to close stores", zap.Error(closeErr))
	}
	switch {
	case err != nil:
		log.Fatal("failed to create admin user", zap.Error(err))
	case created:
		log.Info("admin account created", zap.String("email", adminEmail), zap.String("store", stores.Backend))
	default:
		log.Info("admin user already exists", zap.String("email", adminEmail))
	}
}

// seedAdmin creates the admin account unless one with that email exists.
func seedAdmin(ctx context.Context, users repositories.UserRepository, email, password string, cost int) (bool, error) {
	v := validation.New()
	v.Password("ADMIN_PASSWORD", password)
	if !v.Valid() {
		return false, v
	}

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return false, fmt.Errorf("look up admin: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	err = users.CreateAccount(ctx, &models.Account{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleAdmin,
		IsActive:     true,
		TokenVersion: 1,
	})
	if errors.Is(err, repositories.ErrEmailTaken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
