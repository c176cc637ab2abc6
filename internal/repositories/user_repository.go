package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"donaid/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already taken")
)

// UserRepository defines the user lookups needed for authentication.
type UserRepository interface {
	// GetByEmail retrieves an account by email address, case-insensitively
	GetByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetByID retrieves an account by its id
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// CreateAccount stores a new account
	CreateAccount(ctx context.Context, account *models.Account) error

	// IncrementTokenVersion invalidates every token issued so far
	IncrementTokenVersion(ctx context.Context, id string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user.Account(), nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	uintID, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, uintID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user.Account(), nil
}

func (r *userRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	user := models.User{
		Email:        normalizeEmail(account.Email),
		Password:     account.PasswordHash,
		Role:         account.Role,
		IsActive:     account.IsActive,
		TokenVersion: account.TokenVersion,
	}
	if user.TokenVersion == 0 {
		user.TokenVersion = 1
	}

	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	account.ID = strconv.FormatUint(uint64(user.ID), 10)
	account.TokenVersion = user.TokenVersion
	return nil
}

func (r *userRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + 1"))
	if result.Error != nil {
		return fmt.Errorf("increment token version: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
