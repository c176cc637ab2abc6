// Package auth signs administrators in and validates their tokens.
package auth

import (
	"context"
	"errors"

	apperrors "donaid/internal/errors"
	"donaid/internal/models"
	"donaid/internal/repositories"
	"donaid/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Tokens is the pair issued on login and refresh.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Service interface {
	Login(ctx context.Context, email, password string) (*models.Account, *Tokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*Tokens, error)
	// ValidateToken checks an access token against the current token
	// version of its user.
	ValidateToken(ctx context.Context, accessToken string) (*models.UserClaims, error)
	Logout(ctx context.Context, userID string) error
}

type service struct {
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

func NewService(userRepo repositories.UserRepository, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		userRepo: userRepo,
		logger:   logger.Named("auth"),
	}
}

func (s *service) Login(ctx context.Context, email, password string) (*models.Account, *Tokens, error) {
	account, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.logger.Info("login failed: unknown email")
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !account.IsActive {
		s.logger.Info("login failed: inactive account", zap.String("user_id", account.ID))
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed: incorrect password", zap.String("user_id", account.ID))
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	tokens, err := s.issue(account)
	if err != nil {
		return nil, nil, err
	}
	return account, tokens, nil
}

func (s *service) RefreshTokens(ctx context.Context, refreshToken string) (*Tokens, error) {
	_, claims, err := utils.ParseToken(refreshToken, utils.RefreshAudience)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidToken, err)
	}

	account, err := s.currentAccount(ctx, claims)
	if err != nil {
		return nil, err
	}
	return s.issue(account)
}

func (s *service) ValidateToken(ctx context.Context, accessToken string) (*models.UserClaims, error) {
	_, claims, err := utils.ParseToken(accessToken, utils.AccessAudience)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidToken, err)
	}
	if _, err := s.currentAccount(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Logout bumps the token version so every outstanding token stops validating.
func (s *service) Logout(ctx context.Context, userID string) error {
	if err := s.userRepo.IncrementTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrInvalidToken
		}
		return err
	}
	s.logger.Info("user logged out", zap.String("user_id", userID))
	return nil
}

func (s *service) currentAccount(ctx context.Context, claims *models.UserClaims) (*models.Account, error) {
	account, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, err
	}
	if !account.IsActive || account.TokenVersion != claims.TokenVersion {
		return nil, apperrors.ErrSessionExpired
	}
	return account, nil
}

func (s *service) issue(account *models.Account) (*Tokens, error) {
	access, refresh, err := utils.GenerateTokens(&models.UserClaims{
		UserID:       account.ID,
		Email:        account.Email,
		Role:         account.Role,
		TokenVersion: account.TokenVersion,
		Permissions:  models.GetDefaultPermissions(account.Role),
	})
	if err != nil {
		s.logger.Error("error generating tokens", zap.Error(err))
		return nil, err
	}
	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}
