package utils

import (
	"errors"
	"time"

	"donaid/internal/config"
	"donaid/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer = "donaid-api"

	// Audiences keep refresh tokens out of the Authorization header and
	// access tokens out of the refresh endpoint.
	AccessAudience  = "access"
	RefreshAudience = "refresh"

	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var errNoSecret = errors.New("JWT_SECRET not configured")

func jwtSecret() ([]byte, error) {
	secret := config.GetEnv("JWT_SECRET", "")
	if secret == "" {
		return nil, errNoSecret
	}
	return []byte(secret), nil
}

// GenerateTokens generates an access token and a refresh token for the given user claims.
// The JWT secret is expected to be set in the environment variable JWT_SECRET.
func GenerateTokens(claims *models.UserClaims) (accessToken string, refreshToken string, err error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", "", err
	}

	now := time.Now()
	accessToken, err = sign(secret, claims, AccessAudience, now, AccessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = sign(secret, claims, RefreshAudience, now, RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func sign(secret []byte, claims *models.UserClaims, audience string, now time.Time, ttl time.Duration) (string, error) {
	c := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   claims.UserID,
			Audience:  jwt.ClaimStrings{audience},
			ID:        uuid.NewString(),
		},
		UserID:       claims.UserID,
		Email:        claims.Email,
		Role:         claims.Role,
		TokenVersion: claims.TokenVersion,
	}
	// refresh tokens carry identity only
	if audience == AccessAudience {
		c.Permissions = claims.Permissions
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

// ParseToken parses and validates a JWT token string issued for audience.
func ParseToken(tokenStr, audience string) (*jwt.Token, *models.UserClaims, error) {
	secret, err := jwtSecret()
	if err != nil {
		return nil, nil, err
	}

	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, nil, err
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid {
		return nil, nil, errors.New("invalid token claims")
	}
	return token, claims, nil
}
