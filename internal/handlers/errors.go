package handlers

import (
	"context"
	"errors"

	apperrors "donaid/internal/errors"
	"donaid/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var badRequestErrors = []error{
	apperrors.ErrInvalidPeriod,
	apperrors.ErrInvalidCategory,
	apperrors.ErrInvalidPaymentMethod,
	apperrors.ErrInvalidDelta,
	apperrors.ErrInvalidRange,
	apperrors.ErrInvalidMetric,
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrDuplicateSnapshot), errors.Is(err, apperrors.ErrConcurrentUpdate):
		return fiber.StatusConflict
	case errors.Is(err, apperrors.ErrSnapshotNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrAggregationFailure):
		return fiber.StatusBadGateway
	case errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrInvalidToken),
		errors.Is(err, apperrors.ErrSessionExpired):
		return fiber.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return fiber.StatusBadRequest
		}
	}
	return fiber.StatusInternalServerError
}

// writeError renders err. Domain errors keep their message and code;
// anything else is logged and hidden behind a generic message.
func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := statusFor(err)
	code := apperrors.CodeOf(err)

	if status == fiber.StatusInternalServerError || status == fiber.StatusBadGateway {
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	if code == "" {
		if status == fiber.StatusGatewayTimeout {
			return response.Error(c, status, "request timed out")
		}
		return response.ServerError(c, "internal server error")
	}
	return response.DomainError(c, status, code, err.Error())
}
