package handlers

import (
	"context"
	"time"

	apperrors "donaid/internal/errors"
	"donaid/internal/models"
	"donaid/internal/services/stats"
	"donaid/internal/utils/response"
	"donaid/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type StatsHandler struct {
	statsService  stats.Service
	createTimeout time.Duration
	logger        *zap.Logger
}

// NewStatsHandler creates the admin statistics handler. createTimeout bounds
// snapshot creation per request; zero leaves it to the service.
func NewStatsHandler(statsService stats.Service, createTimeout time.Duration, logger *zap.Logger) *StatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsHandler{
		statsService:  statsService,
		createTimeout: createTimeout,
		logger:        logger.Named("stats_handler"),
	}
}

type createSnapshotRequest struct {
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	PeriodType string `json:"period_type" validate:"omitempty,period_type"`
}

type categoryDeltaRequest struct {
	Category      string  `json:"category" validate:"required,category"`
	CampaignDelta int64   `json:"campaign_delta"`
	AmountDelta   float64 `json:"amount_delta"`
	CountDelta    int64   `json:"count_delta"`
}

type paymentMethodDeltaRequest struct {
	Method      string  `json:"method" validate:"required,payment_method"`
	CountDelta  int64   `json:"count_delta"`
	AmountDelta float64 `json:"amount_delta"`
}

type engagementRequest struct {
	AverageSessionDuration float64 `json:"average_session_duration" validate:"gte=0"`
	PageViews              int64   `json:"page_views" validate:"gte=0"`
	UniqueVisitors         int64   `json:"unique_visitors" validate:"gte=0"`
	BounceRate             float64 `json:"bounce_rate" validate:"gte=0,lte=100"`
	ConversionRate         float64 `json:"conversion_rate" validate:"gte=0,lte=100"`
}

type performanceRequest struct {
	AverageResponseTime float64 `json:"average_response_time" validate:"gte=0"`
	Uptime              float64 `json:"uptime" validate:"gte=0,lte=100"`
	ErrorRate           float64 `json:"error_rate" validate:"gte=0,lte=100"`
}

// parseBody decodes and validates the request body into req. It writes the
// 400 response itself and reports false when the handler should stop.
func parseBody(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	v := validation.New()
	v.Struct(req)
	if !v.Valid() {
		return false, response.ValidationError(c, "validation failed", v.Errors)
	}
	return true, nil
}

// CreateSnapshot builds the snapshot of the requested period containing date.
// Periods that have not ended yet are rejected by the service.
func (h *StatsHandler) CreateSnapshot(c *fiber.Ctx) error {
	var req createSnapshotRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	date, _ := time.Parse(validation.DateLayout, req.Date)
	period, err := models.ParsePeriodType(req.PeriodType)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	ctx := c.UserContext()
	if h.createTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.createTimeout)
		defer cancel()
	}

	snapshot, err := h.statsService.CreateSnapshot(ctx, date, period)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return response.Created(c, "Snapshot created successfully", snapshot)
}

func (h *StatsHandler) GetSnapshot(c *fiber.Ctx) error {
	snapshot, err := h.statsService.GetSnapshot(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return response.Success(c, "Snapshot retrieved successfully", snapshot)
}

func (h *StatsHandler) GetLatestSnapshot(c *fiber.Ctx) error {
	period, err := models.ParsePeriodType(c.Query("period_type"))
	if err != nil {
		return writeError(c, h.logger, err)
	}

	snapshot, err := h.statsService.GetLatestSnapshot(c.UserContext(), period)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return response.Success(c, "Latest snapshot retrieved successfully", snapshot)
}

// GetSnapshotsInRange lists snapshots dated in [start, end]. Without
// period_type every period type is returned.
func (h *StatsHandler) GetSnapshotsInRange(c *fiber.Ctx) error {
	start, end, err := parseRange(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	var period models.PeriodType
	if raw := c.Query("period_type"); raw != "" {
		if period, err = models.ParsePeriodType(raw); err != nil {
			return writeError(c, h.logger, err)
		}
	}

	snapshots, err := h.statsService.GetSnapshotsInRange(c.UserContext(), start, end, period)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return response.Success(c, "Snapshots retrieved successfully", snapshots)
}

func (h *StatsHandler) GetRangeSummary(c *fiber.Ctx) error {
	start, end, err := parseRange(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	summary, err := h.statsService.AggregateRange(c.UserContext(), start, end)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return response.Success(c, "Range summary retrieved successfully", summary)
}

func (h *StatsHandler) UpdateCategoryStats(c *fiber.Ctx) error {
	var req categoryDeltaRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	snapshot, err := h.statsService.UpdateCategoryStats(c.UserContext(), c.Params("id"),
		category, req.CampaignDelta, req.AmountDelta, req.CountDelta)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return response.Success(c, "Category stats updated successfully", snapshot)
}

func (h *StatsHandler) UpdatePaymentMethodStats(c *fiber.Ctx) error {
	var req paymentMethodDeltaRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	method, err := models.ParsePaymentMethod(req.Method)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	snapshot, err := h.statsService.UpdatePaymentMethodStats(c.UserContext(), c.Params("id"),
		method, req.CountDelta, req.AmountDelta)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return response.Success(c, "Payment method stats updated successfully", snapshot)
}

func (h *StatsHandler) RecalculateGrowth(c *fiber.Ctx) error {
	snapshot, err := h.statsService.RecalculateGrowth(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return response.Success(c, "Growth recalculated successfully", snapshot)
}

func (h *StatsHandler) UpdateEngagement(c *fiber.Ctx) error {
	var req engagementRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	snapshot, err := h.statsService.UpdateEngagement(c.UserContext(), c.Params("id"), models.Engagement(req))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return response.Success(c, "Engagement updated successfully", snapshot)
}

func (h *StatsHandler) UpdatePerformance(c *fiber.Ctx) error {
	var req performanceRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	snapshot, err := h.statsService.UpdatePerformance(c.UserContext(), c.Params("id"), models.Performance(req))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return response.Success(c, "Performance updated successfully", snapshot)
}

// parseRange reads the start and end query dates. end covers its whole day.
func parseRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	rawStart, rawEnd := c.Query("start"), c.Query("end")
	if rawStart == "" || rawEnd == "" {
		return time.Time{}, time.Time{}, apperrors.Newf(apperrors.ErrInvalidRange, "start and end are required")
	}

	start, err := time.Parse(validation.DateLayout, rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Newf(apperrors.ErrInvalidRange, "invalid start date %q", rawStart)
	}
	end, err := time.Parse(validation.DateLayout, rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Newf(apperrors.ErrInvalidRange, "invalid end date %q", rawEnd)
	}
	if end.Sub(start) > validation.MaxRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, apperrors.Newf(apperrors.ErrInvalidRange,
			"range must not exceed %d days", validation.MaxRangeDays)
	}
	return start, end.Add(24*time.Hour - time.Nanosecond), nil
}
