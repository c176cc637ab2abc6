package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "donaid/internal/errors"
	"donaid/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type service struct {
	sources Sources
	repo    SnapshotRepository
	cache   SnapshotCache
	fees    *FeeCalculator
	config  Config
	metrics MetricsCollector
	logger  *zap.Logger
	now     func() time.Time

	// cacheMu orders read-through cache fills against invalidations.
	// generations counts invalidations per period type.
	cacheMu     sync.Mutex
	generations map[models.PeriodType]uint64
}

// NewService creates a new stats service. cache, metrics and logger may be
// nil.
func NewService(
	sources Sources,
	repo SnapshotRepository,
	cache SnapshotCache,
	config Config,
	metrics MetricsCollector,
	logger *zap.Logger,
) Service {
	if cache == nil {
		cache = noopCache{}
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		sources: sources,
		repo:    repo,
		cache:   cache,
		fees:    NewFeeCalculator(config.PlatformFeePercent, config.ProcessingFeePercent),
		config:  config,
		metrics: metrics,
		logger:  logger.Named("stats"),
		now:     time.Now,

		generations: make(map[models.PeriodType]uint64),
	}
}

func (s *service) CreateDailySnapshot(ctx context.Context, date time.Time) (*models.Snapshot, error) {
	return s.CreateSnapshot(ctx, date, models.PeriodDaily)
}

func (s *service) CreateSnapshot(ctx context.Context, date time.Time, period models.PeriodType) (*models.Snapshot, error) {
	const op = "create_snapshot"
	started := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(op, time.Since(started))
	}()

	if !period.IsValid() {
		s.metrics.RecordError(op, "invalid_period")
		return nil, apperrors.Newf(apperrors.ErrInvalidPeriod, "invalid period type %q", period)
	}

	if _, ok := ctx.Deadline(); !ok && s.config.ProcessingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ProcessingTimeout)
		defer cancel()
	}

	snapshot := models.NewSnapshot(date, period)
	window := snapshot.Window()
	log := s.logger.With(
		zap.String("period_type", period.String()),
		zap.Time("window_start", window.Start),
		zap.Time("window_end", window.End),
	)

	if window.End.After(s.now()) {
		s.metrics.RecordError(op, "open_window")
		return nil, apperrors.Newf(apperrors.ErrInvalidRange, "%s period ending %s has not closed yet",
			period, window.End.Format(time.RFC3339))
	}

	if err := s.aggregate(ctx, window, snapshot); err != nil {
		log.Error("snapshot aggregation failed", zap.Error(err))
		s.metrics.RecordError(op, "aggregation")
		s.metrics.RecordOperationResult(op, "failure")
		return nil, apperrors.Wrap(apperrors.ErrAggregationFailure, err)
	}
	snapshot.Revenue = s.fees.Revenue(snapshot.Donations.TotalAmount)

	previous, err := s.repo.FindPrevious(ctx, period, window.Start)
	switch {
	case err == nil:
		growth := CalculateGrowth(snapshot, previous)
		snapshot.Growth = &growth
	case errors.Is(err, apperrors.ErrSnapshotNotFound):
		// first snapshot of this period type
	default:
		log.Error("previous snapshot lookup failed", zap.Error(err))
		s.metrics.RecordError(op, "previous_lookup")
		s.metrics.RecordOperationResult(op, "failure")
		return nil, apperrors.Wrap(apperrors.ErrAggregationFailure, fmt.Errorf("previous snapshot: %w", err))
	}

	now := s.now().UTC()
	snapshot.ID = uuid.NewString()
	snapshot.CreatedAt = now
	snapshot.UpdatedAt = now

	if err := snapshot.Validate(); err != nil {
		s.metrics.RecordError(op, "validation")
		s.metrics.RecordOperationResult(op, "failure")
		return nil, err
	}

	if err := s.repo.Create(ctx, snapshot); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateSnapshot) {
			log.Warn("snapshot already exists")
			s.metrics.RecordError(op, "duplicate")
		} else {
			log.Error("failed to persist snapshot", zap.Error(err))
			s.metrics.RecordError(op, "persist")
		}
		s.metrics.RecordOperationResult(op, "failure")
		return nil, err
	}

	s.invalidate(ctx, period)
	s.metrics.RecordOperationResult(op, "success")
	s.metrics.RecordSnapshot(period, snapshot.Donations.TotalAmount)
	log.Info("snapshot created",
		zap.String("snapshot_id", snapshot.ID),
		zap.Int64("donations", snapshot.Donations.Count),
		zap.Float64("donation_total", snapshot.Donations.TotalAmount),
		zap.Bool("has_growth", snapshot.Growth != nil),
	)
	return snapshot, nil
}

// aggregate queries every record source concurrently and fills snapshot once
// all of them succeeded.
func (s *service) aggregate(ctx context.Context, w models.Window, snapshot *models.Snapshot) error {
	var (
		donations models.DonationStats
		users     models.UserStats
		campaigns models.CampaignStats
		companies models.CompanyStats
		ngos      models.NGOStats
		geography models.Geography
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if donations, err = s.sources.Donations.AggregateDonations(gctx, w); err != nil {
			return fmt.Errorf("donations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if users, err = s.sources.Users.AggregateUsers(gctx, w); err != nil {
			return fmt.Errorf("users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if campaigns, err = s.sources.Campaigns.AggregateCampaigns(gctx, w); err != nil {
			return fmt.Errorf("campaigns: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if companies, err = s.sources.Organizations.AggregateCompanies(gctx, w); err != nil {
			return fmt.Errorf("companies: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if ngos, err = s.sources.Organizations.AggregateNGOs(gctx, w); err != nil {
			return fmt.Errorf("ngos: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if geography, err = s.sources.Donations.AggregateGeography(gctx, w); err != nil {
			return fmt.Errorf("geography: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	snapshot.Donations = donations
	snapshot.Users = users
	snapshot.Campaigns = campaigns
	snapshot.Organizations = models.OrganizationStats{Companies: companies, NGOs: ngos}
	if geography.Countries == nil {
		geography.Countries = []models.RegionStats{}
	}
	if geography.States == nil {
		geography.States = []models.RegionStats{}
	}
	snapshot.Geography = geography
	return nil
}

func (s *service) UpdateCategoryStats(ctx context.Context, id string, category models.Category, campaignDelta int64, amountDelta float64, countDelta int64) (*models.Snapshot, error) {
	if !category.IsValid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidCategory, "invalid category %q", category)
	}
	return s.update(ctx, "update_category", id, func(snap *models.Snapshot) error {
		return UpsertCategoryStats(snap, category, campaignDelta, amountDelta, countDelta)
	})
}

func (s *service) UpdatePaymentMethodStats(ctx context.Context, id string, method models.PaymentMethod, countDelta int64, amountDelta float64) (*models.Snapshot, error) {
	if !method.IsValid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidPaymentMethod, "invalid payment method %q", method)
	}
	return s.update(ctx, "update_payment_method", id, func(snap *models.Snapshot) error {
		return UpsertPaymentMethodStats(snap, method, countDelta, amountDelta)
	})
}

func (s *service) RecalculateGrowth(ctx context.Context, id string) (*models.Snapshot, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous, err := s.repo.FindPrevious(ctx, current.PeriodType, current.Date)
	if err != nil && !errors.Is(err, apperrors.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("previous snapshot: %w", err)
	}

	return s.update(ctx, "recalculate_growth", id, func(snap *models.Snapshot) error {
		if previous == nil {
			snap.Growth = nil
			return nil
		}
		growth := CalculateGrowth(snap, previous)
		snap.Growth = &growth
		return nil
	})
}

func (s *service) UpdateEngagement(ctx context.Context, id string, engagement models.Engagement) (*models.Snapshot, error) {
	if engagement.AverageSessionDuration < 0 || engagement.PageViews < 0 || engagement.UniqueVisitors < 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidMetric, "engagement counters must not be negative")
	}
	if !models.IsPercentage(engagement.BounceRate) || !models.IsPercentage(engagement.ConversionRate) {
		return nil, apperrors.Newf(apperrors.ErrInvalidMetric, "engagement rates must be between 0 and 100")
	}
	return s.update(ctx, "update_engagement", id, func(snap *models.Snapshot) error {
		snap.Engagement = engagement
		return nil
	})
}

func (s *service) UpdatePerformance(ctx context.Context, id string, performance models.Performance) (*models.Snapshot, error) {
	if performance.AverageResponseTime < 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidMetric, "average response time must not be negative")
	}
	if !models.IsPercentage(performance.Uptime) || !models.IsPercentage(performance.ErrorRate) {
		return nil, apperrors.Newf(apperrors.ErrInvalidMetric, "uptime and error rate must be between 0 and 100")
	}
	return s.update(ctx, "update_performance", id, func(snap *models.Snapshot) error {
		snap.Performance = performance
		return nil
	})
}

func (s *service) update(ctx context.Context, op, id string, mutate func(*models.Snapshot) error) (*models.Snapshot, error) {
	started := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(op, time.Since(started))
	}()

	// The mutated document must still satisfy the snapshot invariants before
	// the repository writes it back.
	updated, err := s.repo.Update(ctx, id, func(snap *models.Snapshot) error {
		if err := mutate(snap); err != nil {
			return err
		}
		return snap.Validate()
	})
	if err != nil {
		s.metrics.RecordError(op, apperrors.CodeOf(err))
		s.metrics.RecordOperationResult(op, "failure")
		return nil, err
	}

	s.invalidate(ctx, updated.PeriodType)
	s.metrics.RecordOperationResult(op, "success")
	return updated, nil
}

func (s *service) GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) GetLatestSnapshot(ctx context.Context, period models.PeriodType) (*models.Snapshot, error) {
	if !period.IsValid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidPeriod, "invalid period type %q", period)
	}

	key := "latest:" + period.String()
	cached, found, err := s.cache.GetLatest(ctx, period)
	if err != nil {
		s.logger.Warn("snapshot cache read failed", zap.String("period_type", period.String()), zap.Error(err))
	}
	if found {
		s.metrics.RecordCacheHit(key)
		return cached, nil
	}
	s.metrics.RecordCacheMiss(key)

	generation := s.generation(period)
	snapshot, err := s.repo.FindLatest(ctx, period)
	if err != nil {
		return nil, err
	}

	s.fillLatest(ctx, snapshot, generation)
	return snapshot, nil
}

func (s *service) generation(period models.PeriodType) uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.generations[period]
}

// fillLatest caches snapshot unless the period was invalidated after the
// repository read that produced it.
func (s *service) fillLatest(ctx context.Context, snapshot *models.Snapshot, generation uint64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.generations[snapshot.PeriodType] != generation {
		s.logger.Debug("skipping stale snapshot cache fill", zap.String("period_type", snapshot.PeriodType.String()))
		return
	}
	if err := s.cache.SetLatest(ctx, snapshot); err != nil {
		s.logger.Warn("snapshot cache write failed", zap.String("period_type", snapshot.PeriodType.String()), zap.Error(err))
	}
}

func (s *service) GetSnapshotsInRange(ctx context.Context, start, end time.Time, period models.PeriodType) ([]models.Snapshot, error) {
	if !period.IsValid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidPeriod, "invalid period type %q", period)
	}
	if start.After(end) {
		return nil, apperrors.ErrInvalidRange
	}
	return s.repo.FindInRange(ctx, start, end, period)
}

func (s *service) AggregateRange(ctx context.Context, start, end time.Time) (*RangeSummary, error) {
	if start.After(end) {
		return nil, apperrors.ErrInvalidRange
	}

	snapshots, err := s.repo.FindInRange(ctx, start, end, "")
	if err != nil {
		return nil, err
	}
	return SummarizeRange(start, end, snapshots), nil
}

// SummarizeRange sums donation amount and count, new users and new
// campaigns, and averages the per-snapshot average donation.
func SummarizeRange(start, end time.Time, snapshots []models.Snapshot) *RangeSummary {
	summary := &RangeSummary{Start: start, End: end, SnapshotCount: len(snapshots)}
	if len(snapshots) == 0 {
		return summary
	}

	var averages float64
	for _, snap := range snapshots {
		summary.TotalDonationAmount += snap.Donations.TotalAmount
		summary.TotalDonationCount += snap.Donations.Count
		summary.NewUsers += snap.Users.New
		summary.NewCampaigns += snap.Campaigns.Created
		averages += snap.Donations.AverageAmount
	}
	summary.TotalDonationAmount = Round2(summary.TotalDonationAmount)
	summary.AverageDonation = Round2(averages / float64(len(snapshots)))
	return summary
}

func (s *service) invalidate(ctx context.Context, period models.PeriodType) {
	s.cacheMu.Lock()
	s.generations[period]++
	s.cacheMu.Unlock()

	if err := s.cache.InvalidateLatest(ctx, period); err != nil {
		s.logger.Warn("snapshot cache invalidation failed", zap.String("period_type", period.String()), zap.Error(err))
	}
}

type noopCache struct{}

func (noopCache) GetLatest(context.Context, models.PeriodType) (*models.Snapshot, bool, error) {
	return nil, false, nil
}
func (noopCache) SetLatest(context.Context, *models.Snapshot) error { return nil }
func (noopCache) InvalidateLatest(context.Context, models.PeriodType) error { return nil }
