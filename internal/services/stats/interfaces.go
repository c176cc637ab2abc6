package stats

import (
	"context"
	"time"

	"donaid/internal/models"
)

// Service defines the statistics service interface
type Service interface {
	// Snapshot construction
	CreateDailySnapshot(ctx context.Context, date time.Time) (*models.Snapshot, error)
	CreateSnapshot(ctx context.Context, date time.Time, period models.PeriodType) (*models.Snapshot, error)

	// Incremental updates
	UpdateCategoryStats(ctx context.Context, id string, category models.Category, campaignDelta int64, amountDelta float64, countDelta int64) (*models.Snapshot, error)
	UpdatePaymentMethodStats(ctx context.Context, id string, method models.PaymentMethod, countDelta int64, amountDelta float64) (*models.Snapshot, error)
	RecalculateGrowth(ctx context.Context, id string) (*models.Snapshot, error)
	UpdateEngagement(ctx context.Context, id string, engagement models.Engagement) (*models.Snapshot, error)
	UpdatePerformance(ctx context.Context, id string, performance models.Performance) (*models.Snapshot, error)

	// Queries
	GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error)
	GetLatestSnapshot(ctx context.Context, period models.PeriodType) (*models.Snapshot, error)
	GetSnapshotsInRange(ctx context.Context, start, end time.Time, period models.PeriodType) ([]models.Snapshot, error)
	AggregateRange(ctx context.Context, start, end time.Time) (*RangeSummary, error)
}

// DonationSource reads completed donations.
type DonationSource interface {
	AggregateDonations(ctx context.Context, w models.Window) (models.DonationStats, error)
	AggregateGeography(ctx context.Context, w models.Window) (models.Geography, error)
}

// UserSource counts users as of the end of a window.
type UserSource interface {
	AggregateUsers(ctx context.Context, w models.Window) (models.UserStats, error)
}

type CampaignSource interface {
	AggregateCampaigns(ctx context.Context, w models.Window) (models.CampaignStats, error)
}

type OrganizationSource interface {
	AggregateCompanies(ctx context.Context, w models.Window) (models.CompanyStats, error)
	AggregateNGOs(ctx context.Context, w models.Window) (models.NGOStats, error)
}

// Sources groups the record stores a snapshot is computed from.
type Sources struct {
	Donations     DonationSource
	Users         UserSource
	Campaigns     CampaignSource
	Organizations OrganizationSource
}

// SnapshotRepository persists snapshots. Lookups that find nothing return
// errors.ErrSnapshotNotFound; Create returns errors.ErrDuplicateSnapshot
// when the (date, period type) pair is taken.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *models.Snapshot) error
	FindByID(ctx context.Context, id string) (*models.Snapshot, error)
	FindPrevious(ctx context.Context, period models.PeriodType, before time.Time) (*models.Snapshot, error)
	FindLatest(ctx context.Context, period models.PeriodType) (*models.Snapshot, error)
	// FindInRange returns snapshots with date in [start, end] ordered by
	// date. An empty period matches every period type.
	FindInRange(ctx context.Context, start, end time.Time, period models.PeriodType) ([]models.Snapshot, error)
	// Update loads the snapshot, applies mutate and persists the result in
	// one read-modify-write cycle. Nothing is written if mutate fails.
	Update(ctx context.Context, id string, mutate func(*models.Snapshot) error) (*models.Snapshot, error)
}

// SnapshotCache caches the latest snapshot per period type.
type SnapshotCache interface {
	GetLatest(ctx context.Context, period models.PeriodType) (*models.Snapshot, bool, error)
	SetLatest(ctx context.Context, snapshot *models.Snapshot) error
	InvalidateLatest(ctx context.Context, period models.PeriodType) error
}

// MetricsCollector defines the interface for collecting stats metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordError(operation, errType string)
	RecordCacheHit(key string)
	RecordCacheMiss(key string)
	RecordSnapshot(period models.PeriodType, donationTotal float64)
}
