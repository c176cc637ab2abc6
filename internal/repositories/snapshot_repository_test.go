package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "donaid/internal/errors"
	"donaid/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig())
	require.NoError(t, err)

	// every pooled connection would get its own in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func newSnapshot(date time.Time, period models.PeriodType) *models.Snapshot {
	s := models.NewSnapshot(date, period)
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	return s
}

var day = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

func TestSnapshotRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	snap := newSnapshot(day, models.PeriodDaily)
	snap.Donations = models.DonationStats{Count: 4, TotalAmount: 1250.5, AverageAmount: 312.63, MaxAmount: 800, MinAmount: 50.5, UniqueDonors: 3}
	snap.Organizations.NGOs = models.NGOStats{Total: 5, Certified12A: 2, Certified80G: 1}
	snap.Categories = []models.CategoryStats{{Name: models.CategoryEducation, CampaignCount: 2, DonationAmount: 1000, DonationCount: 3, AverageGoal: 5000, SuccessRate: 50}}
	snap.PaymentMethods = []models.PaymentMethodStats{{Method: models.PaymentUPI, Count: 4, Amount: 1250.5, Percentage: 100}}
	snap.Geography.Countries = []models.RegionStats{{Name: "India", DonationAmount: 1250.5, DonationCount: 4, UserCount: 12}}
	snap.Growth = &models.Growth{DonationGrowth: -12.5, UserGrowth: 3}

	require.NoError(t, repo.Create(ctx, snap))

	found, err := repo.FindByID(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, found.ID)
	assert.True(t, day.Equal(found.Date))
	assert.Equal(t, models.PeriodDaily, found.PeriodType)
	assert.Equal(t, snap.Donations, found.Donations)
	assert.Equal(t, snap.Organizations, found.Organizations)
	assert.Equal(t, snap.Categories, found.Categories)
	assert.Equal(t, snap.PaymentMethods, found.PaymentMethods)
	assert.Equal(t, snap.Geography.Countries, found.Geography.Countries)
	assert.NotNil(t, found.Geography.States)
	require.NotNil(t, found.Growth)
	assert.Equal(t, -12.5, found.Growth.DonationGrowth)
}

func TestSnapshotRepository_NoGrowthRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	snap := newSnapshot(day, models.PeriodWeekly)
	require.NoError(t, repo.Create(ctx, snap))

	found, err := repo.FindByID(ctx, snap.ID)
	require.NoError(t, err)
	assert.Nil(t, found.Growth)
	assert.Empty(t, found.Categories)
	assert.NotNil(t, found.Categories)
}

func TestSnapshotRepository_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSnapshot(day, models.PeriodDaily)))

	err := repo.Create(ctx, newSnapshot(day, models.PeriodDaily))
	assert.True(t, errors.Is(err, apperrors.ErrDuplicateSnapshot))

	// same date, different period is allowed
	assert.NoError(t, repo.Create(ctx, newSnapshot(day, models.PeriodMonthly)))
}

func TestSnapshotRepository_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "missing")
	assert.True(t, errors.Is(err, apperrors.ErrSnapshotNotFound))

	_, err = repo.FindLatest(ctx, models.PeriodDaily)
	assert.True(t, errors.Is(err, apperrors.ErrSnapshotNotFound))

	_, err = repo.FindPrevious(ctx, models.PeriodDaily, day)
	assert.True(t, errors.Is(err, apperrors.ErrSnapshotNotFound))

	_, err = repo.Update(ctx, "missing", func(*models.Snapshot) error { return nil })
	assert.True(t, errors.Is(err, apperrors.ErrSnapshotNotFound))
}

func TestSnapshotRepository_PreviousAndLatest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	for _, offset := range []int{-3, -1, 0, 2} {
		s := newSnapshot(day.AddDate(0, 0, offset), models.PeriodDaily)
		s.Donations.TotalAmount = float64(100 + offset)
		require.NoError(t, repo.Create(ctx, s))
	}
	require.NoError(t, repo.Create(ctx, newSnapshot(day.AddDate(1, 0, 0), models.PeriodYearly)))

	prev, err := repo.FindPrevious(ctx, models.PeriodDaily, day)
	require.NoError(t, err)
	assert.True(t, day.AddDate(0, 0, -1).Equal(prev.Date))

	latest, err := repo.FindLatest(ctx, models.PeriodDaily)
	require.NoError(t, err)
	assert.True(t, day.AddDate(0, 0, 2).Equal(latest.Date))
	assert.Equal(t, 102.0, latest.Donations.TotalAmount)
}

func TestSnapshotRepository_FindInRange(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newSnapshot(day.AddDate(0, 0, i), models.PeriodDaily)))
	}
	require.NoError(t, repo.Create(ctx, newSnapshot(day, models.PeriodWeekly)))

	daily, err := repo.FindInRange(ctx, day.AddDate(0, 0, 1), day.AddDate(0, 0, 3), models.PeriodDaily)
	require.NoError(t, err)
	require.Len(t, daily, 3)
	for i, s := range daily {
		assert.True(t, day.AddDate(0, 0, i+1).Equal(s.Date))
	}

	all, err := repo.FindInRange(ctx, day.AddDate(0, 0, -30), day.AddDate(0, 0, 30), "")
	require.NoError(t, err)
	assert.Len(t, all, 6)

	none, err := repo.FindInRange(ctx, day.AddDate(1, 0, 0), day.AddDate(1, 0, 5), models.PeriodDaily)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSnapshotRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	snap := newSnapshot(day, models.PeriodDaily)
	require.NoError(t, repo.Create(ctx, snap))

	updated, err := repo.Update(ctx, snap.ID, func(s *models.Snapshot) error {
		s.PaymentMethods = append(s.PaymentMethods, models.PaymentMethodStats{Method: models.PaymentCash, Count: 1, Amount: 20, Percentage: 100})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, updated.PaymentMethods, 1)

	found, err := repo.FindByID(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.PaymentMethods, found.PaymentMethods)
	assert.True(t, snap.Date.Equal(found.Date))

	// failed mutations leave the row untouched
	_, err = repo.Update(ctx, snap.ID, func(s *models.Snapshot) error {
		s.PaymentMethods = nil
		return apperrors.ErrInvalidDelta
	})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidDelta))

	found, err = repo.FindByID(ctx, snap.ID)
	require.NoError(t, err)
	assert.Len(t, found.PaymentMethods, 1)
}

func TestSnapshotRepository_ConcurrentUpdates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	snap := newSnapshot(day, models.PeriodDaily)
	require.NoError(t, repo.Create(ctx, snap))

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, snap.ID, func(s *models.Snapshot) error {
				s.Donations.Count++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	found, err := repo.FindByID(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), found.Donations.Count)
}
