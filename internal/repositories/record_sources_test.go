package repositories

import (
	"context"
	"testing"
	"time"

	"donaid/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	window = models.WindowFor(time.Date(2026, time.May, 20, 0, 0, 0, 0, time.UTC), models.PeriodDaily)
	inside = time.Date(2026, time.May, 20, 10, 30, 0, 0, time.UTC)
	before = time.Date(2026, time.May, 18, 9, 0, 0, 0, time.UTC)
	after  = time.Date(2026, time.May, 21, 1, 0, 0, 0, time.UTC)
)

func seedRecords(t *testing.T, db *gorm.DB) {
	users := []models.User{
		{Email: "a@example.org", Password: "x", Role: models.RoleDonor, IsActive: true, Country: "India", State: "Kerala"},
		{Email: "b@example.org", Password: "x", Role: models.RoleDonor, IsActive: true, Country: "India", State: "Goa"},
		{Email: "ngo@example.org", Password: "x", Role: models.RoleNGO, IsActive: true, Country: "India", State: "Kerala"},
		{Email: "co@example.org", Password: "x", Role: models.RoleCompany, IsActive: true, Country: "Nepal"},
		{Email: "late@example.org", Password: "x", Role: models.RoleDonor, IsActive: true, Country: "India"},
	}
	created := []time.Time{before, inside, before, inside, after}
	for i := range users {
		users[i].CreatedAt = created[i]
		require.NoError(t, db.Create(&users[i]).Error)
	}
	// inactive users need an explicit update because false is a zero value
	require.NoError(t, db.Model(&users[1]).Update("is_active", false).Error)

	campaigns := []models.Campaign{
		{Title: "School", Category: models.CategoryEducation, GoalAmount: 1000, RaisedAmount: 1200, Status: models.CampaignStatusCompleted},
		{Title: "Clinic", Category: models.CategoryHealthcare, GoalAmount: 5000, RaisedAmount: 800, Status: models.CampaignStatusActive},
		{Title: "Future", Category: models.CategoryOther, GoalAmount: 100, Status: models.CampaignStatusDraft},
	}
	campaignCreated := []time.Time{before, inside, after}
	for i := range campaigns {
		campaigns[i].CreatedAt = campaignCreated[i]
		require.NoError(t, db.Create(&campaigns[i]).Error)
	}

	donations := []models.Donation{
		{CampaignID: 1, DonorEmail: "a@example.org", Amount: 100, Status: models.DonationStatusCompleted, PaymentMethod: models.PaymentUPI, Country: "India", State: "Kerala", Model: gorm.Model{CreatedAt: inside}},
		{CampaignID: 1, DonorEmail: "a@example.org", Amount: 300, Status: models.DonationStatusCompleted, PaymentMethod: models.PaymentCreditCard, Country: "India", State: "Goa", Model: gorm.Model{CreatedAt: inside.Add(time.Hour)}},
		{CampaignID: 2, DonorEmail: "b@example.org", Amount: 50, Status: models.DonationStatusCompleted, PaymentMethod: models.PaymentUPI, Country: "Nepal", Model: gorm.Model{CreatedAt: inside.Add(2 * time.Hour)}},
		{CampaignID: 2, DonorEmail: "b@example.org", Amount: 999, Status: models.DonationStatusFailed, Country: "India", Model: gorm.Model{CreatedAt: inside}},
		{CampaignID: 2, DonorEmail: "c@example.org", Amount: 700, Status: models.DonationStatusCompleted, Country: "India", Model: gorm.Model{CreatedAt: before}},
		{CampaignID: 2, DonorEmail: "c@example.org", Amount: 700, Status: models.DonationStatusCompleted, Country: "India", Model: gorm.Model{CreatedAt: after}},
	}
	require.NoError(t, db.Create(&donations).Error)

	companies := []models.Company{
		{Name: "Acme", IsActive: true, IsVerified: true, Model: gorm.Model{CreatedAt: before}},
		{Name: "Globex", IsActive: true, Model: gorm.Model{CreatedAt: inside}},
	}
	require.NoError(t, db.Create(&companies).Error)

	ngos := []models.NGO{
		{Name: "Seva", IsActive: true, IsVerified: true, Has12A: true, Has80G: true, Model: gorm.Model{CreatedAt: before}},
		{Name: "Asha", IsActive: true, Has12A: true, Model: gorm.Model{CreatedAt: inside}},
		{Name: "Later", IsActive: true, Model: gorm.Model{CreatedAt: after}},
	}
	require.NoError(t, db.Create(&ngos).Error)
}

func TestRecordSource_Donations(t *testing.T) {
	db := setupTestDB(t)
	seedRecords(t, db)
	src := NewRecordSource(db)

	stats, err := src.AggregateDonations(context.Background(), window)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Count)
	assert.Equal(t, 450.0, stats.TotalAmount)
	assert.InDelta(t, 150.0, stats.AverageAmount, 0.001)
	assert.Equal(t, 300.0, stats.MaxAmount)
	assert.Equal(t, 50.0, stats.MinAmount)
	assert.Equal(t, int64(2), stats.UniqueDonors)
}

func TestRecordSource_EmptyWindow(t *testing.T) {
	db := setupTestDB(t)
	src := NewRecordSource(db)
	ctx := context.Background()

	donations, err := src.AggregateDonations(ctx, window)
	require.NoError(t, err)
	assert.Equal(t, models.DonationStats{}, donations)

	geo, err := src.AggregateGeography(ctx, window)
	require.NoError(t, err)
	assert.Empty(t, geo.Countries)
	assert.Empty(t, geo.States)

	users, err := src.AggregateUsers(ctx, window)
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{}, users)
}

func TestRecordSource_Users(t *testing.T) {
	db := setupTestDB(t)
	seedRecords(t, db)
	src := NewRecordSource(db)

	stats, err := src.AggregateUsers(context.Background(), window)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(3), stats.Active)
	assert.Equal(t, int64(2), stats.New)
	assert.Equal(t, int64(2), stats.Donors)
	assert.Equal(t, int64(2), stats.CampaignCreators)
}

func TestRecordSource_Campaigns(t *testing.T) {
	db := setupTestDB(t)
	seedRecords(t, db)
	src := NewRecordSource(db)

	stats, err := src.AggregateCampaigns(context.Background(), window)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Active)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Successful)
	assert.Equal(t, int64(1), stats.Created)
	assert.Equal(t, 6000.0, stats.TotalGoalAmount)
	assert.Equal(t, 2000.0, stats.TotalRaisedAmount)
}

func TestRecordSource_Organizations(t *testing.T) {
	db := setupTestDB(t)
	seedRecords(t, db)
	src := NewRecordSource(db)
	ctx := context.Background()

	companies, err := src.AggregateCompanies(ctx, window)
	require.NoError(t, err)
	assert.Equal(t, models.CompanyStats{Total: 2, Active: 2, Verified: 1, New: 1}, companies)

	ngos, err := src.AggregateNGOs(ctx, window)
	require.NoError(t, err)
	assert.Equal(t, models.NGOStats{Total: 2, Active: 2, Verified: 1, New: 1, Certified12A: 2, Certified80G: 1}, ngos)
}

func TestRecordSource_Geography(t *testing.T) {
	db := setupTestDB(t)
	seedRecords(t, db)
	src := NewRecordSource(db)

	geo, err := src.AggregateGeography(context.Background(), window)
	require.NoError(t, err)

	require.Len(t, geo.Countries, 2)
	assert.Equal(t, models.RegionStats{Name: "India", DonationAmount: 400, DonationCount: 2, UserCount: 3}, geo.Countries[0])
	assert.Equal(t, models.RegionStats{Name: "Nepal", DonationAmount: 50, DonationCount: 1, UserCount: 1}, geo.Countries[1])

	require.Len(t, geo.States, 2)
	assert.Equal(t, "Goa", geo.States[0].Name)
	assert.Equal(t, 300.0, geo.States[0].DonationAmount)
	assert.Equal(t, int64(1), geo.States[0].UserCount)
	assert.Equal(t, "Kerala", geo.States[1].Name)
	assert.Equal(t, int64(2), geo.States[1].UserCount)
}
