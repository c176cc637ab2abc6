package repositories

import (
	"context"
	"fmt"

	"donaid/internal/models"

	"gorm.io/gorm"
)

// RecordSource computes snapshot aggregates from the SQL record stores.
// Flow measures (donations, new users, new campaigns) are limited to the
// window; stock measures (totals, active counts) are taken as of its end.
type RecordSource struct {
	db *gorm.DB
}

func NewRecordSource(db *gorm.DB) *RecordSource {
	return &RecordSource{db: db}
}

func (r *RecordSource) AggregateDonations(ctx context.Context, w models.Window) (models.DonationStats, error) {
	var row struct {
		Count         int64
		TotalAmount   float64
		AverageAmount float64
		MaxAmount     float64
		MinAmount     float64
		UniqueDonors  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Donation{}).
		Select(`COUNT(*) AS count,
			COALESCE(SUM(amount), 0) AS total_amount,
			COALESCE(AVG(amount), 0) AS average_amount,
			COALESCE(MAX(amount), 0) AS max_amount,
			COALESCE(MIN(amount), 0) AS min_amount,
			COUNT(DISTINCT donor_email) AS unique_donors`).
		Where("status = ? AND created_at BETWEEN ? AND ?", models.DonationStatusCompleted, w.Start, w.End).
		Scan(&row).Error
	if err != nil {
		return models.DonationStats{}, fmt.Errorf("aggregate donations: %w", err)
	}
	return models.DonationStats(row), nil
}

type regionRow struct {
	Name           string
	DonationAmount float64
	DonationCount  int64
}

type regionUsers struct {
	Name      string
	UserCount int64
}

// AggregateGeography groups completed donations by donor country and state.
// User counts per region are attached as of the end of the window.
func (r *RecordSource) AggregateGeography(ctx context.Context, w models.Window) (models.Geography, error) {
	countries, err := r.regions(ctx, w, "country")
	if err != nil {
		return models.Geography{}, err
	}
	states, err := r.regions(ctx, w, "state")
	if err != nil {
		return models.Geography{}, err
	}
	return models.Geography{Countries: countries, States: states}, nil
}

func (r *RecordSource) regions(ctx context.Context, w models.Window, column string) ([]models.RegionStats, error) {
	var donations []regionRow
	err := r.db.WithContext(ctx).Model(&models.Donation{}).
		Select(column+" AS name, COALESCE(SUM(amount), 0) AS donation_amount, COUNT(*) AS donation_count").
		Where("status = ? AND created_at BETWEEN ? AND ?", models.DonationStatusCompleted, w.Start, w.End).
		Where(column + " <> ''").
		Group(column).
		Order("donation_amount DESC").
		Order(column).
		Scan(&donations).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate donations by %s: %w", column, err)
	}

	var users []regionUsers
	err = r.db.WithContext(ctx).Model(&models.User{}).
		Select(column+" AS name, COUNT(*) AS user_count").
		Where("created_at <= ?", w.End).
		Where(column + " <> ''").
		Group(column).
		Scan(&users).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate users by %s: %w", column, err)
	}
	userCounts := make(map[string]int64, len(users))
	for _, u := range users {
		userCounts[u.Name] = u.UserCount
	}

	out := make([]models.RegionStats, 0, len(donations))
	for _, d := range donations {
		out = append(out, models.RegionStats{
			Name:           d.Name,
			DonationAmount: d.DonationAmount,
			DonationCount:  d.DonationCount,
			UserCount:      userCounts[d.Name],
		})
	}
	return out, nil
}

func (r *RecordSource) AggregateUsers(ctx context.Context, w models.Window) (models.UserStats, error) {
	var row struct {
		Total            int64
		Active           int64
		New              int64 `gorm:"column:new_count"`
		Donors           int64
		CampaignCreators int64
	}
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0) AS new_count,
			COALESCE(SUM(CASE WHEN role = ? THEN 1 ELSE 0 END), 0) AS donors,
			COALESCE(SUM(CASE WHEN role IN ? THEN 1 ELSE 0 END), 0) AS campaign_creators`,
			w.Start, models.RoleDonor, models.CampaignCreatorRoles).
		Where("created_at <= ?", w.End).
		Scan(&row).Error
	if err != nil {
		return models.UserStats{}, fmt.Errorf("aggregate users: %w", err)
	}
	return models.UserStats(row), nil
}

func (r *RecordSource) AggregateCampaigns(ctx context.Context, w models.Window) (models.CampaignStats, error) {
	var row models.CampaignStats
	err := r.db.WithContext(ctx).Model(&models.Campaign{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN goal_amount > 0 AND raised_amount >= goal_amount THEN 1 ELSE 0 END), 0) AS successful,
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0) AS created,
			COALESCE(SUM(goal_amount), 0) AS total_goal_amount,
			COALESCE(SUM(raised_amount), 0) AS total_raised_amount`,
			models.CampaignStatusActive, models.CampaignStatusCompleted, w.Start).
		Where("created_at <= ?", w.End).
		Scan(&row).Error
	if err != nil {
		return models.CampaignStats{}, fmt.Errorf("aggregate campaigns: %w", err)
	}
	return row, nil
}

func (r *RecordSource) AggregateCompanies(ctx context.Context, w models.Window) (models.CompanyStats, error) {
	var row struct {
		Total    int64
		Active   int64
		Verified int64
		New      int64 `gorm:"column:new_count"`
	}
	err := r.db.WithContext(ctx).Model(&models.Company{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN is_verified THEN 1 ELSE 0 END), 0) AS verified,
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0) AS new_count`, w.Start).
		Where("created_at <= ?", w.End).
		Scan(&row).Error
	if err != nil {
		return models.CompanyStats{}, fmt.Errorf("aggregate companies: %w", err)
	}
	return models.CompanyStats(row), nil
}

func (r *RecordSource) AggregateNGOs(ctx context.Context, w models.Window) (models.NGOStats, error) {
	var row struct {
		Total    int64
		Active   int64
		Verified int64
		New      int64 `gorm:"column:new_count"`
		With12A  int64 `gorm:"column:with_12a"`
		With80G  int64 `gorm:"column:with_80g"`
	}
	err := r.db.WithContext(ctx).Model(&models.NGO{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN is_verified THEN 1 ELSE 0 END), 0) AS verified,
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0) AS new_count,
			COALESCE(SUM(CASE WHEN has_12a THEN 1 ELSE 0 END), 0) AS with_12a,
			COALESCE(SUM(CASE WHEN has_80g THEN 1 ELSE 0 END), 0) AS with_80g`, w.Start).
		Where("created_at <= ?", w.End).
		Scan(&row).Error
	if err != nil {
		return models.NGOStats{}, fmt.Errorf("aggregate ngos: %w", err)
	}
	return models.NGOStats{
		Total:        row.Total,
		Active:       row.Active,
		Verified:     row.Verified,
		New:          row.New,
		Certified12A: row.With12A,
		Certified80G: row.With80G,
	}, nil
}
