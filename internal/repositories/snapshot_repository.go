package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "donaid/internal/errors"
	"donaid/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// snapshotRecord is the row layout of a snapshot. Scalar sections are
// flattened into prefixed columns; list sections are stored as JSON.
type snapshotRecord struct {
	ID             string               `gorm:"primaryKey;size:36"`
	Date           time.Time            `gorm:"column:snapshot_date;not null;uniqueIndex:idx_stats_snapshots_date_period"`
	PeriodType     string               `gorm:"size:16;not null;uniqueIndex:idx_stats_snapshots_date_period;index"`
	Donations      models.DonationStats `gorm:"embedded;embeddedPrefix:donations_"`
	Campaigns      models.CampaignStats `gorm:"embedded;embeddedPrefix:campaigns_"`
	Users          models.UserStats     `gorm:"embedded;embeddedPrefix:users_"`
	Companies      models.CompanyStats  `gorm:"embedded;embeddedPrefix:companies_"`
	NGOs           models.NGOStats      `gorm:"embedded;embeddedPrefix:ngos_"`
	Categories     datatypes.JSON
	PaymentMethods datatypes.JSON
	Geography      datatypes.JSON
	HasGrowth      bool               `gorm:"not null;default:false"`
	Growth         models.Growth      `gorm:"embedded;embeddedPrefix:growth_"`
	Engagement     models.Engagement  `gorm:"embedded;embeddedPrefix:engagement_"`
	Revenue        models.Revenue     `gorm:"embedded;embeddedPrefix:revenue_"`
	Performance    models.Performance `gorm:"embedded;embeddedPrefix:performance_"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (snapshotRecord) TableName() string {
	return "stats_snapshots"
}

func toRecord(s *models.Snapshot) (*snapshotRecord, error) {
	categories, err := json.Marshal(s.Categories)
	if err != nil {
		return nil, fmt.Errorf("encode categories: %w", err)
	}
	methods, err := json.Marshal(s.PaymentMethods)
	if err != nil {
		return nil, fmt.Errorf("encode payment methods: %w", err)
	}
	geography, err := json.Marshal(s.Geography)
	if err != nil {
		return nil, fmt.Errorf("encode geography: %w", err)
	}

	rec := &snapshotRecord{
		ID:             s.ID,
		Date:           s.Date.UTC(),
		PeriodType:     s.PeriodType.String(),
		Donations:      s.Donations,
		Campaigns:      s.Campaigns,
		Users:          s.Users,
		Companies:      s.Organizations.Companies,
		NGOs:           s.Organizations.NGOs,
		Categories:     datatypes.JSON(categories),
		PaymentMethods: datatypes.JSON(methods),
		Geography:      datatypes.JSON(geography),
		Engagement:     s.Engagement,
		Revenue:        s.Revenue,
		Performance:    s.Performance,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if s.Growth != nil {
		rec.HasGrowth = true
		rec.Growth = *s.Growth
	}
	return rec, nil
}

func (r *snapshotRecord) toModel() (*models.Snapshot, error) {
	s := &models.Snapshot{
		ID:             r.ID,
		Date:           r.Date.UTC(),
		PeriodType:     models.PeriodType(r.PeriodType),
		Donations:      r.Donations,
		Campaigns:      r.Campaigns,
		Users:          r.Users,
		Organizations:  models.OrganizationStats{Companies: r.Companies, NGOs: r.NGOs},
		Categories:     []models.CategoryStats{},
		PaymentMethods: []models.PaymentMethodStats{},
		Engagement:     r.Engagement,
		Revenue:        r.Revenue,
		Performance:    r.Performance,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	if len(r.Categories) > 0 {
		if err := json.Unmarshal(r.Categories, &s.Categories); err != nil {
			return nil, fmt.Errorf("decode categories: %w", err)
		}
	}
	if len(r.PaymentMethods) > 0 {
		if err := json.Unmarshal(r.PaymentMethods, &s.PaymentMethods); err != nil {
			return nil, fmt.Errorf("decode payment methods: %w", err)
		}
	}
	if len(r.Geography) > 0 {
		if err := json.Unmarshal(r.Geography, &s.Geography); err != nil {
			return nil, fmt.Errorf("decode geography: %w", err)
		}
	}
	if s.Categories == nil {
		s.Categories = []models.CategoryStats{}
	}
	if s.PaymentMethods == nil {
		s.PaymentMethods = []models.PaymentMethodStats{}
	}
	if s.Geography.Countries == nil {
		s.Geography.Countries = []models.RegionStats{}
	}
	if s.Geography.States == nil {
		s.Geography.States = []models.RegionStats{}
	}
	if r.HasGrowth {
		g := r.Growth
		s.Growth = &g
	}
	return s, nil
}

// GormSnapshotRepository stores snapshots in the stats_snapshots table.
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository returns the gorm-backed snapshot store. The db must
// be opened with TranslateError so duplicates are recognised.
func NewSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

func (r *GormSnapshotRepository) Create(ctx context.Context, snapshot *models.Snapshot) error {
	rec, err := toRecord(snapshot)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Newf(apperrors.ErrDuplicateSnapshot,
				"%s snapshot for %s already exists", snapshot.PeriodType, snapshot.Date.Format("2006-01-02"))
		}
		return fmt.Errorf("create snapshot: %w", err)
	}
	return nil
}

func (r *GormSnapshotRepository) FindByID(ctx context.Context, id string) (*models.Snapshot, error) {
	var rec snapshotRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err, "find snapshot")
	}
	return rec.toModel()
}

func (r *GormSnapshotRepository) FindPrevious(ctx context.Context, period models.PeriodType, before time.Time) (*models.Snapshot, error) {
	var rec snapshotRecord
	err := r.db.WithContext(ctx).
		Where("period_type = ? AND snapshot_date < ?", period.String(), before.UTC()).
		Order("snapshot_date DESC").
		First(&rec).Error
	if err != nil {
		return nil, notFound(err, "find previous snapshot")
	}
	return rec.toModel()
}

func (r *GormSnapshotRepository) FindLatest(ctx context.Context, period models.PeriodType) (*models.Snapshot, error) {
	var rec snapshotRecord
	err := r.db.WithContext(ctx).
		Where("period_type = ?", period.String()).
		Order("snapshot_date DESC").
		First(&rec).Error
	if err != nil {
		return nil, notFound(err, "find latest snapshot")
	}
	return rec.toModel()
}

func (r *GormSnapshotRepository) FindInRange(ctx context.Context, start, end time.Time, period models.PeriodType) ([]models.Snapshot, error) {
	query := r.db.WithContext(ctx).Where("snapshot_date >= ? AND snapshot_date <= ?", start.UTC(), end.UTC())
	if period != "" {
		query = query.Where("period_type = ?", period.String())
	}

	var recs []snapshotRecord
	if err := query.Order("snapshot_date ASC").Order("period_type ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("find snapshots in range: %w", err)
	}

	out := make([]models.Snapshot, 0, len(recs))
	for i := range recs {
		s, err := recs[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// Update locks the row for the duration of the transaction so concurrent
// rollups on PostgreSQL are applied one after another.
func (r *GormSnapshotRepository) Update(ctx context.Context, id string, mutate func(*models.Snapshot) error) (*models.Snapshot, error) {
	var updated *models.Snapshot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec snapshotRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&rec).Error; err != nil {
			return notFound(err, "lock snapshot")
		}

		snapshot, err := rec.toModel()
		if err != nil {
			return err
		}
		if err := mutate(snapshot); err != nil {
			return err
		}
		snapshot.UpdatedAt = time.Now().UTC()

		next, err := toRecord(snapshot)
		if err != nil {
			return err
		}
		if err := tx.Save(next).Error; err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		updated = snapshot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrSnapshotNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
