package models

import (
	"math"
	"time"

	apperrors "donaid/internal/errors"
)

// Snapshot is the persisted platform statistics for one (Date, PeriodType)
// pair. Date is the start of the covered window.
type Snapshot struct {
	ID             string               `json:"id" bson:"_id"`
	Date           time.Time            `json:"date" bson:"date"`
	PeriodType     PeriodType           `json:"period_type" bson:"periodType"`
	Donations      DonationStats        `json:"donations" bson:"donations"`
	Campaigns      CampaignStats        `json:"campaigns" bson:"campaigns"`
	Users          UserStats            `json:"users" bson:"users"`
	Organizations  OrganizationStats    `json:"organizations" bson:"organizations"`
	Categories     []CategoryStats      `json:"categories" bson:"categories"`
	PaymentMethods []PaymentMethodStats `json:"payment_methods" bson:"paymentMethods"`
	Geography      Geography            `json:"geography" bson:"geography"`
	Growth         *Growth              `json:"growth,omitempty" bson:"growth,omitempty"`
	Engagement     Engagement           `json:"engagement" bson:"engagement"`
	Revenue        Revenue              `json:"revenue" bson:"revenue"`
	Performance    Performance          `json:"performance" bson:"performance"`
	CreatedAt      time.Time            `json:"created_at" bson:"createdAt"`
	UpdatedAt      time.Time            `json:"updated_at" bson:"updatedAt"`
}

type DonationStats struct {
	Count         int64   `json:"count" bson:"count"`
	TotalAmount   float64 `json:"total_amount" bson:"totalAmount"`
	AverageAmount float64 `json:"average_amount" bson:"averageAmount"`
	MaxAmount     float64 `json:"max_amount" bson:"maxAmount"`
	MinAmount     float64 `json:"min_amount" bson:"minAmount"`
	UniqueDonors  int64   `json:"unique_donors" bson:"uniqueDonors"`
}

type CampaignStats struct {
	Total             int64   `json:"total" bson:"total"`
	Active            int64   `json:"active" bson:"active"`
	Completed         int64   `json:"completed" bson:"completed"`
	Successful        int64   `json:"successful" bson:"successful"`
	Created           int64   `json:"created" bson:"created"`
	TotalGoalAmount   float64 `json:"total_goal_amount" bson:"totalGoalAmount"`
	TotalRaisedAmount float64 `json:"total_raised_amount" bson:"totalRaisedAmount"`
}

type UserStats struct {
	Total            int64 `json:"total" bson:"total"`
	Active           int64 `json:"active" bson:"active"`
	New              int64 `json:"new" bson:"new"`
	Donors           int64 `json:"donors" bson:"donors"`
	CampaignCreators int64 `json:"campaign_creators" bson:"campaignCreators"`
}

type OrganizationStats struct {
	Companies CompanyStats `json:"companies" bson:"companies"`
	NGOs      NGOStats     `json:"ngos" bson:"ngos"`
}

type CompanyStats struct {
	Total    int64 `json:"total" bson:"total"`
	Active   int64 `json:"active" bson:"active"`
	Verified int64 `json:"verified" bson:"verified"`
	New      int64 `json:"new" bson:"new"`
}

type NGOStats struct {
	Total        int64 `json:"total" bson:"total"`
	Active       int64 `json:"active" bson:"active"`
	Verified     int64 `json:"verified" bson:"verified"`
	New          int64 `json:"new" bson:"new"`
	Certified12A int64 `json:"certified_12a" bson:"certified12A"`
	Certified80G int64 `json:"certified_80g" bson:"certified80G"`
}

// Certified returns how many NGOs hold c.
func (n NGOStats) Certified(c Certification) int64 {
	switch c {
	case Certification12A:
		return n.Certified12A
	case Certification80G:
		return n.Certified80G
	}
	return 0
}

// CategoryStats is a per-cause rollup. AverageGoal and SuccessRate are
// maintained outside the incremental update path.
type CategoryStats struct {
	Name           Category `json:"name" bson:"name"`
	CampaignCount  int64    `json:"campaign_count" bson:"campaignCount"`
	DonationAmount float64  `json:"donation_amount" bson:"donationAmount"`
	DonationCount  int64    `json:"donation_count" bson:"donationCount"`
	AverageGoal    float64  `json:"average_goal" bson:"averageGoal"`
	SuccessRate    float64  `json:"success_rate" bson:"successRate"`
}

type PaymentMethodStats struct {
	Method     PaymentMethod `json:"method" bson:"method"`
	Count      int64         `json:"count" bson:"count"`
	Amount     float64       `json:"amount" bson:"amount"`
	Percentage float64       `json:"percentage" bson:"percentage"`
}

type RegionStats struct {
	Name           string  `json:"name" bson:"name"`
	DonationAmount float64 `json:"donation_amount" bson:"donationAmount"`
	DonationCount  int64   `json:"donation_count" bson:"donationCount"`
	UserCount      int64   `json:"user_count" bson:"userCount"`
}

type Geography struct {
	Countries []RegionStats `json:"countries" bson:"countries"`
	States    []RegionStats `json:"states" bson:"states"`
}

// Growth holds signed period-over-period percentage deltas.
type Growth struct {
	DonationGrowth     float64 `json:"donation_growth" bson:"donationGrowth"`
	UserGrowth         float64 `json:"user_growth" bson:"userGrowth"`
	CampaignGrowth     float64 `json:"campaign_growth" bson:"campaignGrowth"`
	OrganizationGrowth float64 `json:"organization_growth" bson:"organizationGrowth"`
}

type Engagement struct {
	AverageSessionDuration float64 `json:"average_session_duration" bson:"averageSessionDuration"` // seconds
	PageViews              int64   `json:"page_views" bson:"pageViews"`
	UniqueVisitors         int64   `json:"unique_visitors" bson:"uniqueVisitors"`
	BounceRate             float64 `json:"bounce_rate" bson:"bounceRate"`
	ConversionRate         float64 `json:"conversion_rate" bson:"conversionRate"`
}

type Revenue struct {
	TotalRevenue   float64 `json:"total_revenue" bson:"totalRevenue"`
	PlatformFees   float64 `json:"platform_fees" bson:"platformFees"`
	ProcessingFees float64 `json:"processing_fees" bson:"processingFees"`
	NetRevenue     float64 `json:"net_revenue" bson:"netRevenue"`
}

type Performance struct {
	AverageResponseTime float64 `json:"average_response_time" bson:"averageResponseTime"` // milliseconds
	Uptime              float64 `json:"uptime" bson:"uptime"`
	ErrorRate           float64 `json:"error_rate" bson:"errorRate"`
}

// NewSnapshot returns an empty snapshot for the window containing date.
func NewSnapshot(date time.Time, period PeriodType) *Snapshot {
	return &Snapshot{
		Date:           WindowFor(date, period).Start,
		PeriodType:     period,
		Categories:     []CategoryStats{},
		PaymentMethods: []PaymentMethodStats{},
		Geography: Geography{
			Countries: []RegionStats{},
			States:    []RegionStats{},
		},
	}
}

// Window returns the time range covered by the snapshot.
func (s *Snapshot) Window() Window {
	return WindowFor(s.Date, s.PeriodType)
}

// OrganizationTotal is the combined company and NGO count used for growth.
func (s *Snapshot) OrganizationTotal() int64 {
	return s.Organizations.Companies.Total + s.Organizations.NGOs.Total
}

// Validate checks that counts and amounts are non-negative, percentage
// fields lie in [0,100] and rollup entries are unique.
func (s *Snapshot) Validate() error {
	if !s.PeriodType.IsValid() {
		return apperrors.Newf(apperrors.ErrInvalidPeriod, "invalid period type %q", s.PeriodType)
	}

	nonNegative := map[string]float64{
		"donations.count":                 float64(s.Donations.Count),
		"donations.total_amount":          s.Donations.TotalAmount,
		"donations.average_amount":        s.Donations.AverageAmount,
		"donations.max_amount":            s.Donations.MaxAmount,
		"donations.min_amount":            s.Donations.MinAmount,
		"donations.unique_donors":         float64(s.Donations.UniqueDonors),
		"campaigns.total":                 float64(s.Campaigns.Total),
		"campaigns.active":                float64(s.Campaigns.Active),
		"campaigns.completed":             float64(s.Campaigns.Completed),
		"campaigns.successful":            float64(s.Campaigns.Successful),
		"campaigns.created":               float64(s.Campaigns.Created),
		"campaigns.total_goal_amount":     s.Campaigns.TotalGoalAmount,
		"campaigns.total_raised_amount":   s.Campaigns.TotalRaisedAmount,
		"users.total":                     float64(s.Users.Total),
		"users.active":                    float64(s.Users.Active),
		"users.new":                       float64(s.Users.New),
		"users.donors":                    float64(s.Users.Donors),
		"users.campaign_creators":         float64(s.Users.CampaignCreators),
		"companies.total":                 float64(s.Organizations.Companies.Total),
		"companies.active":                float64(s.Organizations.Companies.Active),
		"companies.verified":              float64(s.Organizations.Companies.Verified),
		"companies.new":                   float64(s.Organizations.Companies.New),
		"ngos.total":                      float64(s.Organizations.NGOs.Total),
		"ngos.active":                     float64(s.Organizations.NGOs.Active),
		"ngos.verified":                   float64(s.Organizations.NGOs.Verified),
		"ngos.new":                        float64(s.Organizations.NGOs.New),
		"ngos.certified_12a":              float64(s.Organizations.NGOs.Certified12A),
		"ngos.certified_80g":              float64(s.Organizations.NGOs.Certified80G),
		"engagement.average_session":      s.Engagement.AverageSessionDuration,
		"engagement.page_views":           float64(s.Engagement.PageViews),
		"engagement.unique_visitors":      float64(s.Engagement.UniqueVisitors),
		"revenue.total_revenue":           s.Revenue.TotalRevenue,
		"revenue.platform_fees":           s.Revenue.PlatformFees,
		"revenue.processing_fees":         s.Revenue.ProcessingFees,
		"revenue.net_revenue":             s.Revenue.NetRevenue,
		"performance.average_response_ms": s.Performance.AverageResponseTime,
	}
	for field, v := range nonNegative {
		if !isAmount(v) {
			return apperrors.Newf(apperrors.ErrInvalidMetric, "%s must not be negative", field)
		}
	}

	percentages := map[string]float64{
		"engagement.bounce_rate":     s.Engagement.BounceRate,
		"engagement.conversion_rate": s.Engagement.ConversionRate,
		"performance.uptime":         s.Performance.Uptime,
		"performance.error_rate":     s.Performance.ErrorRate,
	}
	for field, v := range percentages {
		if !IsPercentage(v) {
			return apperrors.Newf(apperrors.ErrInvalidMetric, "%s must be between 0 and 100", field)
		}
	}
	for _, c := range AllCertifications {
		if s.Organizations.NGOs.Certified(c) > s.Organizations.NGOs.Total {
			return apperrors.Newf(apperrors.ErrInvalidMetric, "ngos certified %s exceed ngos.total", c)
		}
	}

	seenCategory := make(map[Category]bool, len(s.Categories))
	for _, c := range s.Categories {
		if seenCategory[c.Name] {
			return apperrors.Newf(apperrors.ErrInvalidCategory, "duplicate category %q", c.Name)
		}
		seenCategory[c.Name] = true
		if c.CampaignCount < 0 || !isAmount(c.DonationAmount) || c.DonationCount < 0 || !isAmount(c.AverageGoal) {
			return apperrors.Newf(apperrors.ErrInvalidMetric, "category %q has negative totals", c.Name)
		}
		if !IsPercentage(c.SuccessRate) {
			return apperrors.Newf(apperrors.ErrInvalidMetric, "category %q success rate out of range", c.Name)
		}
	}

	seenMethod := make(map[PaymentMethod]bool, len(s.PaymentMethods))
	for _, m := range s.PaymentMethods {
		if seenMethod[m.Method] {
			return apperrors.Newf(apperrors.ErrInvalidPaymentMethod, "duplicate payment method %q", m.Method)
		}
		seenMethod[m.Method] = true
		if m.Count < 0 || !isAmount(m.Amount) {
			return apperrors.Newf(apperrors.ErrInvalidMetric, "payment method %q has negative totals", m.Method)
		}
		if !IsPercentage(m.Percentage) {
			return apperrors.Newf(apperrors.ErrInvalidMetric, "payment method %q percentage out of range", m.Method)
		}
	}

	for _, regions := range [][]RegionStats{s.Geography.Countries, s.Geography.States} {
		for _, r := range regions {
			if !isAmount(r.DonationAmount) || r.DonationCount < 0 || r.UserCount < 0 {
				return apperrors.Newf(apperrors.ErrInvalidMetric, "region %q has negative totals", r.Name)
			}
		}
	}
	return nil
}

// isAmount reports whether v is a finite, non-negative number.
func isAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// IsPercentage reports whether v lies in [0,100].
func IsPercentage(v float64) bool {
	return v >= 0 && v <= 100
}
