package stats

import (
	"math"

	"donaid/internal/models"

	"github.com/shopspring/decimal"
)

// Round2 rounds to two decimal places, halves away from zero. Rounding
// happens on the shortest decimal form of v, so 1.005 becomes 1.01.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return r
}

// ComputeGrowth returns the percentage change from previous to current.
// With no previous activity it returns 100 when activity appeared and 0
// otherwise.
func ComputeGrowth(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return Round2((current - previous) / previous * 100)
}

// CalculateGrowth compares two snapshots of the same period type.
func CalculateGrowth(current, previous *models.Snapshot) models.Growth {
	return models.Growth{
		DonationGrowth:     ComputeGrowth(current.Donations.TotalAmount, previous.Donations.TotalAmount),
		UserGrowth:         ComputeGrowth(float64(current.Users.Total), float64(previous.Users.Total)),
		CampaignGrowth:     ComputeGrowth(float64(current.Campaigns.Total), float64(previous.Campaigns.Total)),
		OrganizationGrowth: ComputeGrowth(float64(current.OrganizationTotal()), float64(previous.OrganizationTotal())),
	}
}
