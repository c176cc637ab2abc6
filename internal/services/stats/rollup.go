package stats

import (
	"math"

	apperrors "donaid/internal/errors"
	"donaid/internal/models"

	"github.com/shopspring/decimal"
)

// addAmount applies delta to a running money total in decimal and rounds
// the result to cents, so refunds bring a total back to exactly zero.
func addAmount(total, delta float64) (float64, bool) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) || math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, false
	}
	sum, _ := decimal.NewFromFloat(total).Add(decimal.NewFromFloat(delta)).Round(2).Float64()
	return sum, true
}

// UpsertCategoryStats adds the deltas to the category's running totals,
// appending a zeroed entry first when the category is missing. The update
// is rejected, leaving s untouched, if a total would become negative.
func UpsertCategoryStats(s *models.Snapshot, category models.Category, campaignDelta int64, amountDelta float64, countDelta int64) error {
	if !category.IsValid() {
		return apperrors.Newf(apperrors.ErrInvalidCategory, "invalid category %q", category)
	}

	idx := -1
	for i := range s.Categories {
		if s.Categories[i].Name == category {
			idx = i
			break
		}
	}

	var current models.CategoryStats
	if idx >= 0 {
		current = s.Categories[idx]
	} else {
		current = models.CategoryStats{Name: category}
	}

	amount, ok := addAmount(current.DonationAmount, amountDelta)
	if !ok {
		return apperrors.Newf(apperrors.ErrInvalidDelta, "category %q amount delta must be a finite number", category)
	}
	campaigns := current.CampaignCount + campaignDelta
	count := current.DonationCount + countDelta
	if campaigns < 0 || amount < 0 || count < 0 {
		return apperrors.Newf(apperrors.ErrInvalidDelta, "category %q totals would become negative", category)
	}

	current.CampaignCount = campaigns
	current.DonationAmount = amount
	current.DonationCount = count

	if idx >= 0 {
		s.Categories[idx] = current
	} else {
		s.Categories = append(s.Categories, current)
	}
	return nil
}

// UpsertPaymentMethodStats adds the deltas to the method's totals and then
// recomputes the share of every method in the snapshot.
func UpsertPaymentMethodStats(s *models.Snapshot, method models.PaymentMethod, countDelta int64, amountDelta float64) error {
	if !method.IsValid() {
		return apperrors.Newf(apperrors.ErrInvalidPaymentMethod, "invalid payment method %q", method)
	}

	idx := -1
	for i := range s.PaymentMethods {
		if s.PaymentMethods[i].Method == method {
			idx = i
			break
		}
	}

	var current models.PaymentMethodStats
	if idx >= 0 {
		current = s.PaymentMethods[idx]
	} else {
		current = models.PaymentMethodStats{Method: method}
	}

	amount, ok := addAmount(current.Amount, amountDelta)
	if !ok {
		return apperrors.Newf(apperrors.ErrInvalidDelta, "payment method %q amount delta must be a finite number", method)
	}
	count := current.Count + countDelta
	if count < 0 || amount < 0 {
		return apperrors.Newf(apperrors.ErrInvalidDelta, "payment method %q totals would become negative", method)
	}
	current.Count = count
	current.Amount = amount

	if idx >= 0 {
		s.PaymentMethods[idx] = current
	} else {
		s.PaymentMethods = append(s.PaymentMethods, current)
	}

	RecomputePaymentPercentages(s.PaymentMethods)
	return nil
}

// RecomputePaymentPercentages sets each entry's percentage to its share of
// the total amount, or 0 for every entry when the total is 0.
func RecomputePaymentPercentages(methods []models.PaymentMethodStats) {
	var total float64
	for _, m := range methods {
		total += m.Amount
	}
	for i := range methods {
		if total == 0 {
			methods[i].Percentage = 0
			continue
		}
		methods[i].Percentage = Round2(methods[i].Amount / total * 100)
	}
}
