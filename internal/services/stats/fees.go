package stats

import "donaid/internal/models"

// FeeCalculator derives the revenue block of a snapshot from the donation
// total. Percentages are expressed as 0-100.
type FeeCalculator struct {
	platformPercent   float64
	processingPercent float64
}

func NewFeeCalculator(platformPercent, processingPercent float64) *FeeCalculator {
	return &FeeCalculator{
		platformPercent:   clampPercent(platformPercent),
		processingPercent: clampPercent(processingPercent),
	}
}

func (f *FeeCalculator) CalculateFee(amount, percent float64) float64 {
	return Round2(amount * percent / 100)
}

func (f *FeeCalculator) Revenue(donationTotal float64) models.Revenue {
	if donationTotal <= 0 {
		return models.Revenue{}
	}
	platform := f.CalculateFee(donationTotal, f.platformPercent)
	processing := f.CalculateFee(donationTotal, f.processingPercent)
	net := Round2(donationTotal - platform - processing)
	if net < 0 {
		net = 0
	}
	return models.Revenue{
		TotalRevenue:   Round2(donationTotal),
		PlatformFees:   platform,
		ProcessingFees: processing,
		NetRevenue:     net,
	}
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
