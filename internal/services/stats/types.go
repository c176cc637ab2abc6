package stats

import "time"

// Config holds configuration for the stats service
type Config struct {
	PlatformFeePercent   float64
	ProcessingFeePercent float64
	// ProcessingTimeout bounds snapshot construction when the caller's
	// context carries no deadline. Zero disables it.
	ProcessingTimeout time.Duration
}

// RangeSummary is the roll-up of every snapshot whose date falls in a range.
type RangeSummary struct {
	Start               time.Time `json:"start"`
	End                 time.Time `json:"end"`
	TotalDonationAmount float64   `json:"total_donation_amount"`
	TotalDonationCount  int64     `json:"total_donation_count"`
	AverageDonation     float64   `json:"average_donation"`
	NewUsers            int64     `json:"new_users"`
	NewCampaigns        int64     `json:"new_campaigns"`
	SnapshotCount       int       `json:"snapshot_count"`
}
