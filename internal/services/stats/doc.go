/*
Package stats builds and maintains the platform statistics snapshots.

A snapshot summarises one daily, weekly, monthly or yearly window of platform
activity: donations, users, campaigns, companies and NGOs, donor geography,
revenue, growth against the previous snapshot of the same period, and the
incrementally maintained category and payment-method rollups.

Usage:

	svc := stats.NewService(stats.Sources{
	    Donations:     donationSource,
	    Users:         userSource,
	    Campaigns:     campaignSource,
	    Organizations: organizationSource,
	}, repo, cache, stats.Config{PlatformFeePercent: 2.5}, metrics, logger)

	// Build yesterday's snapshot
	snap, err := svc.CreateDailySnapshot(ctx, time.Now().AddDate(0, 0, -1))

	// Record a donation against a rollup
	snap, err = svc.UpdatePaymentMethodStats(ctx, snap.ID, models.PaymentUPI, 1, 250)

Snapshot construction:

The record sources are queried concurrently and joined before anything is
written. If any source fails the whole operation fails with
ErrAggregationFailure and no snapshot is stored. A second snapshot for the
same date and period is rejected with ErrDuplicateSnapshot.

Rollup updates:

Category and payment-method updates are read-modify-write cycles executed by
the repository's Update. The SQL repository serialises them with a row lock;
the Mongo repository uses an optimistic check on updatedAt and reports
ErrConcurrentUpdate when it keeps losing the race.

The growth and rollup arithmetic lives in plain functions (ComputeGrowth,
CalculateGrowth, UpsertCategoryStats, UpsertPaymentMethodStats) so it can be
used and tested without a store.
*/
package stats
