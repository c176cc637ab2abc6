// Command snapshot creates statistics snapshots once, outside the server.
// It is used to fill gaps after downtime and to backfill history:
//
//	snapshot -date 2026-02-14 -period daily -days 30
//
// With -period auto every period type that closes on each day is created,
// the same way the scheduler does it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"donaid/internal/bootstrap"
	"donaid/internal/config"
	apperrors "donaid/internal/errors"
	applogger "donaid/internal/logger"
	"donaid/internal/models"
	"donaid/internal/repositories/cache"
	"donaid/internal/scheduler"
	"donaid/internal/services/stats"
	"donaid/internal/validation"

	"go.uber.org/zap"
)

const periodAuto = "auto"

type options struct {
	end    time.Time
	period string
	days   int
}

func parseFlags(args []string, now time.Time) (options, error) {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	yesterday := now.UTC().AddDate(0, 0, -1).Format(validation.DateLayout)
	date := fs.String("date", yesterday, "last day to snapshot (YYYY-MM-DD, UTC)")
	period := fs.String("period", string(models.PeriodDaily), "daily, weekly, monthly, yearly or auto")
	days := fs.Int("days", 1, "number of consecutive days ending at -date")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	end, err := time.Parse(validation.DateLayout, *date)
	if err != nil {
		return options{}, fmt.Errorf("invalid -date %q: %w", *date, err)
	}
	if *days < 1 || *days > validation.MaxRangeDays {
		return options{}, fmt.Errorf("-days must be between 1 and %d", validation.MaxRangeDays)
	}
	if *period != periodAuto {
		if _, err := models.ParsePeriodType(*period); err != nil {
			return options{}, err
		}
	}
	return options{end: end, period: *period, days: *days}, nil
}

type summary struct {
	created, skipped, failed int
}

// backfill walks the days oldest first. Existing snapshots are skipped and
// failures do not stop the remaining days.
func backfill(ctx context.Context, creator scheduler.SnapshotCreator, opts options, log *zap.Logger) (summary, error) {
	var (
		sum  summary
		errs []error
	)
	job := scheduler.NewSnapshotJob(scheduler.DefaultConfig(), creator, log)

	for i := opts.days - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		day := opts.end.AddDate(0, 0, -i)

		if opts.period == periodAuto {
			res, err := job.RunFor(ctx, day)
			sum.created += len(res.Created)
			sum.skipped += len(res.Skipped)
			if err != nil {
				sum.failed++
				errs = append(errs, err)
			}
			continue
		}

		period, _ := models.ParsePeriodType(opts.period)
		snapshot, err := creator.CreateSnapshot(ctx, day, period)
		switch {
		case err == nil:
			sum.created++
			log.Info("snapshot created",
				zap.String("day", day.Format(validation.DateLayout)),
				zap.String("period_type", period.String()),
				zap.String("snapshot_id", snapshot.ID),
			)
		case errors.Is(err, apperrors.ErrDuplicateSnapshot):
			sum.skipped++
			log.Info("snapshot exists, skipping", zap.String("day", day.Format(validation.DateLayout)))
		default:
			sum.failed++
			log.Error("snapshot creation failed", zap.String("day", day.Format(validation.DateLayout)), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return sum, errors.Join(errs...)
}

func main() {
	config.LoadEnv()

	log := applogger.NewForEnvironment(config.GetEnv("ENV", "development"), config.GetEnv("LOG_LEVEL", "info"))
	defer func() { _ = log.Sync() }()

	opts, err := parseFlags(os.Args[1:], time.Now())
	if err != nil {
		log.Fatal("invalid arguments", zap.Error(err))
	}

	if err := run(opts, log); err != nil {
		log.Fatal("backfill had failures", zap.Error(err))
	}
}

func run(opts options, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, config.StatsStore(), log)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			log.Warn("failed to close stores", zap.Error(err))
		}
	}()

	// New latest snapshots must evict what the server has cached.
	var snapshotCache stats.SnapshotCache
	if cacheService := bootstrap.OpenCache(ctx, log); cacheService != nil {
		defer cacheService.Close()
		snapshotCache = cache.NewSnapshotCache(cacheService)
	}

	svc := stats.NewService(stores.Sources, stores.Snapshots, snapshotCache, bootstrap.StatsConfigFromEnv(), nil, log)

	sum, err := backfill(ctx, svc, opts, log)
	log.Info("backfill finished",
		zap.Int("created", sum.created),
		zap.Int("skipped", sum.skipped),
		zap.Int("failed", sum.failed),
	)
	return err
}
