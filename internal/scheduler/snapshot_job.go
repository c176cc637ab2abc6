// Package scheduler creates statistics snapshots once a day for every
// period that has just ended.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"donaid/internal/config"
	apperrors "donaid/internal/errors"
	"donaid/internal/models"

	"go.uber.org/zap"
)

// SnapshotCreator is the part of the stats service the job needs.
type SnapshotCreator interface {
	CreateSnapshot(ctx context.Context, date time.Time, period models.PeriodType) (*models.Snapshot, error)
}

// Config holds configuration for the snapshot job
type Config struct {
	// Hour and Minute of the daily run, UTC, 24h clock.
	Hour   int
	Minute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	// RunTimeout bounds a single run. Zero means no limit.
	RunTimeout time.Duration
}

// DefaultConfig runs shortly after midnight UTC.
func DefaultConfig() Config {
	return Config{
		Hour:          0,
		Minute:        5,
		CheckInterval: time.Minute,
		RunTimeout:    5 * time.Minute,
	}
}

// ConfigFromEnv reads STATS_JOB_* over DefaultConfig.
func ConfigFromEnv() Config {
	d := DefaultConfig()
	return Config{
		Hour:          config.GetIntEnv("STATS_JOB_HOUR", d.Hour),
		Minute:        config.GetIntEnv("STATS_JOB_MINUTE", d.Minute),
		CheckInterval: config.GetDurationEnv("STATS_JOB_CHECK_INTERVAL", d.CheckInterval),
		RunTimeout:    config.GetDurationEnv("STATS_JOB_TIMEOUT", d.RunTimeout),
	}
}

// RunResult reports what one run did for a single day.
type RunResult struct {
	Day     time.Time
	Created []models.PeriodType
	Skipped []models.PeriodType
}

// SnapshotJob triggers snapshot creation at the configured time of day.
type SnapshotJob struct {
	config  Config
	creator SnapshotCreator
	logger  *zap.Logger
	now     func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

func NewSnapshotJob(cfg Config, creator SnapshotCreator, logger *zap.Logger) *SnapshotJob {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotJob{
		config:  cfg,
		creator: creator,
		logger:  logger.Named("scheduler"),
		now:     time.Now,
	}
}

// Start starts the check loop. Calling it twice is a no-op.
func (j *SnapshotJob) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.isRunning {
		j.mu.Unlock()
		return nil
	}
	j.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.mu.Unlock()

	j.wg.Add(1)
	go j.runLoop(ctx)

	j.logger.Info("snapshot job started",
		zap.Int("hour", j.config.Hour),
		zap.Int("minute", j.config.Minute),
		zap.Duration("check_interval", j.config.CheckInterval),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight run, or for ctx.
func (j *SnapshotJob) Stop(ctx context.Context) error {
	j.mu.Lock()
	if !j.isRunning {
		j.mu.Unlock()
		return nil
	}
	j.isRunning = false
	cancel := j.cancel
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		j.logger.Info("snapshot job stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *SnapshotJob) runLoop(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs once per UTC date, on the first check at or after the
// configured time. A process started later in the day catches up on its
// first check; snapshots that already exist are skipped.
func (j *SnapshotJob) checkAndTrigger(ctx context.Context) bool {
	now := j.now().UTC()
	currentDate := now.Format("2006-01-02")

	j.mu.Lock()
	if j.lastRunDate == currentDate {
		j.mu.Unlock()
		return false
	}
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), j.config.Hour, j.config.Minute, 0, 0, time.UTC)
	if now.Before(scheduled) {
		j.mu.Unlock()
		return false
	}
	j.lastRunDate = currentDate
	j.mu.Unlock()

	if j.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.RunTimeout)
		defer cancel()
	}

	yesterday := now.AddDate(0, 0, -1)
	if _, err := j.RunFor(ctx, yesterday); err != nil {
		j.logger.Error("scheduled snapshot run finished with errors", zap.Error(err))
	}
	return true
}

// RunFor creates the snapshots of every period that ends on day. Existing
// snapshots are skipped. Other failures are collected and the remaining
// periods are still attempted.
func (j *SnapshotJob) RunFor(ctx context.Context, day time.Time) (RunResult, error) {
	day = models.WindowFor(day, models.PeriodDaily).Start
	result := RunResult{Day: day}
	log := j.logger.With(zap.String("day", day.Format("2006-01-02")))

	var errs []error
	for _, period := range PeriodsEnding(day) {
		snapshot, err := j.creator.CreateSnapshot(ctx, day, period)
		switch {
		case err == nil:
			result.Created = append(result.Created, period)
			log.Info("snapshot created",
				zap.String("period_type", period.String()),
				zap.String("snapshot_id", snapshot.ID),
			)
		case errors.Is(err, apperrors.ErrDuplicateSnapshot):
			result.Skipped = append(result.Skipped, period)
			log.Info("snapshot exists, skipping", zap.String("period_type", period.String()))
		default:
			log.Error("snapshot creation failed", zap.String("period_type", period.String()), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return result, errors.Join(errs...)
}

// PeriodsEnding lists the period types whose UTC window closes on day,
// daily first.
func PeriodsEnding(day time.Time) []models.PeriodType {
	periods := []models.PeriodType{models.PeriodDaily}
	next := models.WindowFor(day, models.PeriodDaily).Start.AddDate(0, 0, 1)
	if next.Weekday() == time.Monday {
		periods = append(periods, models.PeriodWeekly)
	}
	if next.Day() == 1 {
		periods = append(periods, models.PeriodMonthly)
		if next.Month() == time.January {
			periods = append(periods, models.PeriodYearly)
		}
	}
	return periods
}
