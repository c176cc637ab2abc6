// Package bootstrap opens the backing stores selected by configuration and
// hands them to the entry points as ready-to-use interfaces.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"donaid/internal/config"
	"donaid/internal/handlers"
	"donaid/internal/repositories"
	"donaid/internal/repositories/cache"
	"donaid/internal/repositories/mongostore"
	"donaid/internal/services/stats"

	"go.uber.org/zap"
)

// Store backends accepted by STATS_STORE.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Stores holds the record sources, the snapshot repository and the user
// lookups of one backend.
type Stores struct {
	Backend   string
	Sources   stats.Sources
	Snapshots stats.SnapshotRepository
	Users     repositories.UserRepository
	Checks    map[string]handlers.HealthCheckFunc

	closers []func(context.Context) error
}

func newStores(backend string) *Stores {
	return &Stores{Backend: backend, Checks: map[string]handlers.HealthCheckFunc{}}
}

func (s *Stores) onClose(fn func(context.Context) error) {
	s.closers = append(s.closers, fn)
}

// Close releases every connection in reverse opening order.
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// OpenStores connects to the backend named by backend.
func OpenStores(ctx context.Context, backend string, log *zap.Logger) (*Stores, error) {
	switch backend {
	case BackendPostgres:
		return openPostgres(log)
	case BackendMongo:
		return openMongo(ctx, log)
	default:
		return nil, fmt.Errorf("unknown STATS_STORE %q: want %s or %s", backend, BackendPostgres, BackendMongo)
	}
}

func openPostgres(log *zap.Logger) (*Stores, error) {
	db, err := repositories.InitDB(log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}

	src := repositories.NewRecordSource(db)
	s := newStores(BackendPostgres)
	s.Sources = stats.Sources{Donations: src, Users: src, Campaigns: src, Organizations: src}
	s.Snapshots = repositories.NewSnapshotRepository(db)
	s.Users = repositories.NewUserRepository(db)
	s.Checks["postgres"] = sqlDB.PingContext
	s.onClose(func(context.Context) error { return repositories.Close(db) })
	return s, nil
}

func openMongo(ctx context.Context, log *zap.Logger) (*Stores, error) {
	client, err := mongostore.Connect(ctx, log)
	if err != nil {
		return nil, err
	}
	db := client.Database(mongostore.DatabaseName())

	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := mongostore.EnsureIndexes(indexCtx, db); err != nil {
		_ = mongostore.Disconnect(context.Background(), client)
		return nil, err
	}

	src := mongostore.NewRecordSource(db)
	s := newStores(BackendMongo)
	s.Sources = stats.Sources{Donations: src, Users: src, Campaigns: src, Organizations: src}
	s.Snapshots = mongostore.NewSnapshotRepository(db)
	s.Users = mongostore.NewUserRepository(db)
	s.Checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	s.onClose(func(ctx context.Context) error { return mongostore.Disconnect(ctx, client) })
	return s, nil
}

// OpenCache returns the redis-backed cache service, or nil when
// REDIS_ENABLED is false or redis does not answer. The service works
// without a cache, so an unreachable redis is logged, not fatal.
func OpenCache(ctx context.Context, log *zap.Logger) *cache.CacheService {
	if !config.GetBoolEnv("REDIS_ENABLED", true) {
		log.Info("redis disabled, snapshot cache off")
		return nil
	}

	svc := cache.NewCacheService(
		cache.NewRedisClient(cache.RedisConfigFromEnv()),
		config.GetDurationEnv("STATS_CACHE_TTL", 10*time.Minute),
	)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := svc.HealthCheck(pingCtx); err != nil {
		log.Warn("redis unreachable, snapshot cache off", zap.Error(err))
		_ = svc.Close()
		return nil
	}
	return svc
}

// StatsConfigFromEnv reads the fee percentages and the processing timeout.
func StatsConfigFromEnv() stats.Config {
	return stats.Config{
		PlatformFeePercent:   config.GetFloatEnv("PLATFORM_FEE_PERCENT", 2.5),
		ProcessingFeePercent: config.GetFloatEnv("PROCESSING_FEE_PERCENT", 2.0),
		ProcessingTimeout:    config.GetDurationEnv("STATS_PROCESSING_TIMEOUT", 2*time.Minute),
	}
}
