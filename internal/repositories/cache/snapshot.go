package cache

import (
	"context"

	"donaid/internal/models"
)

// SnapshotCache keeps the latest snapshot of each period type under
// stats:latest:<period>.
type SnapshotCache struct {
	svc *CacheService
}

func NewSnapshotCache(svc *CacheService) *SnapshotCache {
	return &SnapshotCache{svc: svc}
}

func (c *SnapshotCache) key(period models.PeriodType) string {
	return c.svc.GenerateKey("stats", "latest", period)
}

func (c *SnapshotCache) GetLatest(ctx context.Context, period models.PeriodType) (*models.Snapshot, bool, error) {
	var snapshot models.Snapshot
	found, err := c.svc.Get(ctx, c.key(period), &snapshot)
	if err != nil || !found {
		return nil, false, err
	}
	return &snapshot, true, nil
}

func (c *SnapshotCache) SetLatest(ctx context.Context, snapshot *models.Snapshot) error {
	return c.svc.Set(ctx, c.key(snapshot.PeriodType), snapshot)
}

func (c *SnapshotCache) InvalidateLatest(ctx context.Context, period models.PeriodType) error {
	return c.svc.Delete(ctx, c.key(period))
}
