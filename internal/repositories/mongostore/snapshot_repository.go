package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "donaid/internal/errors"
	"donaid/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxUpdateAttempts bounds the optimistic retry loop in Update.
const maxUpdateAttempts = 3

type SnapshotRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewSnapshotRepository(db *mongo.Database) *SnapshotRepository {
	return &SnapshotRepository{
		coll: db.Collection(SnapshotsCollection),
		now:  time.Now,
	}
}

func (r *SnapshotRepository) Create(ctx context.Context, snapshot *models.Snapshot) error {
	doc := *snapshot
	doc.Date = doc.Date.UTC()
	doc.CreatedAt = truncate(doc.CreatedAt)
	doc.UpdatedAt = truncate(doc.UpdatedAt)

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Newf(apperrors.ErrDuplicateSnapshot,
				"%s snapshot for %s already exists", snapshot.PeriodType, snapshot.Date.Format("2006-01-02"))
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	snapshot.CreatedAt = doc.CreatedAt
	snapshot.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *SnapshotRepository) FindByID(ctx context.Context, id string) (*models.Snapshot, error) {
	return r.findOne(ctx, bson.M{"_id": id}, nil)
}

func (r *SnapshotRepository) FindPrevious(ctx context.Context, period models.PeriodType, before time.Time) (*models.Snapshot, error) {
	filter := bson.M{
		"periodType": period,
		"date":       bson.M{"$lt": before.UTC()},
	}
	return r.findOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}}))
}

func (r *SnapshotRepository) FindLatest(ctx context.Context, period models.PeriodType) (*models.Snapshot, error) {
	return r.findOne(ctx, bson.M{"periodType": period}, options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}}))
}

func (r *SnapshotRepository) FindInRange(ctx context.Context, start, end time.Time, period models.PeriodType) ([]models.Snapshot, error) {
	filter := bson.M{"date": bson.M{"$gte": start.UTC(), "$lte": end.UTC()}}
	if period != "" {
		filter["periodType"] = period
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "periodType", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find snapshots in range: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Snapshot{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}
	for i := range out {
		normalize(&out[i])
	}
	return out, nil
}

// Update replaces the document only if updatedAt still holds the value that
// was read. A lost race re-reads and re-applies mutate.
func (r *SnapshotRepository) Update(ctx context.Context, id string, mutate func(*models.Snapshot) error) (*models.Snapshot, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		expected := current.UpdatedAt

		if err := mutate(current); err != nil {
			return nil, err
		}
		current.UpdatedAt = truncate(r.now())
		if !current.UpdatedAt.After(expected) {
			current.UpdatedAt = expected.Add(time.Millisecond)
		}

		res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id, "updatedAt": expected}, current)
		if err != nil {
			return nil, fmt.Errorf("replace snapshot: %w", err)
		}
		if res.MatchedCount == 1 {
			return current, nil
		}
	}
	return nil, apperrors.Newf(apperrors.ErrConcurrentUpdate,
		"snapshot %s changed %d times while updating", id, maxUpdateAttempts)
}

func (r *SnapshotRepository) findOne(ctx context.Context, filter interface{}, opts *options.FindOneOptions) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	var err error
	if opts != nil {
		err = r.coll.FindOne(ctx, filter, opts).Decode(&snapshot)
	} else {
		err = r.coll.FindOne(ctx, filter).Decode(&snapshot)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("find snapshot: %w", err)
	}
	normalize(&snapshot)
	return &snapshot, nil
}

// normalize restores empty collections that decode as nil.
func normalize(s *models.Snapshot) {
	s.Date = s.Date.UTC()
	if s.Categories == nil {
		s.Categories = []models.CategoryStats{}
	}
	if s.PaymentMethods == nil {
		s.PaymentMethods = []models.PaymentMethodStats{}
	}
	if s.Geography.Countries == nil {
		s.Geography.Countries = []models.RegionStats{}
	}
	if s.Geography.States == nil {
		s.Geography.States = []models.RegionStats{}
	}
}

// BSON dates keep milliseconds only.
func truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
