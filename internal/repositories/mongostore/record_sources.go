package mongostore

import (
	"context"
	"fmt"

	"donaid/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// RecordSource computes snapshot aggregates with aggregation pipelines over
// the record collections. Window semantics match the SQL implementation.
type RecordSource struct {
	db *mongo.Database
}

func NewRecordSource(db *mongo.Database) *RecordSource {
	return &RecordSource{db: db}
}

func countIf(cond interface{}) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{cond, 1, 0}}}
}

// completedDonations matches completed, not soft-deleted donations made
// inside the window.
func completedDonations(w models.Window) bson.M {
	return bson.M{
		"status":    models.DonationStatusCompleted,
		"createdAt": bson.M{"$gte": w.Start, "$lte": w.End},
		"deletedAt": nil,
	}
}

// existingAt matches records created by the end of the window.
func existingAt(w models.Window) bson.M {
	return bson.M{
		"createdAt": bson.M{"$lte": w.End},
		"deletedAt": nil,
	}
}

// aggregateOne runs a pipeline expected to yield at most one document and
// decodes it into out. An empty result leaves out untouched.
func (r *RecordSource) aggregateOne(ctx context.Context, collection string, pipe mongo.Pipeline, out interface{}) error {
	cursor, err := r.db.Collection(collection).Aggregate(ctx, pipe)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	if cursor.Next(ctx) {
		if err := cursor.Decode(out); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (r *RecordSource) AggregateDonations(ctx context.Context, w models.Window) (models.DonationStats, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: completedDonations(w)}},
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"count":         bson.M{"$sum": 1},
			"totalAmount":   bson.M{"$sum": "$amount"},
			"averageAmount": bson.M{"$avg": "$amount"},
			"maxAmount":     bson.M{"$max": "$amount"},
			"minAmount":     bson.M{"$min": "$amount"},
			"donors":        bson.M{"$addToSet": "$donorEmail"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":           0,
			"count":         1,
			"totalAmount":   1,
			"averageAmount": 1,
			"maxAmount":     1,
			"minAmount":     1,
			"uniqueDonors":  bson.M{"$size": "$donors"},
		}}},
	}

	var stats models.DonationStats
	if err := r.aggregateOne(ctx, DonationsCollection, pipe, &stats); err != nil {
		return models.DonationStats{}, fmt.Errorf("aggregate donations: %w", err)
	}
	return stats, nil
}

type regionDoc struct {
	Name           string  `bson:"_id"`
	DonationAmount float64 `bson:"donationAmount"`
	DonationCount  int64   `bson:"donationCount"`
	UserCount      int64   `bson:"userCount"`
}

func (r *RecordSource) AggregateGeography(ctx context.Context, w models.Window) (models.Geography, error) {
	countries, err := r.regions(ctx, w, "country")
	if err != nil {
		return models.Geography{}, err
	}
	states, err := r.regions(ctx, w, "state")
	if err != nil {
		return models.Geography{}, err
	}
	return models.Geography{Countries: countries, States: states}, nil
}

func (r *RecordSource) regions(ctx context.Context, w models.Window, field string) ([]models.RegionStats, error) {
	match := completedDonations(w)
	match[field] = bson.M{"$nin": bson.A{"", nil}}

	donationPipe := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$" + field,
			"donationAmount": bson.M{"$sum": "$amount"},
			"donationCount":  bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "donationAmount", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	var donations []regionDoc
	if err := r.aggregateAll(ctx, DonationsCollection, donationPipe, &donations); err != nil {
		return nil, fmt.Errorf("aggregate donations by %s: %w", field, err)
	}

	userMatch := existingAt(w)
	userMatch[field] = bson.M{"$nin": bson.A{"", nil}}
	userPipe := mongo.Pipeline{
		{{Key: "$match", Value: userMatch}},
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "userCount": bson.M{"$sum": 1}}}},
	}
	var users []regionDoc
	if err := r.aggregateAll(ctx, UsersCollection, userPipe, &users); err != nil {
		return nil, fmt.Errorf("aggregate users by %s: %w", field, err)
	}
	userCounts := make(map[string]int64, len(users))
	for _, u := range users {
		userCounts[u.Name] = u.UserCount
	}

	out := make([]models.RegionStats, 0, len(donations))
	for _, d := range donations {
		out = append(out, models.RegionStats{
			Name:           d.Name,
			DonationAmount: d.DonationAmount,
			DonationCount:  d.DonationCount,
			UserCount:      userCounts[d.Name],
		})
	}
	return out, nil
}

func (r *RecordSource) aggregateAll(ctx context.Context, collection string, pipe mongo.Pipeline, out interface{}) error {
	cursor, err := r.db.Collection(collection).Aggregate(ctx, pipe)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func (r *RecordSource) AggregateUsers(ctx context.Context, w models.Window) (models.UserStats, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: existingAt(w)}},
		{{Key: "$group", Value: bson.M{
			"_id":              nil,
			"total":            bson.M{"$sum": 1},
			"active":           countIf("$isActive"),
			"new":              countIf(bson.M{"$gte": bson.A{"$createdAt", w.Start}}),
			"donors":           countIf(bson.M{"$eq": bson.A{"$role", models.RoleDonor}}),
			"campaignCreators": countIf(bson.M{"$in": bson.A{"$role", models.CampaignCreatorRoles}}),
		}}},
	}

	var stats models.UserStats
	if err := r.aggregateOne(ctx, UsersCollection, pipe, &stats); err != nil {
		return models.UserStats{}, fmt.Errorf("aggregate users: %w", err)
	}
	return stats, nil
}

func (r *RecordSource) AggregateCampaigns(ctx context.Context, w models.Window) (models.CampaignStats, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: existingAt(w)}},
		{{Key: "$group", Value: bson.M{
			"_id":       nil,
			"total":     bson.M{"$sum": 1},
			"active":    countIf(bson.M{"$eq": bson.A{"$status", models.CampaignStatusActive}}),
			"completed": countIf(bson.M{"$eq": bson.A{"$status", models.CampaignStatusCompleted}}),
			"successful": countIf(bson.M{"$and": bson.A{
				bson.M{"$gt": bson.A{"$goalAmount", 0}},
				bson.M{"$gte": bson.A{"$raisedAmount", "$goalAmount"}},
			}}),
			"created":           countIf(bson.M{"$gte": bson.A{"$createdAt", w.Start}}),
			"totalGoalAmount":   bson.M{"$sum": "$goalAmount"},
			"totalRaisedAmount": bson.M{"$sum": "$raisedAmount"},
		}}},
	}

	var stats models.CampaignStats
	if err := r.aggregateOne(ctx, CampaignsCollection, pipe, &stats); err != nil {
		return models.CampaignStats{}, fmt.Errorf("aggregate campaigns: %w", err)
	}
	return stats, nil
}

func (r *RecordSource) AggregateCompanies(ctx context.Context, w models.Window) (models.CompanyStats, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: existingAt(w)}},
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"total":    bson.M{"$sum": 1},
			"active":   countIf("$isActive"),
			"verified": countIf("$isVerified"),
			"new":      countIf(bson.M{"$gte": bson.A{"$createdAt", w.Start}}),
		}}},
	}

	var stats models.CompanyStats
	if err := r.aggregateOne(ctx, CompaniesCollection, pipe, &stats); err != nil {
		return models.CompanyStats{}, fmt.Errorf("aggregate companies: %w", err)
	}
	return stats, nil
}

func (r *RecordSource) AggregateNGOs(ctx context.Context, w models.Window) (models.NGOStats, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: existingAt(w)}},
		{{Key: "$group", Value: bson.M{
			"_id":          nil,
			"total":        bson.M{"$sum": 1},
			"active":       countIf("$isActive"),
			"verified":     countIf("$isVerified"),
			"new":          countIf(bson.M{"$gte": bson.A{"$createdAt", w.Start}}),
			"certified12A": countIf("$has12A"),
			"certified80G": countIf("$has80G"),
		}}},
	}

	var stats models.NGOStats
	if err := r.aggregateOne(ctx, NGOsCollection, pipe, &stats); err != nil {
		return models.NGOStats{}, fmt.Errorf("aggregate ngos: %w", err)
	}
	return stats, nil
}
