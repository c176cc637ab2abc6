// Package mongostore implements the snapshot store, the record sources and
// the user lookups on MongoDB. It mirrors the SQL implementations in
// package repositories document for document.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"donaid/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names
const (
	SnapshotsCollection = "stats_snapshots"
	UsersCollection     = "users"
	CampaignsCollection = "campaigns"
	DonationsCollection = "donations"
	CompaniesCollection = "companies"
	NGOsCollection      = "ngos"
)

// Connect opens a client against MONGO_URI and checks it with a ping.
func Connect(ctx context.Context, log *zap.Logger) (*mongo.Client, error) {
	uri := config.GetEnv("MONGO_URI", "mongodb://localhost:27017")

	clientOptions := options.Client().ApplyURI(uri).
		SetMaxPoolSize(uint64(config.GetIntEnv("MONGO_MAX_POOL_SIZE", 50))).
		SetMinPoolSize(uint64(config.GetIntEnv("MONGO_MIN_POOL_SIZE", 5))).
		SetConnectTimeout(5 * time.Second).
		SetSocketTimeout(10 * time.Second)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info("connected to MongoDB", zap.String("database", DatabaseName()))
	return client, nil
}

// DatabaseName returns MONGO_DB.
func DatabaseName() string {
	return config.GetEnv("MONGO_DB", "donaid")
}

func Disconnect(ctx context.Context, client *mongo.Client) error {
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the stores rely on. The unique
// (date, periodType) index is what makes duplicate snapshots detectable.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		SnapshotsCollection: {
			{
				Keys:    bson.D{{Key: "date", Value: 1}, {Key: "periodType", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_date_period"),
			},
			{Keys: bson.D{{Key: "periodType", Value: 1}, {Key: "date", Value: -1}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		},
		DonationsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		CampaignsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		},
		CompaniesCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		},
		NGOsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		},
	}

	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
