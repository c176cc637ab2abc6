package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"donaid/internal/models"
	"donaid/internal/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Password     string             `bson:"password"`
	Name         string             `bson:"name,omitempty"`
	Role         string             `bson:"role"`
	IsActive     bool               `bson:"isActive"`
	Country      string             `bson:"country,omitempty"`
	State        string             `bson:"state,omitempty"`
	TokenVersion int                `bson:"tokenVersion"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d *userDocument) account() *models.Account {
	return &models.Account{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         d.Role,
		IsActive:     d.IsActive,
		TokenVersion: d.TokenVersion,
	}
}

type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository returns the mongo implementation of
// repositories.UserRepository.
func NewUserRepository(db *mongo.Database) repositories.UserRepository {
	return &userRepository{coll: db.Collection(UsersCollection)}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email), "deletedAt": nil})
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid, "deletedAt": nil})
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.account(), nil
}

func (r *userRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	now := truncate(time.Now())
	doc := userDocument{
		Email:        normalizeEmail(account.Email),
		Password:     account.PasswordHash,
		Role:         account.Role,
		IsActive:     account.IsActive,
		TokenVersion: account.TokenVersion,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if doc.TokenVersion == 0 {
		doc.TokenVersion = 1
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		account.ID = oid.Hex()
	}
	account.TokenVersion = doc.TokenVersion
	return nil
}

func (r *userRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrUserNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$inc": bson.M{"tokenVersion": 1},
		"$set": bson.M{"updatedAt": truncate(time.Now())},
	})
	if err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrUserNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
