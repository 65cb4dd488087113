package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	LastLogin time.Time          `bson:"last_login"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d *userDoc) identity() *models.Identity {
	return &models.Identity{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Role:         models.Role(d.Role),
		PasswordHash: d.Password,
		LastLoginAt:  d.LastLogin.UTC(),
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

type UserRepo struct {
	coll *mongo.Collection
}

// NewUserRepository creates a MongoDB-backed user repository
func NewUserRepository(db *mongo.Database) *UserRepo {
	return &UserRepo{coll: db.Collection(UsersCollection)}
}

func (r *UserRepo) ValidID(id string) bool {
	return validID(id)
}

func (r *UserRepo) Create(ctx context.Context, identity *models.Identity) (string, error) {
	res, err := r.coll.InsertOne(ctx, userDoc{
		Username:  identity.Username,
		Password:  identity.PasswordHash,
		Role:      string(identity.Role),
		LastLogin: identity.LastLoginAt,
		CreatedAt: identity.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", repository.ErrDuplicate
		}
		return "", fmt.Errorf("failed to insert user: %w", err)
	}
	identity.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return identity.ID, nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*models.Identity, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*models.Identity, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*models.Identity, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.identity(), nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) DeleteByRoleLastLogin(ctx context.Context, role models.Role, tr models.TimeRange) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{
		"role":       string(role),
		"last_login": timeRangeFilter(tr),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete users: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *UserRepo) UpdateRoleCreatedBetween(ctx context.Context, tr models.TimeRange, role models.Role) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"created_at": timeRangeFilter(tr)},
		bson.M{"$set": bson.M{"role": string(role)}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update user roles: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *UserRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"last_login": at}})
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) PurgeInactive(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"last_login": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("failed to purge inactive users: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the device index on readings, the unique username
// index and the inactivity TTL index on users.
func EnsureIndexes(ctx context.Context, db *mongo.Database, inactivity time.Duration) error {
	_, err := db.Collection(ReadingsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: models.FieldDeviceName, Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create device index: %w", err)
	}
	_, err = db.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "last_login", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(inactivity.Seconds())),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}
