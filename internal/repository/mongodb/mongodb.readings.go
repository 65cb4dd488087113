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

// Collection names
const (
	ReadingsCollection    = "Weather"
	DeletionLogCollection = "deleted_logs"
	UsersCollection       = "Users"
)

type ReadingRepo struct {
	coll *mongo.Collection
}

// NewReadingRepository creates a MongoDB-backed reading repository
func NewReadingRepository(db *mongo.Database) *ReadingRepo {
	return &ReadingRepo{coll: db.Collection(ReadingsCollection)}
}

func (r *ReadingRepo) ValidID(id string) bool {
	return validID(id)
}

func (r *ReadingRepo) Insert(ctx context.Context, reading *models.Reading) (string, error) {
	doc := reading.Document()
	delete(doc, models.FieldID)
	res, err := r.coll.InsertOne(ctx, bson.M(doc))
	if err != nil {
		return "", fmt.Errorf("failed to insert reading: %w", err)
	}
	reading.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return reading.ID, nil
}

func (r *ReadingRepo) InsertMany(ctx context.Context, readings []*models.Reading) ([]string, error) {
	docs := make([]interface{}, 0, len(readings))
	for _, reading := range readings {
		doc := reading.Document()
		delete(doc, models.FieldID)
		docs = append(docs, bson.M(doc))
	}
	res, err := r.coll.InsertMany(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to insert readings: %w", err)
	}
	ids := make([]string, 0, len(res.InsertedIDs))
	for i, raw := range res.InsertedIDs {
		id := raw.(primitive.ObjectID).Hex()
		readings[i].ID = id
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *ReadingRepo) Get(ctx context.Context, id string) (*models.Reading, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{models.FieldID: oid})
}

func (r *ReadingRepo) FirstInRange(ctx context.Context, deviceName string, tr models.TimeRange) (*models.Reading, error) {
	return r.findOne(ctx, bson.M{
		models.FieldDeviceName: deviceName,
		models.FieldTime:       timeRangeFilter(tr),
	})
}

func (r *ReadingRepo) MaxTemperatureInRange(ctx context.Context, tr models.TimeRange) (*models.Reading, error) {
	return r.findOne(ctx, bson.M{
		models.FieldTime:        timeRangeFilter(tr),
		models.FieldTemperature: bson.M{"$exists": true},
	}, options.FindOne().SetSort(bson.D{{Key: models.FieldTemperature, Value: -1}}))
}

func (r *ReadingRepo) TemperatureBetween(ctx context.Context, low, high float64) ([]*models.Reading, error) {
	cur, err := r.coll.Find(ctx, bson.M{
		models.FieldTemperature: bson.M{"$gte": low, "$lte": high},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer cur.Close(ctx)

	out := []*models.Reading{}
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode reading: %w", err)
		}
		reading, err := readingFromBSON(m)
		if err != nil {
			return nil, err
		}
		out = append(out, reading)
	}
	return out, cur.Err()
}

func (r *ReadingRepo) MaxPrecipitationSince(ctx context.Context, deviceName string, since time.Time) (*models.Reading, error) {
	return r.findOne(ctx, bson.M{
		models.FieldDeviceName:    deviceName,
		models.FieldTime:          bson.M{"$gte": since},
		models.FieldPrecipitation: bson.M{"$exists": true},
	}, options.FindOne().SetSort(bson.D{{Key: models.FieldPrecipitation, Value: -1}}))
}

func (r *ReadingRepo) MaxTemperatureByDevice(ctx context.Context, tr models.TimeRange) ([]models.DevicePeak, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{models.FieldTime: timeRangeFilter(tr)}}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$" + models.FieldDeviceName,
			"MaxTemperature": bson.M{"$max": "$" + models.FieldTemperature},
			"Time":           bson.M{"$first": "$" + models.FieldTime},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate readings: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Device         string    `bson:"_id"`
		MaxTemperature *float64  `bson:"MaxTemperature"`
		Time           time.Time `bson:"Time"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode aggregate: %w", err)
	}
	out := make([]models.DevicePeak, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.DevicePeak{DeviceName: row.Device, Time: row.Time.UTC(), Value: row.MaxTemperature})
	}
	return out, nil
}

func (r *ReadingRepo) Update(ctx context.Context, id string, fields map[string]any) (int64, error) {
	oid, err := objectID(id)
	if err != nil {
		return 0, err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{models.FieldID: oid}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return 0, fmt.Errorf("failed to update reading: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *ReadingRepo) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{models.FieldID: oid})
	if err != nil {
		return fmt.Errorf("failed to delete reading: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ReadingRepo) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.Reading, error) {
	var m bson.M
	if err := r.coll.FindOne(ctx, filter, opts...).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reading: %w", err)
	}
	return readingFromBSON(m)
}

type DeletionLogRepo struct {
	coll *mongo.Collection
}

// NewDeletionLogRepository creates a MongoDB-backed deletion log
func NewDeletionLogRepository(db *mongo.Database) *DeletionLogRepo {
	return &DeletionLogRepo{coll: db.Collection(DeletionLogCollection)}
}

// Append stores the entry under the reading's own _id. A duplicate key means
// an earlier attempt already logged this reading.
func (r *DeletionLogRepo) Append(ctx context.Context, entry *models.DeletionLogEntry) error {
	doc, err := toBSON(entry.Document())
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to append deletion log: %w", err)
	}
	return nil
}

func (r *DeletionLogRepo) List(ctx context.Context) ([]*models.DeletionLogEntry, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: models.FieldDeletedAt, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list deletion log: %w", err)
	}
	defer cur.Close(ctx)

	var out []*models.DeletionLogEntry
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode deletion log entry: %w", err)
		}
		doc := fromBSON(m)
		deletedAt, _ := models.ToTime(doc[models.FieldDeletedAt])
		delete(doc, models.FieldDeletedAt)
		reading, err := models.ReadingFromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, &models.DeletionLogEntry{Reading: reading, DeletedAt: deletedAt})
	}
	return out, cur.Err()
}
