package mongodb

import (
	"time"

	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validID(id string) bool {
	return primitive.IsValidObjectID(id)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repository.ErrInvalidID
	}
	return oid, nil
}

// toBSON converts a document to bson, turning the hex _id back into an ObjectID
func toBSON(doc models.Document) (bson.M, error) {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		if k == models.FieldID {
			s, ok := v.(string)
			if !ok {
				return nil, repository.ErrInvalidID
			}
			oid, err := objectID(s)
			if err != nil {
				return nil, err
			}
			out[k] = oid
			continue
		}
		out[k] = v
	}
	return out, nil
}

// fromBSON normalizes driver types so the models package never sees them
func fromBSON(m bson.M) models.Document {
	doc := make(models.Document, len(m))
	for k, v := range m {
		doc[k] = normalize(v)
	}
	return doc
}

func normalize(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	case bson.M:
		return map[string]any(fromBSON(t))
	case bson.D:
		return map[string]any(fromBSON(t.Map()))
	case bson.A:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}

func readingFromBSON(m bson.M) (*models.Reading, error) {
	return models.ReadingFromDocument(fromBSON(m))
}

func timeRangeFilter(tr models.TimeRange) bson.M {
	return bson.M{"$gte": tr.Start, "$lte": tr.End}
}
