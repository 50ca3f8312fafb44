package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ridealert/internal/model"
)

// MongoTrackingStore implements TrackingStore against the tracking_logs
// collection.
type MongoTrackingStore struct {
	col *mongo.Collection
}

func NewMongoTrackingStore(db *mongo.Database) *MongoTrackingStore {
	return &MongoTrackingStore{col: db.Collection("tracking_logs")}
}

func (s *MongoTrackingStore) Append(ctx context.Context, rec *model.TrackingLog) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	doc := bson.M{
		"vehicle_id": rec.VehicleID,
		"device_id":  rec.DeviceID,
		"SpeedMps":   rec.SpeedMps,
		"raw":        rec.Raw,
		"corrected":  rec.Corrected,
		"snapped":    rec.Snapped,
		"timestamp":  rec.Timestamp,
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

func (s *MongoTrackingStore) Latest(ctx context.Context, deviceID string) (*model.TrackingLog, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	var rec model.TrackingLog
	err := s.col.FindOne(ctx, bson.M{"device_id": deviceID}, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecentSpeeds returns up to limit speed samples for the device within the
// window, newest first.
func (s *MongoTrackingStore) RecentSpeeds(ctx context.Context, deviceID string, window time.Duration, limit int) ([]model.SpeedSample, error) {
	threshold := time.Now().UTC().Add(-window)
	filter := bson.M{
		"device_id": deviceID,
		"timestamp": bson.M{"$gte": threshold},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"SpeedMps": 1, "timestamp": 1})

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []model.SpeedSample
	for cur.Next(ctx) {
		var sample model.SpeedSample
		if err := cur.Decode(&sample); err != nil {
			return nil, err
		}
		out = append(out, sample)
	}
	return out, cur.Err()
}
