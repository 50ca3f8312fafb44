package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"ridealert/internal/model"
)

// MongoNotificationStore implements NotificationStore against the
// notification_logs collection.
type MongoNotificationStore struct {
	col *mongo.Collection
}

func NewMongoNotificationStore(db *mongo.Database) *MongoNotificationStore {
	return &MongoNotificationStore{col: db.Collection("notification_logs")}
}

func (s *MongoNotificationStore) Append(ctx context.Context, rec *model.NotificationRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	doc := bson.M{
		"user_id":           rec.UserID,
		"vehicle_id":        rec.VehicleID,
		"distance":          rec.DistanceM,
		"success":           rec.Success,
		"timestamp":         rec.Timestamp,
		"notification_type": rec.Type,
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

// RecentExists reports whether a record for the (user, vehicle) pair exists
// inside the cooldown window. Used as the dedup fallback when the fast
// cooldown guard is unavailable.
func (s *MongoNotificationStore) RecentExists(ctx context.Context, userID, vehicleID string, window time.Duration) (bool, error) {
	filter := bson.M{
		"user_id":    userID,
		"vehicle_id": vehicleID,
		"success":    true,
		"timestamp":  bson.M{"$gte": time.Now().UTC().Add(-window)},
	}
	err := s.col.FindOne(ctx, filter).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
