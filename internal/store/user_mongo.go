package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ridealert/internal/model"
)

// MongoUserStore implements UserStore against the users collection.
type MongoUserStore struct {
	col *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection("users")}
}

type userDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	FleetID  interface{}        `bson:"fleet_id,omitempty"`
	Location *model.Location    `bson:"location,omitempty"`
	FCMToken string             `bson:"fcm_token,omitempty"`
	Notify   bool               `bson:"notify,omitempty"`
}

func (d *userDoc) toModel() *model.User {
	fleetID := ""
	switch v := d.FleetID.(type) {
	case primitive.ObjectID:
		fleetID = v.Hex()
	case string:
		fleetID = v
	}
	return &model.User{
		ID:       d.ID.Hex(),
		FleetID:  fleetID,
		Location: d.Location,
		FCMToken: d.FCMToken,
		Notify:   d.Notify,
	}
}

func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc userDoc
	err = s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (s *MongoUserStore) UpdateLocation(ctx context.Context, userID string, loc model.Location) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"location": loc}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Notifiable returns opted-in riders with a push token, valid stored
// coordinates and a fleet membership, the candidate set for the sweep.
func (s *MongoUserStore) Notifiable(ctx context.Context) ([]*model.User, error) {
	filter := bson.M{
		"location.latitude":  bson.M{"$exists": true, "$ne": nil},
		"location.longitude": bson.M{"$exists": true, "$ne": nil},
		"fcm_token":          bson.M{"$exists": true, "$ne": nil},
		"fleet_id":           bson.M{"$exists": true, "$ne": nil},
		"notify":             true,
	}
	cur, err := s.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.User
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toModel())
	}
	return out, cur.Err()
}

func (s *MongoUserStore) Count(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{})
}
