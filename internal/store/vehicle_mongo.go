package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ridealert/internal/model"
)

// MongoVehicleStore implements VehicleStore against the vehicles collection.
type MongoVehicleStore struct {
	col *mongo.Collection
}

func NewMongoVehicleStore(db *mongo.Database) *MongoVehicleStore {
	return &MongoVehicleStore{col: db.Collection("vehicles")}
}

// vehicleDoc is the raw registry document; _id and fleet_id may be stored
// either as ObjectIDs or plain strings by older writers.
type vehicleDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	FleetID        interface{}        `bson:"fleet_id,omitempty"`
	DeviceID       string             `bson:"device_id,omitempty"`
	Location       *model.Location    `bson:"location,omitempty"`
	Status         string             `bson:"status,omitempty"`
	StatusDetail   string             `bson:"status_detail,omitempty"`
	Route          string             `bson:"route,omitempty"`
	RouteID        string             `bson:"route_id,omitempty"`
	Plate          string             `bson:"plate,omitempty"`
	DriverName     string             `bson:"driverName,omitempty"`
	AvailableSeats int                `bson:"available_seats,omitempty"`
}

func (d *vehicleDoc) toModel() *model.Vehicle {
	fleetID := ""
	switch v := d.FleetID.(type) {
	case primitive.ObjectID:
		fleetID = v.Hex()
	case string:
		fleetID = v
	}
	return &model.Vehicle{
		ID:             d.ID.Hex(),
		FleetID:        fleetID,
		DeviceID:       d.DeviceID,
		Location:       d.Location,
		Status:         model.VehicleStatus(d.Status),
		StatusDetail:   d.StatusDetail,
		Route:          d.Route,
		RouteID:        d.RouteID,
		Plate:          d.Plate,
		DriverName:     d.DriverName,
		AvailableSeats: d.AvailableSeats,
	}
}

func (s *MongoVehicleStore) findOne(ctx context.Context, filter bson.M) (*model.Vehicle, error) {
	var doc vehicleDoc
	err := s.col.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (s *MongoVehicleStore) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// FindByDevice matches device_id stored as a string or as a native id.
func (s *MongoVehicleStore) FindByDevice(ctx context.Context, deviceID string) (*model.Vehicle, error) {
	or := []bson.M{{"device_id": deviceID}}
	if oid, err := primitive.ObjectIDFromHex(deviceID); err == nil {
		or = append(or, bson.M{"device_id": oid})
	}
	return s.findOne(ctx, bson.M{"$or": or})
}

// UpdateLocation overwrites only the location field. Concurrent writers
// resolve last-write-wins at the store.
func (s *MongoVehicleStore) UpdateLocation(ctx context.Context, vehicleID string, loc model.Location) error {
	oid, err := primitive.ObjectIDFromHex(vehicleID)
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

// fleetFilter matches fleet_id stored as ObjectID or string.
func fleetFilter(fleetID string) bson.M {
	or := []bson.M{{"fleet_id": fleetID}}
	if oid, err := primitive.ObjectIDFromHex(fleetID); err == nil {
		or = append(or, bson.M{"fleet_id": oid})
	}
	return bson.M{"$or": or}
}

func (s *MongoVehicleStore) list(ctx context.Context, filter bson.M) ([]*model.Vehicle, error) {
	cur, err := s.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Vehicle
	for cur.Next(ctx) {
		var doc vehicleDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toModel())
	}
	return out, cur.Err()
}

func (s *MongoVehicleStore) ListByFleet(ctx context.Context, fleetID string) ([]*model.Vehicle, error) {
	return s.list(ctx, fleetFilter(fleetID))
}

func (s *MongoVehicleStore) AvailableByFleet(ctx context.Context, fleetID string) ([]*model.Vehicle, error) {
	filter := fleetFilter(fleetID)
	filter["status"] = bson.M{"$in": []string{string(model.VehicleStatusAvailable), string(model.VehicleStatusFull)}}
	filter["location.latitude"] = bson.M{"$exists": true, "$ne": nil}
	filter["location.longitude"] = bson.M{"$exists": true, "$ne": nil}
	return s.list(ctx, filter)
}

func (s *MongoVehicleStore) Count(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{})
}
