package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ridealert/internal/model"
	"ridealert/internal/util"
)

// MongoRouteStore implements RouteStore against the declared_routes
// collection.
type MongoRouteStore struct {
	col *mongo.Collection
}

func NewMongoRouteStore(db *mongo.Database) *MongoRouteStore {
	return &MongoRouteStore{col: db.Collection("declared_routes")}
}

// Geometry loads the route document and flattens its geometry into lat/lng
// points. GeoJSON coordinates are (lon, lat) and get swapped; encoded
// polylines decode directly to (lat, lng).
func (s *MongoRouteStore) Geometry(ctx context.Context, routeID string) ([][2]float64, error) {
	filter := bson.M{"_id": routeID}
	if oid, err := primitive.ObjectIDFromHex(routeID); err == nil {
		filter = bson.M{"_id": oid}
	}

	var route model.DeclaredRoute
	err := s.col.FindOne(ctx, filter).Decode(&route)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if route.GeoJSON != nil && len(route.GeoJSON.Coordinates) > 0 {
		points := make([][2]float64, len(route.GeoJSON.Coordinates))
		for i, c := range route.GeoJSON.Coordinates {
			points[i] = [2]float64{c[1], c[0]}
		}
		return points, nil
	}
	if route.Polyline != "" {
		if points := util.DecodePolyline(route.Polyline); len(points) > 0 {
			return points, nil
		}
	}
	return nil, ErrNotFound
}
