package model

// DeclaredRoute is a route definition document. Geometry arrives either as
// GeoJSON LineString coordinates (lon,lat pairs) or as an encoded polyline
// string; the route store flattens both into lat/lon points.
type DeclaredRoute struct {
	CompanyID     string        `bson:"company_id,omitempty"`
	StartLocation string        `bson:"start_location,omitempty"`
	EndLocation   string        `bson:"end_location,omitempty"`
	GeoJSON       *RouteGeoJSON `bson:"route_geojson,omitempty"`
	Polyline      string        `bson:"polyline,omitempty"`
}

// RouteGeoJSON is the subset of a GeoJSON LineString the snapper consumes.
type RouteGeoJSON struct {
	Type        string       `bson:"type"`
	Coordinates [][2]float64 `bson:"coordinates"`
}
