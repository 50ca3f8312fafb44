package model

// VehicleStatus is the canonical availability state of a vehicle.
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "available"
	VehicleStatusFull        VehicleStatus = "full"
	VehicleStatusUnavailable VehicleStatus = "unavailable"
)

// Vehicle mirrors the registry document. The registry owns the entity;
// this service only reads it and overwrites the location field.
type Vehicle struct {
	ID             string        `json:"id" bson:"_id,omitempty"`
	FleetID        string        `json:"fleet_id" bson:"fleet_id,omitempty"`
	DeviceID       string        `json:"device_id" bson:"device_id,omitempty"`
	Location       *Location     `json:"location" bson:"location,omitempty"`
	Status         VehicleStatus `json:"status" bson:"status,omitempty"`
	StatusDetail   string        `json:"status_detail,omitempty" bson:"status_detail,omitempty"`
	Route          string        `json:"route,omitempty" bson:"route,omitempty"`
	RouteID        string        `json:"route_id,omitempty" bson:"route_id,omitempty"`
	Plate          string        `json:"plate,omitempty" bson:"plate,omitempty"`
	DriverName     string        `json:"driverName,omitempty" bson:"driverName,omitempty"`
	AvailableSeats int           `json:"available_seats" bson:"available_seats,omitempty"`
}

// HasLocation reports whether the vehicle carries a usable fix.
func (v *Vehicle) HasLocation() bool {
	return v.Location != nil && v.Location.Valid()
}
