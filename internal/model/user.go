package model

// User mirrors the rider document in the user directory. Only the fields
// the realtime pipeline reads are mapped.
type User struct {
	ID       string    `json:"id" bson:"_id,omitempty"`
	FleetID  string    `json:"fleet_id" bson:"fleet_id,omitempty"`
	Location *Location `json:"location" bson:"location,omitempty"`
	FCMToken string    `json:"-" bson:"fcm_token,omitempty"`
	Notify   bool      `json:"notify" bson:"notify,omitempty"`
}

// Notifiable reports whether the rider can receive a proximity alert:
// opted in, push token present, and a usable location.
func (u *User) Notifiable() bool {
	return u.Notify && u.FCMToken != "" && u.Location != nil && u.Location.Valid()
}
