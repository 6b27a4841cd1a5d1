package bus

import "time"

// Type discriminates the event payloads carried over the bus. It is the
// "type" field of every encoded frame.
type Type string

const (
	TypeLocationUpdate Type = "location_update"
	TypeETAUpdate      Type = "eta_update"
	TypeRideStatus     Type = "ride_status"
	TypeNotification   Type = "notification"
	TypeSafetyAlert    Type = "safety_alert"
)

// Event is a payload publishable on the bus. Implementations are the
// closed set of event structs below.
type Event interface {
	EventType() Type
}

// RideChannel names the channel carrying events about a single ride.
func RideChannel(rideID string) string {
	return "ride_" + rideID
}

// UserChannel names a user's personal notification channel.
func UserChannel(userID string) string {
	return "user_" + userID
}

// Coordinates is the position nested inside a LocationUpdate.
type Coordinates struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LocationUpdate announces a fresh position report for a ride.
type LocationUpdate struct {
	Type     Type        `json:"type"`
	RideID   string      `json:"rideId"`
	Location Coordinates `json:"location"`
	Progress int         `json:"progress"`
}

func (e LocationUpdate) EventType() Type { return TypeLocationUpdate }

// NewLocationUpdate builds a location event for a ride channel.
func NewLocationUpdate(rideID string, lat, lng float64, updatedAt time.Time, progress int) LocationUpdate {
	return LocationUpdate{
		Type:   TypeLocationUpdate,
		RideID: rideID,
		Location: Coordinates{
			Latitude:  lat,
			Longitude: lng,
			UpdatedAt: updatedAt,
		},
		Progress: progress,
	}
}

// ETAUpdate carries a recomputed arrival estimate.
type ETAUpdate struct {
	Type     Type   `json:"type"`
	RideID   string `json:"rideId"`
	ETA      string `json:"eta"`
	Duration string `json:"duration"`
}

func (e ETAUpdate) EventType() Type { return TypeETAUpdate }

// NewETAUpdate builds an ETA event. ETA is an RFC 3339 arrival time and
// Duration a human-readable remainder such as "12 min".
func NewETAUpdate(rideID, eta, duration string) ETAUpdate {
	return ETAUpdate{
		Type:     TypeETAUpdate,
		RideID:   rideID,
		ETA:      eta,
		Duration: duration,
	}
}

// RideStatus announces a lifecycle transition of a ride.
type RideStatus struct {
	Type   Type   `json:"type"`
	RideID string `json:"rideId"`
	Status string `json:"status"`
}

func (e RideStatus) EventType() Type { return TypeRideStatus }

// NewRideStatus builds a status-change event.
func NewRideStatus(rideID, status string) RideStatus {
	return RideStatus{
		Type:   TypeRideStatus,
		RideID: rideID,
		Status: status,
	}
}

// Notification is a free-form message for a user channel.
type Notification struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

func (e Notification) EventType() Type { return TypeNotification }

// NewNotification builds a user notification event.
func NewNotification(message string) Notification {
	return Notification{
		Type:    TypeNotification,
		Message: message,
	}
}

// SafetyAlertData is the payload nested inside a SafetyAlert event.
type SafetyAlertData struct {
	AlertID   string `json:"alertId"`
	RideID    string `json:"rideId"`
	UserID    string `json:"userId"`
	AlertType string `json:"alertType"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// SafetyAlert announces a raised or resolved safety alert on a ride channel.
type SafetyAlert struct {
	Type Type            `json:"type"`
	Data SafetyAlertData `json:"data"`
}

func (e SafetyAlert) EventType() Type { return TypeSafetyAlert }

// NewSafetyAlert builds a safety alert event.
func NewSafetyAlert(data SafetyAlertData) SafetyAlert {
	return SafetyAlert{
		Type: TypeSafetyAlert,
		Data: data,
	}
}
