package domain

import "time"

// AlertType classifies a safety alert.
type AlertType string

const (
	AlertTypeEmergency         AlertType = "emergency"
	AlertTypeSafetyCheck       AlertType = "safety_check"
	AlertTypeLocationDeviation AlertType = "location_deviation"
	AlertTypeDelayedArrival    AlertType = "delayed_arrival"
	AlertTypeBehavioralConcern AlertType = "behavioral_concern"
)

// ValidAlertType reports whether t is one of the known alert types.
func ValidAlertType(t AlertType) bool {
	switch t {
	case AlertTypeEmergency, AlertTypeSafetyCheck, AlertTypeLocationDeviation,
		AlertTypeDelayedArrival, AlertTypeBehavioralConcern:
		return true
	}
	return false
}

// AlertStatus represents the lifecycle state of a safety alert.
type AlertStatus string

const (
	AlertStatusActive     AlertStatus = "active"
	AlertStatusResolved   AlertStatus = "resolved"
	AlertStatusFalseAlarm AlertStatus = "false_alarm"
)

// Terminal reports whether the alert admits no further transitions.
func (s AlertStatus) Terminal() bool {
	return s == AlertStatusResolved || s == AlertStatusFalseAlarm
}

// SafetyAlert is a reporter-raised incident record tied to a ride.
// Latitude/Longitude are optional; HasLocation marks whether they were
// supplied, so absent coordinates are never confused with (0, 0).
type SafetyAlert struct {
	ID          string
	UserID      string // reporter
	RideID      string
	AlertType   AlertType
	Details     string
	Latitude    float64
	Longitude   float64
	HasLocation bool
	Status      AlertStatus
	ResolvedBy  string
	ResolvedAt  time.Time
	CreatedAt   time.Time
}

// TrustedContact is a user-designated third party eligible for emergency
// notification. At most one contact per user holds the emergency flag.
type TrustedContact struct {
	ID                 string
	UserID             string
	Name               string
	Phone              string
	Email              string
	Relationship       string
	IsEmergencyContact bool
	CreatedAt          time.Time
}

// RideVerification is a stored safety code a passenger and driver exchange
// at pickup to confirm they matched the right ride.
type RideVerification struct {
	ID          string
	RideID      string
	PassengerID string
	Code        string
	Verified    bool
	GeneratedAt time.Time
	VerifiedAt  time.Time
}
