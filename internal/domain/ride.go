package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusPending    RideStatus = "pending"
	RideStatusFull       RideStatus = "full"
	RideStatusInProgress RideStatus = "in_progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s RideStatus) Terminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// Ride represents a scheduled, capacity-limited trip offered by a driver.
// SeatsTotal is the original capacity; SeatsAvailable is the remaining-seats
// counter and is mutated only through the repository's reserve/release
// operations.
type Ride struct {
	ID                string
	DriverID          string
	Origin            string
	Destination       string
	DepartureTime     time.Time
	SeatsTotal        int
	SeatsAvailable    int
	Status            RideStatus
	Price             float64
	CarModel          string
	CarColor          string
	LicensePlate      string
	Preferences       string // e.g. "no smoking", "music ok"
	RouteDetails      string
	EstimatedDuration string // e.g. "45 min", input from the route estimator
	CreatedAt         time.Time
}
