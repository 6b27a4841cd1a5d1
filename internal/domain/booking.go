package domain

import "time"

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// PaymentStatus tracks the payment side of a booking. Payment processing
// itself happens outside this service.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Booking represents a passenger's claim on a subset of a ride's seats.
// The invariant maintained by the repository is that the sum of Seats over
// all non-cancelled bookings for a ride never exceeds the ride's SeatsTotal.
type Booking struct {
	ID              string
	RideID          string
	UserID          string
	Seats           int
	Status          BookingStatus
	PaymentStatus   PaymentStatus
	SpecialRequests string
	PickupLocation  string
	DropoffLocation string
	CreatedAt       time.Time
}
