package repository

import (
	"context"

	"carpool/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// ListByUser retrieves a user's bookings, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error)

	// ListByRide retrieves all bookings for a ride.
	ListByRide(ctx context.Context, rideID string) ([]*domain.Booking, error)

	// HasActiveBooking reports whether the user holds a non-cancelled
	// booking on the ride.
	HasActiveBooking(ctx context.Context, userID, rideID string) (bool, error)

	// Cancel marks the booking cancelled and its payment refunded. Returns
	// ErrStatusConflict if the booking is already cancelled, so a double
	// cancellation can never release seats twice.
	Cancel(ctx context.Context, bookingID string) (*domain.Booking, error)

	// CancelByRide cancels every confirmed booking of a ride. Used when the
	// driver cancels the whole ride. Returns the bookings it cancelled.
	CancelByRide(ctx context.Context, rideID string) ([]*domain.Booking, error)
}
