package repository

import (
	"context"

	"carpool/internal/domain"
)

// AdmissionRepository couples seat-counter updates with booking rows so the
// two can never diverge. Each method runs in a single transaction.
type AdmissionRepository interface {
	// ReserveAndBook reserves booking.Seats on booking.RideID and inserts
	// the booking. Returns the updated ride. On ErrSeatsUnavailable or
	// ErrNotFound nothing is persisted.
	ReserveAndBook(ctx context.Context, booking *domain.Booking) (*domain.Ride, error)

	// CancelAndRelease cancels the booking and returns its seats to the
	// ride, reopening a full ride. Returns the cancelled booking and the
	// updated ride. Returns ErrStatusConflict if the booking is already
	// cancelled.
	CancelAndRelease(ctx context.Context, bookingID string) (*domain.Booking, *domain.Ride, error)

	// CancelRideCascade moves a non-terminal ride to cancelled and cancels
	// and refunds every confirmed booking on it. Returns the cancelled ride
	// and the bookings that were cancelled. Returns ErrStatusConflict if the
	// ride is already terminal; on any error nothing is persisted.
	CancelRideCascade(ctx context.Context, rideID string) (*domain.Ride, []*domain.Booking, error)
}
