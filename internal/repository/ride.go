package repository

import (
	"context"

	"carpool/internal/domain"
)

// RideRepository defines the persistence operations for rides.
//
// ReserveSeats and ReleaseSeats are the only operations allowed to mutate
// SeatsAvailable. Both are atomic: the precondition check and the counter
// update happen in a single conditional statement, so concurrent callers
// against the same ride are totally ordered by the database row lock.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetAll retrieves recent rides, newest first.
	GetAll(ctx context.Context) ([]*domain.Ride, error)

	// ListByDriver retrieves a driver's non-terminal rides.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error)

	// ReserveSeats atomically decrements SeatsAvailable by seats if the ride
	// is pending and has at least that many seats left, flipping the status
	// to full when the counter reaches zero. Returns the updated ride, or
	// ErrSeatsUnavailable / ErrNotFound without mutating anything.
	ReserveSeats(ctx context.Context, rideID string, seats int) (*domain.Ride, error)

	// ReleaseSeats atomically returns seats to the ride, clamped at
	// SeatsTotal, reopening a full ride to pending. Only pending and full
	// rides accept a release; other states return ErrStatusConflict.
	ReleaseSeats(ctx context.Context, rideID string, seats int) (*domain.Ride, error)

	// TransitionStatus moves the ride from any of the from states to the to
	// state. Returns ErrStatusConflict if the ride exists but is in none of
	// the from states.
	TransitionStatus(ctx context.Context, rideID string, from []domain.RideStatus, to domain.RideStatus) (*domain.Ride, error)
}
