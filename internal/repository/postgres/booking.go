package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const bookingColumns = `id, ride_id, user_id, seats, status, payment_status, special_requests, pickup_location, dropoff_location, created_at`

// BookingRepository is a PostgreSQL implementation of
// repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (id, ride_id, user_id, seats, status, payment_status, special_requests, pickup_location, dropoff_location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		booking.RideID,
		booking.UserID,
		booking.Seats,
		booking.Status,
		booking.PaymentStatus,
		nullString(booking.SpecialRequests),
		nullString(booking.PickupLocation),
		nullString(booking.DropoffLocation),
		booking.CreatedAt,
	)

	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

// ListByUser retrieves a user's bookings, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

// ListByRide retrieves all bookings for a ride.
func (r *BookingRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ride_id = $1 ORDER BY created_at`

	rows, err := r.q.QueryContext(ctx, query, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

// HasActiveBooking reports whether the user holds a non-cancelled booking on
// the ride.
func (r *BookingRepository) HasActiveBooking(ctx context.Context, userID, rideID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM bookings WHERE user_id = $1 AND ride_id = $2 AND status <> 'cancelled')`

	var exists bool
	if err := r.q.QueryRowContext(ctx, query, userID, rideID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Cancel marks the booking cancelled and its payment refunded. The status
// guard in the UPDATE makes the operation idempotency-safe: a second cancel
// matches no row and reports a conflict instead of releasing seats again.
func (r *BookingRepository) Cancel(ctx context.Context, bookingID string) (*domain.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', payment_status = 'refunded'
		WHERE id = $1 AND status <> 'cancelled'
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, bookingID))
	if err == nil {
		return booking, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if _, err := r.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}
	return nil, repository.ErrStatusConflict
}

// CancelByRide cancels every confirmed booking of a ride and returns them.
func (r *BookingRepository) CancelByRide(ctx context.Context, rideID string) ([]*domain.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', payment_status = 'refunded'
		WHERE ride_id = $1 AND status = 'confirmed'
		RETURNING ` + bookingColumns

	rows, err := r.q.QueryContext(ctx, query, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var specialRequests, pickupLocation, dropoffLocation sql.NullString

	err := row.Scan(
		&booking.ID,
		&booking.RideID,
		&booking.UserID,
		&booking.Seats,
		&booking.Status,
		&booking.PaymentStatus,
		&specialRequests,
		&pickupLocation,
		&dropoffLocation,
		&booking.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.SpecialRequests = specialRequests.String
	booking.PickupLocation = pickupLocation.String
	booking.DropoffLocation = dropoffLocation.String

	return &booking, nil
}

func collectBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}
