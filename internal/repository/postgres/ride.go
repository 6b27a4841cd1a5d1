package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const rideColumns = `id, driver_id, origin, destination, departure_time, seats_total, seats_available, status, price, car_model, car_color, license_plate, preferences, route_details, estimated_duration, created_at`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (id, driver_id, origin, destination, departure_time, seats_total, seats_available, status, price, car_model, car_color, license_plate, preferences, route_details, estimated_duration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.DriverID,
		ride.Origin,
		ride.Destination,
		ride.DepartureTime,
		ride.SeatsTotal,
		ride.SeatsAvailable,
		ride.Status,
		ride.Price,
		nullString(ride.CarModel),
		nullString(ride.CarColor),
		nullString(ride.LicensePlate),
		nullString(ride.Preferences),
		nullString(ride.RouteDetails),
		nullString(ride.EstimatedDuration),
		ride.CreatedAt,
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// GetAll retrieves recent rides, newest first.
func (r *RideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// ListByDriver retrieves a driver's non-terminal rides.
func (r *RideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE driver_id = $1 AND status IN ('pending', 'full', 'in_progress')
		ORDER BY departure_time DESC
	`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// ReserveSeats atomically claims seats on a pending ride. The precondition
// check and the decrement are a single conditional UPDATE, so two concurrent
// reservations against the last seats are serialized by the row lock and at
// most one of them can succeed.
func (r *RideRepository) ReserveSeats(ctx context.Context, rideID string, seats int) (*domain.Ride, error) {
	query := `
		UPDATE rides
		SET seats_available = seats_available - $2,
		    status = CASE WHEN seats_available - $2 = 0 THEN 'full' ELSE status END
		WHERE id = $1 AND status = 'pending' AND seats_available >= $2
		RETURNING ` + rideColumns

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, rideID, seats))
	if err == nil {
		return ride, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// The guard failed: report why.
	if _, err := r.GetByID(ctx, rideID); err != nil {
		return nil, err
	}
	return nil, repository.ErrSeatsUnavailable
}

// ReleaseSeats atomically returns seats to the ride, clamped at the original
// capacity, and reopens a full ride.
func (r *RideRepository) ReleaseSeats(ctx context.Context, rideID string, seats int) (*domain.Ride, error) {
	query := `
		UPDATE rides
		SET seats_available = LEAST(seats_available + $2, seats_total),
		    status = CASE WHEN status = 'full' THEN 'pending' ELSE status END
		WHERE id = $1 AND status IN ('pending', 'full')
		RETURNING ` + rideColumns

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, rideID, seats))
	if err == nil {
		return ride, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if _, err := r.GetByID(ctx, rideID); err != nil {
		return nil, err
	}
	return nil, repository.ErrStatusConflict
}

// TransitionStatus moves the ride between states with the source-state guard
// applied inside the UPDATE itself.
func (r *RideRepository) TransitionStatus(ctx context.Context, rideID string, from []domain.RideStatus, to domain.RideStatus) (*domain.Ride, error) {
	placeholders := make([]string, len(from))
	args := []any{rideID, to}
	for i, s := range from {
		placeholders[i] = fmt.Sprintf("$%d", i+3)
		args = append(args, s)
	}

	query := `
		UPDATE rides SET status = $2
		WHERE id = $1 AND status IN (` + strings.Join(placeholders, ", ") + `)
		RETURNING ` + rideColumns

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, args...))
	if err == nil {
		return ride, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if _, err := r.GetByID(ctx, rideID); err != nil {
		return nil, err
	}
	return nil, repository.ErrStatusConflict
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var carModel, carColor, licensePlate, preferences, routeDetails, estimatedDuration sql.NullString

	err := row.Scan(
		&ride.ID,
		&ride.DriverID,
		&ride.Origin,
		&ride.Destination,
		&ride.DepartureTime,
		&ride.SeatsTotal,
		&ride.SeatsAvailable,
		&ride.Status,
		&ride.Price,
		&carModel,
		&carColor,
		&licensePlate,
		&preferences,
		&routeDetails,
		&estimatedDuration,
		&ride.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	ride.CarModel = carModel.String
	ride.CarColor = carColor.String
	ride.LicensePlate = licensePlate.String
	ride.Preferences = preferences.String
	ride.RouteDetails = routeDetails.String
	ride.EstimatedDuration = estimatedDuration.String

	return &ride, nil
}

func collectRides(rows *sql.Rows) ([]*domain.Ride, error) {
	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
