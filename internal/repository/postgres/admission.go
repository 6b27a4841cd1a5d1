package postgres

import (
	"context"
	"database/sql"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// AdmissionRepository implements repository.AdmissionRepository. Each
// operation wraps the seat-counter update and the booking row change in one
// transaction using transaction-scoped repositories.
type AdmissionRepository struct {
	db *sql.DB
}

// NewAdmissionRepository creates a new AdmissionRepository.
func NewAdmissionRepository(db *sql.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

// ReserveAndBook reserves seats and inserts the booking atomically.
func (r *AdmissionRepository) ReserveAndBook(ctx context.Context, booking *domain.Booking) (ride *domain.Ride, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txRideRepo := NewRideRepositoryWithTx(tx)
	txBookingRepo := NewBookingRepositoryWithTx(tx)

	ride, err = txRideRepo.ReserveSeats(ctx, booking.RideID, booking.Seats)
	if err != nil {
		return nil, err
	}

	if err = txBookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return ride, nil
}

// CancelAndRelease cancels the booking and returns its seats atomically.
func (r *AdmissionRepository) CancelAndRelease(ctx context.Context, bookingID string) (booking *domain.Booking, ride *domain.Ride, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txRideRepo := NewRideRepositoryWithTx(tx)
	txBookingRepo := NewBookingRepositoryWithTx(tx)

	booking, err = txBookingRepo.Cancel(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	ride, err = txRideRepo.ReleaseSeats(ctx, booking.RideID, booking.Seats)
	if err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, err
	}

	return booking, ride, nil
}

// CancelRideCascade cancels the ride and every confirmed booking on it
// atomically, so a cancelled ride can never keep live bookings.
func (r *AdmissionRepository) CancelRideCascade(ctx context.Context, rideID string) (ride *domain.Ride, bookings []*domain.Booking, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txRideRepo := NewRideRepositoryWithTx(tx)
	txBookingRepo := NewBookingRepositoryWithTx(tx)

	ride, err = txRideRepo.TransitionStatus(ctx, rideID,
		[]domain.RideStatus{domain.RideStatusPending, domain.RideStatusFull, domain.RideStatusInProgress},
		domain.RideStatusCancelled)
	if err != nil {
		return nil, nil, err
	}

	bookings, err = txBookingRepo.CancelByRide(ctx, rideID)
	if err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, err
	}

	return ride, bookings, nil
}

var _ repository.AdmissionRepository = (*AdmissionRepository)(nil)

// ContactRegistrar implements repository.EmergencyContactRegistrar.
type ContactRegistrar struct {
	db *sql.DB
}

// NewContactRegistrar creates a new ContactRegistrar.
func NewContactRegistrar(db *sql.DB) *ContactRegistrar {
	return &ContactRegistrar{db: db}
}

// RegisterEmergencyContact demotes any currently flagged contact, inserts
// the new one, and points the user at it, all in one transaction.
func (r *ContactRegistrar) RegisterEmergencyContact(ctx context.Context, contact *domain.TrustedContact) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txContactRepo := NewTrustedContactRepositoryWithTx(tx)
	txUserRepo := NewUserRepositoryWithTx(tx)

	if err = txContactRepo.ClearEmergencyFlag(ctx, contact.UserID); err != nil {
		return err
	}

	if err = txContactRepo.Create(ctx, contact); err != nil {
		return err
	}

	if err = txUserRepo.SetEmergencyContact(ctx, contact.UserID, contact.ID); err != nil {
		return err
	}

	return tx.Commit()
}

var _ repository.EmergencyContactRegistrar = (*ContactRegistrar)(nil)
