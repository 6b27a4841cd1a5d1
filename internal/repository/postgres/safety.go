package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const alertColumns = `id, user_id, ride_id, alert_type, details, latitude, longitude, status, resolved_by, resolved_at, created_at`

// SafetyAlertRepository is a PostgreSQL implementation of
// repository.SafetyAlertRepository.
type SafetyAlertRepository struct {
	q Querier
}

// NewSafetyAlertRepository creates a new SafetyAlertRepository.
func NewSafetyAlertRepository(db *sql.DB) *SafetyAlertRepository {
	return &SafetyAlertRepository{q: db}
}

// Create persists a new alert.
func (r *SafetyAlertRepository) Create(ctx context.Context, alert *domain.SafetyAlert) error {
	query := `
		INSERT INTO safety_alerts (id, user_id, ride_id, alert_type, details, latitude, longitude, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var lat, lng sql.NullFloat64
	if alert.HasLocation {
		lat = sql.NullFloat64{Float64: alert.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: alert.Longitude, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		alert.ID,
		alert.UserID,
		alert.RideID,
		alert.AlertType,
		nullString(alert.Details),
		lat,
		lng,
		alert.Status,
		alert.CreatedAt,
	)
	return err
}

// GetByID retrieves an alert by ID.
func (r *SafetyAlertRepository) GetByID(ctx context.Context, id string) (*domain.SafetyAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM safety_alerts WHERE id = $1`

	alert, err := scanAlert(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return alert, nil
}

// ListByUser retrieves a user's alerts, newest first.
func (r *SafetyAlertRepository) ListByUser(ctx context.Context, userID string) ([]*domain.SafetyAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM safety_alerts WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.SafetyAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// Resolve transitions an active alert to a terminal status. The status guard
// lives in the UPDATE, so resolving twice reports a conflict.
func (r *SafetyAlertRepository) Resolve(ctx context.Context, alertID, resolvedBy string, status domain.AlertStatus) (*domain.SafetyAlert, error) {
	query := `
		UPDATE safety_alerts
		SET status = $2, resolved_by = $3, resolved_at = $4
		WHERE id = $1 AND status = 'active'
		RETURNING ` + alertColumns

	alert, err := scanAlert(r.q.QueryRowContext(ctx, query, alertID, status, resolvedBy, time.Now()))
	if err == nil {
		return alert, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if _, err := r.GetByID(ctx, alertID); err != nil {
		return nil, err
	}
	return nil, repository.ErrStatusConflict
}

func scanAlert(row rowScanner) (*domain.SafetyAlert, error) {
	var alert domain.SafetyAlert
	var details, resolvedBy sql.NullString
	var lat, lng sql.NullFloat64
	var resolvedAt sql.NullTime

	err := row.Scan(
		&alert.ID,
		&alert.UserID,
		&alert.RideID,
		&alert.AlertType,
		&details,
		&lat,
		&lng,
		&alert.Status,
		&resolvedBy,
		&resolvedAt,
		&alert.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	alert.Details = details.String
	alert.ResolvedBy = resolvedBy.String
	if lat.Valid && lng.Valid {
		alert.Latitude = lat.Float64
		alert.Longitude = lng.Float64
		alert.HasLocation = true
	}
	if resolvedAt.Valid {
		alert.ResolvedAt = resolvedAt.Time
	}

	return &alert, nil
}

// TrustedContactRepository is a PostgreSQL implementation of
// repository.TrustedContactRepository.
type TrustedContactRepository struct {
	q Querier
}

// NewTrustedContactRepository creates a new TrustedContactRepository.
func NewTrustedContactRepository(db *sql.DB) *TrustedContactRepository {
	return &TrustedContactRepository{q: db}
}

// NewTrustedContactRepositoryWithTx creates a contact repository using a
// transaction.
func NewTrustedContactRepositoryWithTx(tx *sql.Tx) *TrustedContactRepository {
	return &TrustedContactRepository{q: tx}
}

// Create persists a new contact.
func (r *TrustedContactRepository) Create(ctx context.Context, contact *domain.TrustedContact) error {
	query := `
		INSERT INTO trusted_contacts (id, user_id, contact_name, contact_phone, contact_email, relationship, is_emergency_contact, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.ExecContext(ctx, query,
		contact.ID,
		contact.UserID,
		contact.Name,
		contact.Phone,
		nullString(contact.Email),
		contact.Relationship,
		contact.IsEmergencyContact,
		contact.CreatedAt,
	)
	return err
}

// ListByUser retrieves a user's contacts.
func (r *TrustedContactRepository) ListByUser(ctx context.Context, userID string) ([]*domain.TrustedContact, error) {
	query := `
		SELECT id, user_id, contact_name, contact_phone, contact_email, relationship, is_emergency_contact, created_at
		FROM trusted_contacts WHERE user_id = $1 ORDER BY created_at
	`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*domain.TrustedContact
	for rows.Next() {
		var contact domain.TrustedContact
		var email sql.NullString
		if err := rows.Scan(
			&contact.ID,
			&contact.UserID,
			&contact.Name,
			&contact.Phone,
			&email,
			&contact.Relationship,
			&contact.IsEmergencyContact,
			&contact.CreatedAt,
		); err != nil {
			return nil, err
		}
		contact.Email = email.String
		contacts = append(contacts, &contact)
	}
	return contacts, rows.Err()
}

// ClearEmergencyFlag demotes the user's current emergency contact, if any.
func (r *TrustedContactRepository) ClearEmergencyFlag(ctx context.Context, userID string) error {
	query := `UPDATE trusted_contacts SET is_emergency_contact = FALSE WHERE user_id = $1 AND is_emergency_contact = TRUE`
	_, err := r.q.ExecContext(ctx, query, userID)
	return err
}

// RideVerificationRepository is a PostgreSQL implementation of
// repository.RideVerificationRepository.
type RideVerificationRepository struct {
	q Querier
}

// NewRideVerificationRepository creates a new RideVerificationRepository.
func NewRideVerificationRepository(db *sql.DB) *RideVerificationRepository {
	return &RideVerificationRepository{q: db}
}

// Create persists a freshly generated code.
func (r *RideVerificationRepository) Create(ctx context.Context, v *domain.RideVerification) error {
	query := `
		INSERT INTO ride_verifications (id, ride_id, passenger_id, verification_code, verified, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.ExecContext(ctx, query,
		v.ID,
		v.RideID,
		v.PassengerID,
		v.Code,
		v.Verified,
		v.GeneratedAt,
	)
	return err
}

// Confirm marks the newest matching unverified, unexpired code for the ride
// as verified. A code can only be consumed once.
func (r *RideVerificationRepository) Confirm(ctx context.Context, rideID, code string, notBefore time.Time) (*domain.RideVerification, error) {
	query := `
		UPDATE ride_verifications
		SET verified = TRUE, verified_at = $4
		WHERE id = (
			SELECT id FROM ride_verifications
			WHERE ride_id = $1 AND verification_code = $2 AND verified = FALSE AND generated_at >= $3
			ORDER BY generated_at DESC LIMIT 1
		)
		RETURNING id, ride_id, passenger_id, verification_code, verified, generated_at, verified_at
	`

	var v domain.RideVerification
	var verifiedAt sql.NullTime
	err := r.q.QueryRowContext(ctx, query, rideID, code, notBefore, time.Now()).Scan(
		&v.ID,
		&v.RideID,
		&v.PassengerID,
		&v.Code,
		&v.Verified,
		&v.GeneratedAt,
		&verifiedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if verifiedAt.Valid {
		v.VerifiedAt = verifiedAt.Time
	}
	return &v, nil
}
