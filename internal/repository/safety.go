package repository

import (
	"context"
	"time"

	"carpool/internal/domain"
)

// SafetyAlertRepository defines the persistence operations for safety alerts.
type SafetyAlertRepository interface {
	// Create persists a new alert.
	Create(ctx context.Context, alert *domain.SafetyAlert) error

	// GetByID retrieves an alert by ID.
	GetByID(ctx context.Context, id string) (*domain.SafetyAlert, error)

	// ListByUser retrieves a user's alerts, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.SafetyAlert, error)

	// Resolve transitions an active alert to the given terminal status and
	// records the resolver. Returns ErrStatusConflict if the alert is
	// already terminal.
	Resolve(ctx context.Context, alertID, resolvedBy string, status domain.AlertStatus) (*domain.SafetyAlert, error)
}

// TrustedContactRepository defines the persistence operations for trusted
// contacts.
type TrustedContactRepository interface {
	// Create persists a new contact.
	Create(ctx context.Context, contact *domain.TrustedContact) error

	// ListByUser retrieves a user's contacts.
	ListByUser(ctx context.Context, userID string) ([]*domain.TrustedContact, error)

	// ClearEmergencyFlag demotes the user's current emergency contact, if
	// any. Combined with Create in one transaction it keeps at most one
	// contact flagged per user.
	ClearEmergencyFlag(ctx context.Context, userID string) error
}

// RideVerificationRepository stores pickup verification codes.
type RideVerificationRepository interface {
	// Create persists a freshly generated code.
	Create(ctx context.Context, v *domain.RideVerification) error

	// Confirm marks the newest matching unverified, unexpired code for the
	// ride as verified and returns it. Returns ErrNotFound if no such code
	// exists; a consumed code never matches again.
	Confirm(ctx context.Context, rideID, code string, notBefore time.Time) (*domain.RideVerification, error)
}

// EmergencyContactRegistrar atomically registers a contact as the user's
// sole emergency contact: any previously flagged contact is demoted in the
// same transaction.
type EmergencyContactRegistrar interface {
	RegisterEmergencyContact(ctx context.Context, contact *domain.TrustedContact) error
}
