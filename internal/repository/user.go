package repository

import (
	"context"

	"carpool/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetAll retrieves all users.
	GetAll(ctx context.Context) ([]*domain.User, error)

	// AddPoints atomically increments the user's loyalty points.
	AddPoints(ctx context.Context, userID string, points int) error

	// IncrementTotalRides bumps the completed-ride counter.
	IncrementTotalRides(ctx context.Context, userID string) error

	// SetEmergencyContact records the user's designated emergency contact.
	SetEmergencyContact(ctx context.Context, userID, contactID string) error
}
