package repository

import (
	"context"

	"carpool/internal/domain"
)

// RewardRepository defines the persistence operations for reward grants.
type RewardRepository interface {
	// Create persists a new reward grant.
	Create(ctx context.Context, reward *domain.Reward) error

	// ListByUser retrieves a user's rewards, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Reward, error)
}
