package postgres

import (
	"context"
	"database/sql"

	"carpool/internal/domain"
)

// RewardRepository is a PostgreSQL implementation of
// repository.RewardRepository.
type RewardRepository struct {
	q Querier
}

// NewRewardRepository creates a new RewardRepository.
func NewRewardRepository(db *sql.DB) *RewardRepository {
	return &RewardRepository{q: db}
}

// NewRewardRepositoryWithTx creates a reward repository using a transaction.
func NewRewardRepositoryWithTx(tx *sql.Tx) *RewardRepository {
	return &RewardRepository{q: tx}
}

// Create persists a new reward grant.
func (r *RewardRepository) Create(ctx context.Context, reward *domain.Reward) error {
	query := `
		INSERT INTO rewards (id, user_id, type, points, description, expiry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		reward.ID,
		reward.UserID,
		reward.Type,
		reward.Points,
		reward.Description,
		reward.ExpiryDate,
		reward.CreatedAt,
	)
	return err
}

// ListByUser retrieves a user's rewards, newest first.
func (r *RewardRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Reward, error) {
	query := `
		SELECT id, user_id, type, points, description, expiry_date, created_at
		FROM rewards WHERE user_id = $1 ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rewards []*domain.Reward
	for rows.Next() {
		var reward domain.Reward
		if err := rows.Scan(
			&reward.ID,
			&reward.UserID,
			&reward.Type,
			&reward.Points,
			&reward.Description,
			&reward.ExpiryDate,
			&reward.CreatedAt,
		); err != nil {
			return nil, err
		}
		rewards = append(rewards, &reward)
	}
	return rewards, rows.Err()
}
