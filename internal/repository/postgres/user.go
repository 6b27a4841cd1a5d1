package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const userColumns = `id, username, email, full_name, phone, points, total_rides, emergency_contact_id, created_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// NewUserRepositoryWithTx creates a user repository using a transaction.
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, email, full_name, phone, points, total_rides, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		nullString(user.FullName),
		nullString(user.Phone),
		user.Points,
		user.TotalRides,
		user.CreatedAt,
	)
	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetAll retrieves all users.
func (r *UserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// AddPoints atomically increments the user's loyalty points.
func (r *UserRepository) AddPoints(ctx context.Context, userID string, points int) error {
	query := `UPDATE users SET points = points + $2 WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, userID, points)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// IncrementTotalRides bumps the completed-ride counter.
func (r *UserRepository) IncrementTotalRides(ctx context.Context, userID string) error {
	query := `UPDATE users SET total_rides = total_rides + 1 WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, userID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// SetEmergencyContact records the user's designated emergency contact.
func (r *UserRepository) SetEmergencyContact(ctx context.Context, userID, contactID string) error {
	query := `UPDATE users SET emergency_contact_id = $2 WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, userID, contactID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var fullName, phone, emergencyContactID sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&fullName,
		&phone,
		&user.Points,
		&user.TotalRides,
		&emergencyContactID,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.FullName = fullName.String
	user.Phone = phone.String
	user.EmergencyContactID = emergencyContactID.String

	return &user, nil
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
