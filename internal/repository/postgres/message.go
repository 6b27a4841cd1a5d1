package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const messageColumns = `id, sender_id, receiver_id, content, ride_id, is_read, created_at`

// MessageRepository is a PostgreSQL implementation of
// repository.MessageRepository.
type MessageRepository struct {
	q Querier
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{q: db}
}

// NewMessageRepositoryWithTx creates a message repository using a
// transaction.
func NewMessageRepositoryWithTx(tx *sql.Tx) *MessageRepository {
	return &MessageRepository{q: tx}
}

// Create persists a new message.
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, content, ride_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		message.ID,
		message.SenderID,
		message.ReceiverID,
		message.Content,
		nullString(message.RideID),
		message.IsRead,
		message.CreatedAt,
	)
	return err
}

// ListByUser retrieves messages sent or received by the user, newest first.
func (r *MessageRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + ` FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

// MarkRead flags a message as read. Only the receiver's update matches.
func (r *MessageRepository) MarkRead(ctx context.Context, messageID, receiverID string) (*domain.Message, error) {
	query := `UPDATE messages SET is_read = TRUE WHERE id = $1 AND receiver_id = $2 RETURNING ` + messageColumns

	message, err := scanMessage(r.q.QueryRowContext(ctx, query, messageID, receiverID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return message, nil
}

// CountUnread returns the number of unread messages for a receiver.
func (r *MessageRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND is_read = FALSE`

	var count int
	if err := r.q.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var message domain.Message
	var rideID sql.NullString

	err := row.Scan(
		&message.ID,
		&message.SenderID,
		&message.ReceiverID,
		&message.Content,
		&rideID,
		&message.IsRead,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	message.RideID = rideID.String
	return &message, nil
}
