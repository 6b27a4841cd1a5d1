package repository

import (
	"context"

	"carpool/internal/domain"
)

// MessageRepository defines the persistence operations for in-app messages.
type MessageRepository interface {
	// Create persists a new message.
	Create(ctx context.Context, message *domain.Message) error

	// ListByUser retrieves messages sent or received by the user, newest
	// first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Message, error)

	// MarkRead flags a message as read. The receiver guard is part of the
	// update; a non-receiver gets ErrNotFound.
	MarkRead(ctx context.Context, messageID, receiverID string) (*domain.Message, error)

	// CountUnread returns the number of unread messages for a receiver.
	CountUnread(ctx context.Context, userID string) (int, error)
}
