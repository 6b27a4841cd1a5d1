package domain

import "time"

// Message is an in-app notification delivered between ride participants.
// Real-time delivery additionally goes through the event bus; the message
// row is the durable copy a client fetches after reconnecting.
type Message struct {
	ID         string
	SenderID   string
	ReceiverID string
	Content    string
	RideID     string
	IsRead     bool
	CreatedAt  time.Time
}
