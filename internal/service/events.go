package service

import "carpool/internal/bus"

// EventPublisher is the slice of the event bus the services need. Delivery
// is best-effort; publishing never returns an error and never blocks.
type EventPublisher interface {
	Publish(channel string, event bus.Event)
	PublishGlobal(event bus.Event)
}

// Ensure the bus satisfies the publisher contract.
var _ EventPublisher = (*bus.Bus)(nil)
