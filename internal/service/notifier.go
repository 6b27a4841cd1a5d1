package service

import (
	"context"
	"log"

	"carpool/internal/domain"
)

// LogContactNotifier is the default ContactNotifier. It logs the delivery
// instead of sending it.
// In a real deployment this would be backed by:
// - SMS client (Twilio)
// - Email client (SendGrid)
type LogContactNotifier struct{}

// NewLogContactNotifier creates a new LogContactNotifier.
func NewLogContactNotifier() *LogContactNotifier {
	return &LogContactNotifier{}
}

// NotifyEmergency implements ContactNotifier.
func (n *LogContactNotifier) NotifyEmergency(ctx context.Context, contact *domain.TrustedContact, alert *domain.SafetyAlert, reporter *domain.User) error {
	log.Printf("[EMERGENCY] notifying %s (%s) about alert %s raised by %s on ride %s",
		contact.Name, contact.Phone, alert.ID, reporter.DisplayName(), alert.RideID)
	return nil
}

var _ ContactNotifier = (*LogContactNotifier)(nil)
