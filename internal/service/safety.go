package service

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/google/uuid"

	"carpool/internal/bus"
	"carpool/internal/domain"
	"carpool/internal/repository"
)

const (
	// verificationRewardPoints is granted when a pickup code is confirmed.
	verificationRewardPoints = 10
	// verificationRewardExpiry is how long verification points remain redeemable.
	verificationRewardExpiry = 90 * 24 * time.Hour
	// verificationCodeTTL is how long a generated code stays valid.
	verificationCodeTTL = 30 * time.Minute
)

var verificationCodePattern = regexp.MustCompile(`^\d{6}$`)

// ContactNotifier delivers emergency notifications to trusted contacts over
// an out-of-band channel (SMS, email). Implementations must be safe for
// concurrent use.
type ContactNotifier interface {
	NotifyEmergency(ctx context.Context, contact *domain.TrustedContact, alert *domain.SafetyAlert, reporter *domain.User) error
}

// SafetyService handles safety alerts, trusted contacts and pickup
// verification.
type SafetyService struct {
	alertRepo        repository.SafetyAlertRepository
	contactRepo      repository.TrustedContactRepository
	contactRegistrar repository.EmergencyContactRegistrar
	verificationRepo repository.RideVerificationRepository
	rideRepo         repository.RideRepository
	bookingRepo      repository.BookingRepository
	userRepo         repository.UserRepository
	messageRepo      repository.MessageRepository
	rewardRepo       repository.RewardRepository
	notifier         ContactNotifier
	events           EventPublisher
}

// NewSafetyService creates a new SafetyService.
func NewSafetyService(
	alertRepo repository.SafetyAlertRepository,
	contactRepo repository.TrustedContactRepository,
	contactRegistrar repository.EmergencyContactRegistrar,
	verificationRepo repository.RideVerificationRepository,
	rideRepo repository.RideRepository,
	bookingRepo repository.BookingRepository,
	userRepo repository.UserRepository,
	messageRepo repository.MessageRepository,
	rewardRepo repository.RewardRepository,
	notifier ContactNotifier,
	events EventPublisher,
) *SafetyService {
	return &SafetyService{
		alertRepo:        alertRepo,
		contactRepo:      contactRepo,
		contactRegistrar: contactRegistrar,
		verificationRepo: verificationRepo,
		rideRepo:         rideRepo,
		bookingRepo:      bookingRepo,
		userRepo:         userRepo,
		messageRepo:      messageRepo,
		rewardRepo:       rewardRepo,
		notifier:         notifier,
		events:           events,
	}
}

// CreateAlertRequest contains the parameters for raising a safety alert.
type CreateAlertRequest struct {
	UserID      string
	RideID      string
	AlertType   domain.AlertType
	Details     string
	Latitude    float64
	Longitude   float64
	HasLocation bool
}

// CreateAlert raises a safety alert on a ride. The alert row is the source
// of truth; escalation (messages, contact notification, the broadcast
// event) is best-effort and never rolls the alert back.
func (s *SafetyService) CreateAlert(ctx context.Context, req CreateAlertRequest) (*domain.SafetyAlert, error) {
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if !domain.ValidAlertType(req.AlertType) {
		return nil, ErrInvalidAlertType
	}
	if req.HasLocation && (req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180) {
		return nil, ErrInvalidCoordinates
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	reporter, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	alert := &domain.SafetyAlert{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		RideID:      req.RideID,
		AlertType:   req.AlertType,
		Details:     req.Details,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		HasLocation: req.HasLocation,
		Status:      domain.AlertStatusActive,
		CreatedAt:   time.Now(),
	}
	if err := s.alertRepo.Create(ctx, alert); err != nil {
		return nil, err
	}

	s.escalate(ctx, alert, ride, reporter)

	return alert, nil
}

// escalate notifies the ride's other participants, the reporter's trusted
// contacts for emergencies, and every ride channel subscriber.
func (s *SafetyService) escalate(ctx context.Context, alert *domain.SafetyAlert, ride *domain.Ride, reporter *domain.User) {
	content := alertMessage(alert.AlertType, reporter.DisplayName())

	for _, recipientID := range s.counterparties(ctx, ride, reporter.ID) {
		s.sendMessage(ctx, reporter.ID, recipientID, ride.ID, content)
	}

	if alert.AlertType == domain.AlertTypeEmergency {
		s.notifyTrustedContacts(ctx, alert, reporter)
		s.sendMessage(ctx, reporter.ID, reporter.ID, ride.ID,
			"Your emergency alert was received. Our safety team has been notified and will follow up shortly.")
	}

	s.events.Publish(bus.RideChannel(ride.ID), bus.NewSafetyAlert(bus.SafetyAlertData{
		AlertID:   alert.ID,
		RideID:    alert.RideID,
		UserID:    alert.UserID,
		AlertType: string(alert.AlertType),
		Status:    string(alert.Status),
		Message:   content,
	}))
}

// counterparties returns the other participants of the ride: the confirmed
// passengers when the reporter drives, otherwise the driver.
func (s *SafetyService) counterparties(ctx context.Context, ride *domain.Ride, reporterID string) []string {
	if ride.DriverID != reporterID {
		return []string{ride.DriverID}
	}

	bookings, err := s.bookingRepo.ListByRide(ctx, ride.ID)
	if err != nil {
		return nil
	}
	var ids []string
	for _, b := range bookings {
		if b.Status == domain.BookingStatusConfirmed {
			ids = append(ids, b.UserID)
		}
	}
	return ids
}

// notifyTrustedContacts delivers the emergency to each of the reporter's
// contacts. A failed delivery skips to the next contact; the alert itself
// is already recorded.
func (s *SafetyService) notifyTrustedContacts(ctx context.Context, alert *domain.SafetyAlert, reporter *domain.User) {
	contacts, err := s.contactRepo.ListByUser(ctx, reporter.ID)
	if err != nil {
		return
	}
	for _, contact := range contacts {
		_ = s.notifier.NotifyEmergency(ctx, contact, alert, reporter)
	}
}

func alertMessage(t domain.AlertType, reporterName string) string {
	switch t {
	case domain.AlertTypeEmergency:
		return fmt.Sprintf("EMERGENCY ALERT: %s has triggered an emergency alert on your ride.", reporterName)
	case domain.AlertTypeSafetyCheck:
		return fmt.Sprintf("%s has requested a safety check on your ride.", reporterName)
	case domain.AlertTypeLocationDeviation:
		return fmt.Sprintf("%s reported that the ride has deviated from its planned route.", reporterName)
	case domain.AlertTypeDelayedArrival:
		return fmt.Sprintf("%s reported a delayed arrival on your ride.", reporterName)
	case domain.AlertTypeBehavioralConcern:
		return fmt.Sprintf("%s reported a behavioral concern on your ride.", reporterName)
	default:
		return fmt.Sprintf("%s raised a safety alert on your ride.", reporterName)
	}
}

// ResolveAlert moves an active alert to resolved or false_alarm. Only the
// reporter or the ride's driver may resolve.
func (s *SafetyService) ResolveAlert(ctx context.Context, alertID, resolverID string, status domain.AlertStatus) (*domain.SafetyAlert, error) {
	if alertID == "" {
		return nil, ErrInvalidRideID
	}
	if resolverID == "" {
		return nil, ErrInvalidUserID
	}
	if !status.Terminal() {
		return nil, ErrInvalidAlertStatus
	}

	alert, err := s.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.GetByID(ctx, alert.RideID)
	if err != nil {
		return nil, err
	}
	if resolverID != alert.UserID && resolverID != ride.DriverID {
		return nil, ErrNotAuthorized
	}

	resolved, err := s.alertRepo.Resolve(ctx, alertID, resolverID, status)
	if err != nil {
		if err == repository.ErrStatusConflict {
			return nil, ErrAlertAlreadyResolved
		}
		return nil, err
	}

	s.events.Publish(bus.RideChannel(ride.ID), bus.NewSafetyAlert(bus.SafetyAlertData{
		AlertID:   resolved.ID,
		RideID:    resolved.RideID,
		UserID:    resolved.UserID,
		AlertType: string(resolved.AlertType),
		Status:    string(resolved.Status),
		Message:   "The safety alert has been resolved.",
	}))

	return resolved, nil
}

// ListUserAlerts retrieves a user's alerts, newest first.
func (s *SafetyService) ListUserAlerts(ctx context.Context, userID string) ([]*domain.SafetyAlert, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.alertRepo.ListByUser(ctx, userID)
}

// AddContactRequest contains the parameters for adding a trusted contact.
type AddContactRequest struct {
	UserID             string
	Name               string
	Phone              string
	Email              string
	Relationship       string
	IsEmergencyContact bool
}

// AddTrustedContact registers a trusted contact. Flagging it as the
// emergency contact atomically demotes any previous one.
func (s *SafetyService) AddTrustedContact(ctx context.Context, req AddContactRequest) (*domain.TrustedContact, error) {
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Name == "" || req.Phone == "" {
		return nil, ErrInvalidContact
	}

	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, err
	}

	contact := &domain.TrustedContact{
		ID:                 uuid.New().String(),
		UserID:             req.UserID,
		Name:               req.Name,
		Phone:              req.Phone,
		Email:              req.Email,
		Relationship:       req.Relationship,
		IsEmergencyContact: req.IsEmergencyContact,
		CreatedAt:          time.Now(),
	}

	if req.IsEmergencyContact {
		if err := s.contactRegistrar.RegisterEmergencyContact(ctx, contact); err != nil {
			return nil, err
		}
	} else {
		if err := s.contactRepo.Create(ctx, contact); err != nil {
			return nil, err
		}
	}

	return contact, nil
}

// ListTrustedContacts retrieves a user's contacts.
func (s *SafetyService) ListTrustedContacts(ctx context.Context, userID string) ([]*domain.TrustedContact, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.contactRepo.ListByUser(ctx, userID)
}

// GenerateVerificationCode issues a six-digit pickup code for a booked
// passenger. Codes expire after thirty minutes and are single-use.
func (s *SafetyService) GenerateVerificationCode(ctx context.Context, rideID, passengerID string) (*domain.RideVerification, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if passengerID == "" {
		return nil, ErrInvalidUserID
	}

	if _, err := s.rideRepo.GetByID(ctx, rideID); err != nil {
		return nil, err
	}
	hasBooking, err := s.bookingRepo.HasActiveBooking(ctx, passengerID, rideID)
	if err != nil {
		return nil, err
	}
	if !hasBooking {
		return nil, ErrNotAuthorized
	}

	verification := &domain.RideVerification{
		ID:          uuid.New().String(),
		RideID:      rideID,
		PassengerID: passengerID,
		Code:        fmt.Sprintf("%06d", rand.Intn(1000000)),
		GeneratedAt: time.Now(),
	}
	if err := s.verificationRepo.Create(ctx, verification); err != nil {
		return nil, err
	}

	return verification, nil
}

// ConfirmVerificationCode checks a pickup code presented by the driver and
// rewards the passenger on success.
func (s *SafetyService) ConfirmVerificationCode(ctx context.Context, rideID, code string) (*domain.RideVerification, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if !verificationCodePattern.MatchString(code) {
		return nil, ErrInvalidVerificationCode
	}

	verification, err := s.verificationRepo.Confirm(ctx, rideID, code, time.Now().Add(-verificationCodeTTL))
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrVerificationFailed
		}
		return nil, err
	}

	reward := &domain.Reward{
		ID:          uuid.New().String(),
		UserID:      verification.PassengerID,
		Type:        domain.RewardTypeSafetyVerification,
		Points:      verificationRewardPoints,
		Description: "Points earned for verifying your ride",
		ExpiryDate:  time.Now().Add(verificationRewardExpiry),
		CreatedAt:   time.Now(),
	}
	if err := s.rewardRepo.Create(ctx, reward); err == nil {
		_ = s.userRepo.AddPoints(ctx, verification.PassengerID, reward.Points)
	}
	s.events.Publish(bus.UserChannel(verification.PassengerID),
		bus.NewNotification(fmt.Sprintf("Ride verified. You earned %d points!", verificationRewardPoints)))

	return verification, nil
}

func (s *SafetyService) sendMessage(ctx context.Context, senderID, receiverID, rideID, content string) {
	_ = s.messageRepo.Create(ctx, &domain.Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		RideID:     rideID,
		CreatedAt:  time.Now(),
	})
	s.events.Publish(bus.UserChannel(receiverID), bus.NewNotification(content))
}
