package tests

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"carpool/internal/bus"
	"carpool/internal/domain"
	"carpool/internal/service"
)

type safetyFixture struct {
	alerts        *MockSafetyAlertRepository
	contacts      *MockTrustedContactRepository
	verifications *MockRideVerificationRepository
	rides         *MockRideRepository
	bookings      *MockBookingRepository
	users         *MockUserRepository
	messages      *MockMessageRepository
	rewards       *MockRewardRepository
	notifier      *MockContactNotifier
	events        *RecordingPublisher
	service       *service.SafetyService
}

func newSafetyFixture() *safetyFixture {
	f := &safetyFixture{
		alerts:        NewMockSafetyAlertRepository(),
		verifications: NewMockRideVerificationRepository(),
		rides:         NewMockRideRepository(),
		bookings:      NewMockBookingRepository(),
		users:         NewMockUserRepository(),
		messages:      NewMockMessageRepository(),
		rewards:       NewMockRewardRepository(),
		notifier:      NewMockContactNotifier(),
		events:        NewRecordingPublisher(),
	}
	f.contacts = NewMockTrustedContactRepository(f.users)
	f.service = service.NewSafetyService(
		f.alerts, f.contacts, f.contacts, f.verifications,
		f.rides, f.bookings, f.users, f.messages, f.rewards,
		f.notifier, f.events)
	return f
}

// seedRide adds an in-progress ride with one confirmed passenger.
func (f *safetyFixture) seedRide() {
	f.rides.AddRide(&domain.Ride{
		ID:             "ride-1",
		DriverID:       "driver-1",
		Origin:         "Cologne",
		Destination:    "Frankfurt",
		DepartureTime:  time.Now().Add(-time.Hour),
		SeatsTotal:     3,
		SeatsAvailable: 2,
		Status:         domain.RideStatusInProgress,
		Price:          20,
	})
	f.users.AddUser(&domain.User{ID: "driver-1", Username: "driver", FullName: "Dana Driver"})
	f.users.AddUser(&domain.User{ID: "passenger-1", Username: "passenger", FullName: "Pat Passenger"})
	f.bookings.AddBooking(&domain.Booking{
		ID: "booking-1", RideID: "ride-1", UserID: "passenger-1",
		Seats: 1, Status: domain.BookingStatusConfirmed,
	})
}

func TestCreateAlert_RejectsUnknownType(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()

	_, err := f.service.CreateAlert(context.Background(), service.CreateAlertRequest{
		UserID:    "passenger-1",
		RideID:    "ride-1",
		AlertType: "shenanigans",
	})
	if err != service.ErrInvalidAlertType {
		t.Errorf("expected ErrInvalidAlertType, got %v", err)
	}
}

func TestCreateAlert_PassengerReporterMessagesDriver(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()

	alert, err := f.service.CreateAlert(context.Background(), service.CreateAlertRequest{
		UserID:    "passenger-1",
		RideID:    "ride-1",
		AlertType: domain.AlertTypeSafetyCheck,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert.Status != domain.AlertStatusActive {
		t.Errorf("status = %s, want active", alert.Status)
	}

	msgs := f.messages.MessagesTo("driver-1")
	if len(msgs) != 1 {
		t.Fatalf("driver messages = %d, want 1", len(msgs))
	}
	want := "Pat Passenger has requested a safety check on your ride."
	if msgs[0].Content != want {
		t.Errorf("message = %q, want %q", msgs[0].Content, want)
	}

	// Ride channel subscribers always hear about the alert.
	if events := f.events.EventsOfType(bus.TypeSafetyAlert); len(events) != 1 {
		t.Errorf("safety_alert events = %d, want 1", len(events))
	}
}

func TestCreateAlert_DriverReporterMessagesPassengers(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()

	if _, err := f.service.CreateAlert(context.Background(), service.CreateAlertRequest{
		UserID:    "driver-1",
		RideID:    "ride-1",
		AlertType: domain.AlertTypeDelayedArrival,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msgs := f.messages.MessagesTo("passenger-1"); len(msgs) != 1 {
		t.Errorf("passenger messages = %d, want 1", len(msgs))
	}
	if msgs := f.messages.MessagesTo("driver-1"); len(msgs) != 0 {
		t.Errorf("driver messages = %d, want 0", len(msgs))
	}
}

func TestCreateAlert_EmergencyNotifiesTrustedContacts(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()
	f.contacts.Create(context.Background(), &domain.TrustedContact{
		ID: "contact-1", UserID: "passenger-1", Name: "Mom", Phone: "+4915100000001",
	})
	f.contacts.Create(context.Background(), &domain.TrustedContact{
		ID: "contact-2", UserID: "passenger-1", Name: "Roommate", Phone: "+4915100000002",
	})
	// Another user's contact must never be pulled in.
	f.contacts.Create(context.Background(), &domain.TrustedContact{
		ID: "contact-3", UserID: "driver-1", Name: "Brother", Phone: "+4915100000003",
	})

	if _, err := f.service.CreateAlert(context.Background(), service.CreateAlertRequest{
		UserID:    "passenger-1",
		RideID:    "ride-1",
		AlertType: domain.AlertTypeEmergency,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	notified := f.notifier.Notified()
	if len(notified) != 2 {
		t.Fatalf("contacts notified = %d, want 2", len(notified))
	}
	seen := map[string]bool{}
	for _, id := range notified {
		if seen[id] {
			t.Errorf("contact %s notified more than once", id)
		}
		seen[id] = true
	}
	if seen["contact-3"] {
		t.Error("notified a contact belonging to another user")
	}

	// The reporter gets the safety-team follow-up message.
	msgs := f.messages.MessagesTo("passenger-1")
	if len(msgs) != 1 {
		t.Fatalf("reporter messages = %d, want 1", len(msgs))
	}
}

func TestCreateAlert_EmergencySurvivesNotifierFailure(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()
	f.contacts.Create(context.Background(), &domain.TrustedContact{
		ID: "contact-1", UserID: "passenger-1", Name: "Mom", Phone: "+4915100000001",
	})
	f.notifier.NotifyError = errors.New("sms gateway down")

	alert, err := f.service.CreateAlert(context.Background(), service.CreateAlertRequest{
		UserID:    "passenger-1",
		RideID:    "ride-1",
		AlertType: domain.AlertTypeEmergency,
	})
	if err != nil {
		t.Fatalf("alert must survive notifier failure, got %v", err)
	}

	stored, _ := f.alerts.GetByID(context.Background(), alert.ID)
	if stored == nil || stored.Status != domain.AlertStatusActive {
		t.Error("alert was not recorded")
	}
	if events := f.events.EventsOfType(bus.TypeSafetyAlert); len(events) != 1 {
		t.Errorf("safety_alert events = %d, want 1", len(events))
	}
}

func TestResolveAlert_ByReporter(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()
	f.alerts.AddAlert(&domain.SafetyAlert{
		ID: "alert-1", UserID: "passenger-1", RideID: "ride-1",
		AlertType: domain.AlertTypeSafetyCheck, Status: domain.AlertStatusActive,
	})

	resolved, err := f.service.ResolveAlert(context.Background(), "alert-1", "passenger-1", domain.AlertStatusResolved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Status != domain.AlertStatusResolved {
		t.Errorf("status = %s, want resolved", resolved.Status)
	}
	if resolved.ResolvedBy != "passenger-1" {
		t.Errorf("resolved by = %s, want passenger-1", resolved.ResolvedBy)
	}
}

func TestResolveAlert_DriverMayMarkFalseAlarm(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()
	f.alerts.AddAlert(&domain.SafetyAlert{
		ID: "alert-1", UserID: "passenger-1", RideID: "ride-1",
		AlertType: domain.AlertTypeEmergency, Status: domain.AlertStatusActive,
	})

	resolved, err := f.service.ResolveAlert(context.Background(), "alert-1", "driver-1", domain.AlertStatusFalseAlarm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Status != domain.AlertStatusFalseAlarm {
		t.Errorf("status = %s, want false_alarm", resolved.Status)
	}
}

func TestResolveAlert_RejectsStranger(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()
	f.alerts.AddAlert(&domain.SafetyAlert{
		ID: "alert-1", UserID: "passenger-1", RideID: "ride-1",
		AlertType: domain.AlertTypeSafetyCheck, Status: domain.AlertStatusActive,
	})

	if _, err := f.service.ResolveAlert(context.Background(), "alert-1", "stranger", domain.AlertStatusResolved); err != service.ErrNotAuthorized {
		t.Errorf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestResolveAlert_RejectsRepeatResolution(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()
	f.alerts.AddAlert(&domain.SafetyAlert{
		ID: "alert-1", UserID: "passenger-1", RideID: "ride-1",
		AlertType: domain.AlertTypeSafetyCheck, Status: domain.AlertStatusActive,
	})

	if _, err := f.service.ResolveAlert(context.Background(), "alert-1", "passenger-1", domain.AlertStatusResolved); err != nil {
		t.Fatalf("first resolution failed: %v", err)
	}
	if _, err := f.service.ResolveAlert(context.Background(), "alert-1", "driver-1", domain.AlertStatusFalseAlarm); err != service.ErrAlertAlreadyResolved {
		t.Errorf("expected ErrAlertAlreadyResolved, got %v", err)
	}
}

func TestResolveAlert_RejectsNonTerminalTarget(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()
	f.alerts.AddAlert(&domain.SafetyAlert{
		ID: "alert-1", UserID: "passenger-1", RideID: "ride-1",
		AlertType: domain.AlertTypeSafetyCheck, Status: domain.AlertStatusActive,
	})

	if _, err := f.service.ResolveAlert(context.Background(), "alert-1", "passenger-1", domain.AlertStatusActive); err != service.ErrInvalidAlertStatus {
		t.Errorf("expected ErrInvalidAlertStatus, got %v", err)
	}
}

func TestAddTrustedContact_EmergencyDemotesPrevious(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.users.AddUser(&domain.User{ID: "user-1", Username: "alice"})

	first, err := f.service.AddTrustedContact(context.Background(), service.AddContactRequest{
		UserID: "user-1", Name: "Mom", Phone: "+4915100000001", IsEmergencyContact: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.service.AddTrustedContact(context.Background(), service.AddContactRequest{
		UserID: "user-1", Name: "Roommate", Phone: "+4915100000002", IsEmergencyContact: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.contacts.GetContact(first.ID).IsEmergencyContact {
		t.Error("first contact kept the emergency flag after demotion")
	}
	if !f.contacts.GetContact(second.ID).IsEmergencyContact {
		t.Error("second contact is missing the emergency flag")
	}
	if got := f.users.GetUser("user-1").EmergencyContactID; got != second.ID {
		t.Errorf("user emergency contact = %s, want %s", got, second.ID)
	}
}

func TestAddTrustedContact_RequiresNameAndPhone(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.users.AddUser(&domain.User{ID: "user-1", Username: "alice"})

	if _, err := f.service.AddTrustedContact(context.Background(), service.AddContactRequest{
		UserID: "user-1", Name: "", Phone: "+4915100000001",
	}); err != service.ErrInvalidContact {
		t.Errorf("expected ErrInvalidContact for missing name, got %v", err)
	}
	if _, err := f.service.AddTrustedContact(context.Background(), service.AddContactRequest{
		UserID: "user-1", Name: "Mom", Phone: "",
	}); err != service.ErrInvalidContact {
		t.Errorf("expected ErrInvalidContact for missing phone, got %v", err)
	}
}

func TestGenerateVerificationCode_RequiresActiveBooking(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()

	if _, err := f.service.GenerateVerificationCode(context.Background(), "ride-1", "driver-1"); err != service.ErrNotAuthorized {
		t.Errorf("expected ErrNotAuthorized without booking, got %v", err)
	}
}

func TestGenerateVerificationCode_IssuesSixDigits(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()

	v, err := f.service.GenerateVerificationCode(context.Background(), "ride-1", "passenger-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !regexp.MustCompile(`^\d{6}$`).MatchString(v.Code) {
		t.Errorf("code = %q, want six digits", v.Code)
	}
	if v.Verified {
		t.Error("fresh code must not be verified")
	}
}

func TestConfirmVerificationCode_RewardsPassengerOnce(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()

	issued, err := f.service.GenerateVerificationCode(context.Background(), "ride-1", "passenger-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	confirmed, err := f.service.ConfirmVerificationCode(context.Background(), "ride-1", issued.Code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !confirmed.Verified {
		t.Error("confirmed code not marked verified")
	}

	rewards := f.rewards.Rewards()
	if len(rewards) != 1 {
		t.Fatalf("rewards = %d, want 1", len(rewards))
	}
	if rewards[0].Points != 10 || rewards[0].Type != domain.RewardTypeSafetyVerification {
		t.Errorf("reward = %d points type %s, want 10 points safety_verification", rewards[0].Points, rewards[0].Type)
	}
	if got := f.users.GetUser("passenger-1").Points; got != 10 {
		t.Errorf("passenger points = %d, want 10", got)
	}

	// A code is single-use.
	if _, err := f.service.ConfirmVerificationCode(context.Background(), "ride-1", issued.Code); err != service.ErrVerificationFailed {
		t.Errorf("expected ErrVerificationFailed on reuse, got %v", err)
	}
}

func TestConfirmVerificationCode_RejectsExpiredCode(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()
	f.verifications.Create(context.Background(), &domain.RideVerification{
		ID:          "verification-1",
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Code:        "123456",
		GeneratedAt: time.Now().Add(-31 * time.Minute),
	})

	if _, err := f.service.ConfirmVerificationCode(context.Background(), "ride-1", "123456"); err != service.ErrVerificationFailed {
		t.Errorf("expected ErrVerificationFailed for stale code, got %v", err)
	}
}

func TestConfirmVerificationCode_RejectsMalformedCode(t *testing.T) {
	t.Parallel()

	f := newSafetyFixture()
	f.seedRide()

	for _, code := range []string{"", "12345", "1234567", "12345a"} {
		if _, err := f.service.ConfirmVerificationCode(context.Background(), "ride-1", code); err != service.ErrInvalidVerificationCode {
			t.Errorf("code %q: expected ErrInvalidVerificationCode, got %v", code, err)
		}
	}
}
