package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"carpool/internal/bus"
	"carpool/internal/domain"
	"carpool/internal/service"
)

type rideFixture struct {
	rides     *MockRideRepository
	bookings  *MockBookingRepository
	admission *MockAdmissionRepository
	users     *MockUserRepository
	messages  *MockMessageRepository
	cache     *MockCacheStore
	location  *MockLocationStore
	events    *RecordingPublisher
	service   *service.RideService
}

func newRideFixture() *rideFixture {
	f := &rideFixture{
		rides:    NewMockRideRepository(),
		bookings: NewMockBookingRepository(),
		users:    NewMockUserRepository(),
		messages: NewMockMessageRepository(),
		cache:    NewMockCacheStore(),
		location: NewMockLocationStore(),
		events:   NewRecordingPublisher(),
	}
	f.admission = NewMockAdmissionRepository(f.rides, f.bookings)
	f.service = service.NewRideService(
		f.rides, f.bookings, f.admission, f.users, f.messages, f.cache, f.location, f.events)
	return f
}

func (f *rideFixture) addRide(id string, status domain.RideStatus) *domain.Ride {
	ride := &domain.Ride{
		ID:             id,
		DriverID:       "driver-1",
		Origin:         "Munich",
		Destination:    "Stuttgart",
		DepartureTime:  time.Now().Add(12 * time.Hour),
		SeatsTotal:     3,
		SeatsAvailable: 3,
		Status:         status,
		Price:          18,
	}
	f.rides.AddRide(ride)
	f.users.AddUser(&domain.User{ID: "driver-1", Username: "driver"})
	return ride
}

func TestCreateRide_Valid(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.users.AddUser(&domain.User{ID: "driver-1", Username: "driver"})

	ride, err := f.service.CreateRide(context.Background(), service.CreateRideRequest{
		DriverID:      "driver-1",
		Origin:        "Munich",
		Destination:   "Stuttgart",
		DepartureTime: time.Now().Add(time.Hour),
		Seats:         3,
		Price:         18,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ride.Status != domain.RideStatusPending {
		t.Errorf("status = %s, want pending", ride.Status)
	}
	if ride.SeatsAvailable != 3 || ride.SeatsTotal != 3 {
		t.Errorf("seats = %d/%d, want 3/3", ride.SeatsAvailable, ride.SeatsTotal)
	}
}

func TestCreateRide_Validation(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.users.AddUser(&domain.User{ID: "driver-1", Username: "driver"})

	base := service.CreateRideRequest{
		DriverID:      "driver-1",
		Origin:        "Munich",
		Destination:   "Stuttgart",
		DepartureTime: time.Now().Add(time.Hour),
		Seats:         3,
		Price:         18,
	}

	tests := []struct {
		name    string
		mutate  func(*service.CreateRideRequest)
		wantErr error
	}{
		{"empty driver", func(r *service.CreateRideRequest) { r.DriverID = "" }, service.ErrInvalidUserID},
		{"empty origin", func(r *service.CreateRideRequest) { r.Origin = "" }, service.ErrInvalidOrigin},
		{"long origin", func(r *service.CreateRideRequest) { r.Origin = string(make([]byte, 101)) }, service.ErrInvalidOrigin},
		{"empty destination", func(r *service.CreateRideRequest) { r.Destination = "" }, service.ErrInvalidDestination},
		{"past departure", func(r *service.CreateRideRequest) { r.DepartureTime = time.Now().Add(-time.Minute) }, service.ErrDepartureNotFuture},
		{"zero seats", func(r *service.CreateRideRequest) { r.Seats = 0 }, service.ErrInvalidSeatCount},
		{"too many seats", func(r *service.CreateRideRequest) { r.Seats = 9 }, service.ErrInvalidSeatCount},
		{"negative price", func(r *service.CreateRideRequest) { r.Price = -1 }, service.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			if _, err := f.service.CreateRide(context.Background(), req); err != tt.wantErr {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestStartRide_FromPendingAndFull(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.RideStatus{domain.RideStatusPending, domain.RideStatusFull} {
		t.Run(string(status), func(t *testing.T) {
			f := newRideFixture()
			f.addRide("ride-1", status)

			ride, err := f.service.StartRide(context.Background(), "ride-1", "driver-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ride.Status != domain.RideStatusInProgress {
				t.Errorf("status = %s, want in_progress", ride.Status)
			}

			events := f.events.EventsOfType(bus.TypeRideStatus)
			if len(events) != 1 {
				t.Fatalf("ride_status events = %d, want 1", len(events))
			}
		})
	}
}

func TestStartRide_RejectsNonDriver(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.addRide("ride-1", domain.RideStatusPending)

	if _, err := f.service.StartRide(context.Background(), "ride-1", "someone-else"); err != service.ErrNotRideDriver {
		t.Errorf("expected ErrNotRideDriver, got %v", err)
	}
}

func TestStartRide_RejectsTerminalStates(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.RideStatus{
		domain.RideStatusInProgress,
		domain.RideStatusCompleted,
		domain.RideStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newRideFixture()
			f.addRide("ride-1", status)

			if _, err := f.service.StartRide(context.Background(), "ride-1", "driver-1"); err != service.ErrRideNotStartable {
				t.Errorf("expected ErrRideNotStartable, got %v", err)
			}
		})
	}
}

func TestCompleteRide_CreditsParticipants(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.addRide("ride-1", domain.RideStatusInProgress)
	f.users.AddUser(&domain.User{ID: "user-1", Username: "alice"})
	f.bookings.AddBooking(&domain.Booking{
		ID: "booking-1", RideID: "ride-1", UserID: "user-1",
		Seats: 1, Status: domain.BookingStatusConfirmed,
	})

	ride, err := f.service.CompleteRide(context.Background(), "ride-1", "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.Status != domain.RideStatusCompleted {
		t.Errorf("status = %s, want completed", ride.Status)
	}

	if got := f.users.GetUser("driver-1").TotalRides; got != 1 {
		t.Errorf("driver total rides = %d, want 1", got)
	}
	if got := f.users.GetUser("user-1").TotalRides; got != 1 {
		t.Errorf("passenger total rides = %d, want 1", got)
	}
}

func TestCompleteRide_RequiresInProgress(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.addRide("ride-1", domain.RideStatusPending)

	if _, err := f.service.CompleteRide(context.Background(), "ride-1", "driver-1"); err != service.ErrRideNotInProgress {
		t.Errorf("expected ErrRideNotInProgress, got %v", err)
	}
}

func TestCancelRide_CancelsBookingsAndNotifies(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.addRide("ride-1", domain.RideStatusPending)
	f.users.AddUser(&domain.User{ID: "user-1", Username: "alice"})
	f.users.AddUser(&domain.User{ID: "user-2", Username: "bob"})
	f.bookings.AddBooking(&domain.Booking{
		ID: "booking-1", RideID: "ride-1", UserID: "user-1",
		Seats: 1, Status: domain.BookingStatusConfirmed,
	})
	f.bookings.AddBooking(&domain.Booking{
		ID: "booking-2", RideID: "ride-1", UserID: "user-2",
		Seats: 2, Status: domain.BookingStatusConfirmed,
	})

	ride, err := f.service.CancelRide(context.Background(), "ride-1", "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.Status != domain.RideStatusCancelled {
		t.Errorf("status = %s, want cancelled", ride.Status)
	}

	for _, bookingID := range []string{"booking-1", "booking-2"} {
		b, _ := f.bookings.GetByID(context.Background(), bookingID)
		if b.Status != domain.BookingStatusCancelled {
			t.Errorf("%s status = %s, want cancelled", bookingID, b.Status)
		}
		if b.PaymentStatus != domain.PaymentStatusRefunded {
			t.Errorf("%s payment = %s, want refunded", bookingID, b.PaymentStatus)
		}
	}

	// Each passenger gets a durable message.
	if msgs := f.messages.MessagesTo("user-1"); len(msgs) != 1 {
		t.Errorf("user-1 messages = %d, want 1", len(msgs))
	}
	if msgs := f.messages.MessagesTo("user-2"); len(msgs) != 1 {
		t.Errorf("user-2 messages = %d, want 1", len(msgs))
	}
}

func TestCancelRide_BookingCascadeFailureLeavesRideUntouched(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.addRide("ride-1", domain.RideStatusPending)
	f.users.AddUser(&domain.User{ID: "user-1", Username: "alice"})
	f.bookings.AddBooking(&domain.Booking{
		ID: "booking-1", RideID: "ride-1", UserID: "user-1",
		Seats: 1, Status: domain.BookingStatusConfirmed,
	})
	f.bookings.CancelByRideError = errors.New("connection reset")

	if _, err := f.service.CancelRide(context.Background(), "ride-1", "driver-1"); err == nil {
		t.Fatal("expected cancellation to fail")
	}

	// The ride transition and the booking cascade commit together, so the
	// failed cascade must not leave a cancelled ride with live bookings.
	if got := f.rides.GetRide("ride-1").Status; got != domain.RideStatusPending {
		t.Errorf("ride status = %s, want pending after rollback", got)
	}
	b, _ := f.bookings.GetByID(context.Background(), "booking-1")
	if b.Status != domain.BookingStatusConfirmed {
		t.Errorf("booking status = %s, want confirmed after rollback", b.Status)
	}
	if msgs := f.messages.MessagesTo("user-1"); len(msgs) != 0 {
		t.Errorf("messages = %d, want 0 after rollback", len(msgs))
	}
}

func TestCancelRide_RejectsTerminal(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.RideStatus{domain.RideStatusCompleted, domain.RideStatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			f := newRideFixture()
			f.addRide("ride-1", status)

			if _, err := f.service.CancelRide(context.Background(), "ride-1", "driver-1"); err != service.ErrRideNotCancellable {
				t.Errorf("expected ErrRideNotCancellable, got %v", err)
			}
		})
	}
}

func TestListActiveRides_MergesDrivingAndRiding(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.addRide("ride-driving", domain.RideStatusPending)
	f.rides.AddRide(&domain.Ride{
		ID: "ride-booked", DriverID: "driver-2", Origin: "Leipzig", Destination: "Dresden",
		DepartureTime: time.Now().Add(6 * time.Hour),
		SeatsTotal:    3, SeatsAvailable: 2, Status: domain.RideStatusPending, Price: 9,
	})
	f.rides.AddRide(&domain.Ride{
		ID: "ride-done", DriverID: "driver-3", Origin: "Kiel", Destination: "Lübeck",
		DepartureTime: time.Now().Add(-24 * time.Hour),
		SeatsTotal:    3, SeatsAvailable: 2, Status: domain.RideStatusCompleted, Price: 7,
	})
	f.bookings.AddBooking(&domain.Booking{
		ID: "booking-1", RideID: "ride-booked", UserID: "driver-1",
		Seats: 1, Status: domain.BookingStatusConfirmed,
	})
	// Terminal rides never show up, even with a confirmed booking.
	f.bookings.AddBooking(&domain.Booking{
		ID: "booking-2", RideID: "ride-done", UserID: "driver-1",
		Seats: 1, Status: domain.BookingStatusConfirmed,
	})

	rides, err := f.service.ListActiveRides(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := make(map[string]bool, len(rides))
	for _, r := range rides {
		ids[r.ID] = true
	}
	if len(rides) != 2 || !ids["ride-driving"] || !ids["ride-booked"] {
		t.Errorf("active rides = %v, want [ride-driving ride-booked]", ids)
	}
}

func TestGetRideDetails_CountsConfirmedSeatsOnly(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.addRide("ride-1", domain.RideStatusPending)
	f.bookings.AddBooking(&domain.Booking{
		ID: "booking-1", RideID: "ride-1", UserID: "user-1",
		Seats: 2, Status: domain.BookingStatusConfirmed,
	})
	f.bookings.AddBooking(&domain.Booking{
		ID: "booking-2", RideID: "ride-1", UserID: "user-2",
		Seats: 1, Status: domain.BookingStatusCancelled,
	})

	details, err := f.service.GetRideDetails(context.Background(), "ride-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Passengers != 2 {
		t.Errorf("passengers = %d, want 2", details.Passengers)
	}
	if len(details.Bookings) != 2 {
		t.Errorf("bookings = %d, want 2", len(details.Bookings))
	}
}
