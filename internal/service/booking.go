package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"carpool/internal/bus"
	"carpool/internal/domain"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

const (
	// bookingRewardPoints is granted for every confirmed booking.
	bookingRewardPoints = 10
	// bookingRewardExpiry is how long booking points remain redeemable.
	bookingRewardExpiry = 30 * 24 * time.Hour
)

// BookingService admits passengers onto rides. Admission serializes per
// ride behind a Redis lock and commits the seat reservation and the booking
// row in one transaction, so overselling is impossible even under
// concurrent requests for the last seat.
type BookingService struct {
	admissionRepo repository.AdmissionRepository
	rideRepo      repository.RideRepository
	bookingRepo   repository.BookingRepository
	userRepo      repository.UserRepository
	rewardRepo    repository.RewardRepository
	messageRepo   repository.MessageRepository
	lockStore     redis.LockStoreInterface
	cacheStore    redis.CacheStoreInterface
	events        EventPublisher

	lockTTL  time.Duration
	lockWait time.Duration
}

// NewBookingService creates a new BookingService. lockTTL bounds how long a
// crashed admission can hold a ride; lockWait is the per-attempt budget for
// waiting on a contended ride.
func NewBookingService(
	admissionRepo repository.AdmissionRepository,
	rideRepo repository.RideRepository,
	bookingRepo repository.BookingRepository,
	userRepo repository.UserRepository,
	rewardRepo repository.RewardRepository,
	messageRepo repository.MessageRepository,
	lockStore redis.LockStoreInterface,
	cacheStore redis.CacheStoreInterface,
	events EventPublisher,
	lockTTL, lockWait time.Duration,
) *BookingService {
	return &BookingService{
		admissionRepo: admissionRepo,
		rideRepo:      rideRepo,
		bookingRepo:   bookingRepo,
		userRepo:      userRepo,
		rewardRepo:    rewardRepo,
		messageRepo:   messageRepo,
		lockStore:     lockStore,
		cacheStore:    cacheStore,
		events:        events,
		lockTTL:       lockTTL,
		lockWait:      lockWait,
	}
}

// BookRideRequest contains the parameters for booking seats on a ride.
type BookRideRequest struct {
	RideID          string
	UserID          string
	Seats           int
	SpecialRequests string
	PickupLocation  string
	DropoffLocation string
}

// BookRide books seats on a ride. The precondition checks run on a
// snapshot; the authoritative seat check happens inside the reservation
// transaction. A contended ride is retried once before reporting busy.
func (s *BookingService) BookRide(ctx context.Context, req BookRideRequest) (*domain.Booking, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Seats < 1 {
		return nil, ErrInvalidSeatsRequested
	}

	if err := s.precheck(ctx, req); err != nil {
		return nil, err
	}

	booking, err := s.admit(ctx, req)
	if err == ErrRideBusy {
		booking, err = s.admit(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	s.afterBooking(ctx, booking)
	return booking, nil
}

// precheck rejects obviously doomed requests before taking the admission
// lock. Every check here is re-validated transactionally by ReserveAndBook
// or is stable for the request's lifetime.
func (s *BookingService) precheck(ctx context.Context, req BookRideRequest) error {
	ride, err := s.snapshotRide(ctx, req.RideID)
	if err != nil {
		return err
	}

	if ride.DriverID == req.UserID {
		return ErrOwnRideBooking
	}
	switch ride.Status {
	case domain.RideStatusPending:
	case domain.RideStatusFull:
		return &SeatsUnavailableError{SeatsLeft: ride.SeatsAvailable}
	default:
		return ErrRideNotBookable
	}
	if !ride.DepartureTime.IsZero() && !ride.DepartureTime.After(time.Now()) {
		return ErrRideDeparted
	}
	if req.Seats > ride.SeatsAvailable {
		return &SeatsUnavailableError{SeatsLeft: ride.SeatsAvailable}
	}

	hasBooking, err := s.bookingRepo.HasActiveBooking(ctx, req.UserID, req.RideID)
	if err != nil {
		return err
	}
	if hasBooking {
		return ErrDuplicateBooking
	}

	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return err
	}

	return nil
}

// admit serializes on the per-ride lock and runs the reservation
// transaction.
func (s *BookingService) admit(ctx context.Context, req BookRideRequest) (*domain.Booking, error) {
	acquired, err := s.lockStore.AcquireRideLockWait(ctx, req.RideID, s.lockTTL, s.lockWait)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrRideBusy
	}
	defer func() {
		_ = s.lockStore.ReleaseRideLock(ctx, req.RideID)
	}()

	booking := &domain.Booking{
		ID:              uuid.New().String(),
		RideID:          req.RideID,
		UserID:          req.UserID,
		Seats:           req.Seats,
		Status:          domain.BookingStatusConfirmed,
		PaymentStatus:   domain.PaymentStatusPending,
		SpecialRequests: req.SpecialRequests,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		CreatedAt:       time.Now(),
	}

	ride, err := s.admissionRepo.ReserveAndBook(ctx, booking)
	if err != nil {
		if err == repository.ErrSeatsUnavailable {
			return nil, s.seatsUnavailable(ctx, req.RideID)
		}
		return nil, err
	}

	s.invalidateRideCache(ctx, req.RideID)
	if ride.Status == domain.RideStatusFull {
		s.events.Publish(bus.RideChannel(ride.ID), bus.NewRideStatus(ride.ID, string(ride.Status)))
	}

	return booking, nil
}

// afterBooking runs the post-commit side effects: the loyalty reward, the
// driver's message and the notification events. All best-effort; the
// booking is already durable.
func (s *BookingService) afterBooking(ctx context.Context, booking *domain.Booking) {
	reward := &domain.Reward{
		ID:          uuid.New().String(),
		UserID:      booking.UserID,
		Type:        domain.RewardTypeBooking,
		Points:      bookingRewardPoints,
		Description: "Points earned for booking a ride",
		ExpiryDate:  time.Now().Add(bookingRewardExpiry),
		CreatedAt:   time.Now(),
	}
	if err := s.rewardRepo.Create(ctx, reward); err == nil {
		_ = s.userRepo.AddPoints(ctx, booking.UserID, reward.Points)
	}

	ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
	if err != nil {
		return
	}

	passengerName := booking.UserID
	if passenger, err := s.userRepo.GetByID(ctx, booking.UserID); err == nil {
		passengerName = passenger.DisplayName()
	}

	content := fmt.Sprintf("%s booked %d seat(s) on your ride from %s to %s.",
		passengerName, booking.Seats, ride.Origin, ride.Destination)
	_ = s.messageRepo.Create(ctx, &domain.Message{
		ID:         uuid.New().String(),
		SenderID:   booking.UserID,
		ReceiverID: ride.DriverID,
		Content:    content,
		RideID:     ride.ID,
		CreatedAt:  time.Now(),
	})
	s.events.Publish(bus.UserChannel(ride.DriverID), bus.NewNotification(content))
	s.events.Publish(bus.UserChannel(booking.UserID),
		bus.NewNotification(fmt.Sprintf("Booking confirmed for %s to %s. You earned %d points!",
			ride.Origin, ride.Destination, bookingRewardPoints)))
}

// CancelBooking cancels the caller's booking and returns its seats to the
// ride. Not allowed once the ride is underway.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	if booking.Status == domain.BookingStatusCancelled {
		return nil, ErrBookingAlreadyCancelled
	}

	ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusPending && ride.Status != domain.RideStatusFull {
		return nil, ErrBookingNotCancellable
	}

	acquired, err := s.lockStore.AcquireRideLockWait(ctx, booking.RideID, s.lockTTL, s.lockWait)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrRideBusy
	}
	defer func() {
		_ = s.lockStore.ReleaseRideLock(ctx, booking.RideID)
	}()

	cancelled, updatedRide, err := s.admissionRepo.CancelAndRelease(ctx, bookingID)
	if err != nil {
		if err == repository.ErrStatusConflict {
			return nil, ErrBookingAlreadyCancelled
		}
		return nil, err
	}

	s.invalidateRideCache(ctx, booking.RideID)
	if ride.Status == domain.RideStatusFull && updatedRide.Status == domain.RideStatusPending {
		s.events.Publish(bus.RideChannel(updatedRide.ID), bus.NewRideStatus(updatedRide.ID, string(updatedRide.Status)))
	}

	passengerName := userID
	if passenger, err := s.userRepo.GetByID(ctx, userID); err == nil {
		passengerName = passenger.DisplayName()
	}
	content := fmt.Sprintf("%s cancelled their booking (%d seat(s)) on your ride from %s to %s.",
		passengerName, cancelled.Seats, ride.Origin, ride.Destination)
	_ = s.messageRepo.Create(ctx, &domain.Message{
		ID:         uuid.New().String(),
		SenderID:   userID,
		ReceiverID: ride.DriverID,
		Content:    content,
		RideID:     ride.ID,
		CreatedAt:  time.Now(),
	})
	s.events.Publish(bus.UserChannel(ride.DriverID), bus.NewNotification(content))

	return cancelled, nil
}

// GetBooking retrieves a booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	return s.bookingRepo.GetByID(ctx, bookingID)
}

// ListUserBookings retrieves a user's bookings, newest first.
func (s *BookingService) ListUserBookings(ctx context.Context, userID string) ([]*domain.Booking, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.bookingRepo.ListByUser(ctx, userID)
}

// snapshotRide reads the ride from cache, falling back to the repository.
func (s *BookingService) snapshotRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetRide(ctx, rideID); err == nil && cached != nil {
			return &domain.Ride{
				ID:             cached.ID,
				DriverID:       cached.DriverID,
				Origin:         cached.Origin,
				Destination:    cached.Destination,
				Status:         domain.RideStatus(cached.Status),
				SeatsTotal:     cached.SeatsTotal,
				SeatsAvailable: cached.SeatsAvailable,
				Price:          cached.Price,
			}, nil
		}
	}
	return s.rideRepo.GetByID(ctx, rideID)
}

// seatsUnavailable builds the rejection carrying the live seat count.
func (s *BookingService) seatsUnavailable(ctx context.Context, rideID string) error {
	seatsLeft := 0
	if ride, err := s.rideRepo.GetByID(ctx, rideID); err == nil {
		seatsLeft = ride.SeatsAvailable
	}
	return &SeatsUnavailableError{SeatsLeft: seatsLeft}
}

func (s *BookingService) invalidateRideCache(ctx context.Context, rideID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateRide(ctx, rideID)
}
