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

// RideService handles the ride lifecycle: creation, start, completion and
// driver-side cancellation.
type RideService struct {
	rideRepo      repository.RideRepository
	bookingRepo   repository.BookingRepository
	admissionRepo repository.AdmissionRepository
	userRepo      repository.UserRepository
	messageRepo   repository.MessageRepository
	cacheStore    redis.CacheStoreInterface
	locationStore redis.LocationStoreInterface
	events        EventPublisher
}

// NewRideService creates a new RideService.
func NewRideService(
	rideRepo repository.RideRepository,
	bookingRepo repository.BookingRepository,
	admissionRepo repository.AdmissionRepository,
	userRepo repository.UserRepository,
	messageRepo repository.MessageRepository,
	cacheStore redis.CacheStoreInterface,
	locationStore redis.LocationStoreInterface,
	events EventPublisher,
) *RideService {
	return &RideService{
		rideRepo:      rideRepo,
		bookingRepo:   bookingRepo,
		admissionRepo: admissionRepo,
		userRepo:      userRepo,
		messageRepo:   messageRepo,
		cacheStore:    cacheStore,
		locationStore: locationStore,
		events:        events,
	}
}

// CreateRideRequest contains the parameters for publishing a ride.
type CreateRideRequest struct {
	DriverID          string
	Origin            string
	Destination       string
	DepartureTime     time.Time
	Seats             int
	Price             float64
	CarModel          string
	CarColor          string
	LicensePlate      string
	Preferences       string
	RouteDetails      string
	EstimatedDuration string
}

// CreateRide validates and publishes a new ride in the pending state.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidUserID
	}
	if len(req.Origin) == 0 || len(req.Origin) > 100 {
		return nil, ErrInvalidOrigin
	}
	if len(req.Destination) == 0 || len(req.Destination) > 100 {
		return nil, ErrInvalidDestination
	}
	if !req.DepartureTime.After(time.Now()) {
		return nil, ErrDepartureNotFuture
	}
	if req.Seats < 1 || req.Seats > 8 {
		return nil, ErrInvalidSeatCount
	}
	if req.Price < 0 {
		return nil, ErrInvalidPrice
	}

	if _, err := s.userRepo.GetByID(ctx, req.DriverID); err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		ID:                uuid.New().String(),
		DriverID:          req.DriverID,
		Origin:            req.Origin,
		Destination:       req.Destination,
		DepartureTime:     req.DepartureTime,
		SeatsTotal:        req.Seats,
		SeatsAvailable:    req.Seats,
		Status:            domain.RideStatusPending,
		Price:             req.Price,
		CarModel:          req.CarModel,
		CarColor:          req.CarColor,
		LicensePlate:      req.LicensePlate,
		Preferences:       req.Preferences,
		RouteDetails:      req.RouteDetails,
		EstimatedDuration: req.EstimatedDuration,
		CreatedAt:         time.Now(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	return ride, nil
}

// GetRide retrieves a ride and refreshes its cache entry.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	s.refreshRideCache(ctx, ride)
	return ride, nil
}

// ListRides retrieves recent rides.
func (s *RideService) ListRides(ctx context.Context) ([]*domain.Ride, error) {
	return s.rideRepo.GetAll(ctx)
}

// ListActiveRides retrieves a user's non-terminal rides, both the ones they
// drive and the ones they hold an active booking on.
func (s *RideService) ListActiveRides(ctx context.Context, userID string) ([]*domain.Ride, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	rides, err := s.rideRepo.ListByDriver(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(rides))
	for _, r := range rides {
		seen[r.ID] = struct{}{}
	}

	bookings, err := s.bookingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		if b.Status == domain.BookingStatusCancelled {
			continue
		}
		if _, ok := seen[b.RideID]; ok {
			continue
		}
		ride, err := s.rideRepo.GetByID(ctx, b.RideID)
		if err != nil || ride.Status.Terminal() {
			continue
		}
		seen[ride.ID] = struct{}{}
		rides = append(rides, ride)
	}

	return rides, nil
}

// RideDetails is a ride together with its live coordination state.
type RideDetails struct {
	Ride       *domain.Ride
	Bookings   []*domain.Booking
	Passengers int
	Location   *redis.RideLocation
}

// GetRideDetails retrieves a ride with its bookings, confirmed passenger
// count and last known position.
func (s *RideService) GetRideDetails(ctx context.Context, rideID string) (*RideDetails, error) {
	ride, err := s.GetRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.ListByRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	passengers := 0
	for _, b := range bookings {
		if b.Status == domain.BookingStatusConfirmed {
			passengers += b.Seats
		}
	}

	// Position is optional; a cache error only hides it.
	location, _ := s.locationStore.GetRideLocation(ctx, rideID)

	return &RideDetails{
		Ride:       ride,
		Bookings:   bookings,
		Passengers: passengers,
		Location:   location,
	}, nil
}

// StartRide moves a pending or full ride to in_progress. Driver only.
func (s *RideService) StartRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	ride, err := s.authorizeDriver(ctx, rideID, driverID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusPending && ride.Status != domain.RideStatusFull {
		return nil, ErrRideNotStartable
	}

	updated, err := s.rideRepo.TransitionStatus(ctx, rideID,
		[]domain.RideStatus{domain.RideStatusPending, domain.RideStatusFull},
		domain.RideStatusInProgress)
	if err != nil {
		if err == repository.ErrStatusConflict {
			return nil, ErrRideNotStartable
		}
		return nil, err
	}

	s.invalidateRideCache(ctx, rideID)
	s.events.Publish(bus.RideChannel(rideID), bus.NewRideStatus(rideID, string(updated.Status)))
	s.notifyPassengers(ctx, updated,
		fmt.Sprintf("Your ride from %s to %s has started.", updated.Origin, updated.Destination))

	return updated, nil
}

// CompleteRide moves an in-progress ride to completed and credits ride
// counts to the driver and every confirmed passenger. Driver only.
func (s *RideService) CompleteRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if _, err := s.authorizeDriver(ctx, rideID, driverID); err != nil {
		return nil, err
	}

	updated, err := s.rideRepo.TransitionStatus(ctx, rideID,
		[]domain.RideStatus{domain.RideStatusInProgress},
		domain.RideStatusCompleted)
	if err != nil {
		if err == repository.ErrStatusConflict {
			return nil, ErrRideNotInProgress
		}
		return nil, err
	}

	// Ride-count credits are best-effort; the completion itself stands.
	_ = s.userRepo.IncrementTotalRides(ctx, updated.DriverID)
	bookings, err := s.bookingRepo.ListByRide(ctx, rideID)
	if err == nil {
		for _, b := range bookings {
			if b.Status == domain.BookingStatusConfirmed {
				_ = s.userRepo.IncrementTotalRides(ctx, b.UserID)
			}
		}
	}

	s.invalidateRideCache(ctx, rideID)
	_ = s.locationStore.RemoveRideLocation(ctx, rideID)
	s.events.Publish(bus.RideChannel(rideID), bus.NewRideStatus(rideID, string(updated.Status)))
	s.notifyPassengers(ctx, updated,
		fmt.Sprintf("Your ride from %s to %s is complete. Thanks for travelling with us!", updated.Origin, updated.Destination))

	return updated, nil
}

// CancelRide cancels a non-terminal ride, cancels and refunds all of its
// confirmed bookings, and notifies every affected passenger. Driver only.
func (s *RideService) CancelRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if _, err := s.authorizeDriver(ctx, rideID, driverID); err != nil {
		return nil, err
	}

	updated, cancelled, err := s.admissionRepo.CancelRideCascade(ctx, rideID)
	if err != nil {
		if err == repository.ErrStatusConflict {
			return nil, ErrRideNotCancellable
		}
		return nil, err
	}

	content := fmt.Sprintf("Your ride from %s to %s on %s was cancelled by the driver. Your payment will be refunded.",
		updated.Origin, updated.Destination, updated.DepartureTime.Format("Jan 2, 3:04 PM"))
	for _, b := range cancelled {
		s.sendMessage(ctx, updated.DriverID, b.UserID, rideID, content)
	}

	s.invalidateRideCache(ctx, rideID)
	_ = s.locationStore.RemoveRideLocation(ctx, rideID)
	s.events.Publish(bus.RideChannel(rideID), bus.NewRideStatus(rideID, string(updated.Status)))

	return updated, nil
}

// authorizeDriver loads the ride and checks the caller owns it.
func (s *RideService) authorizeDriver(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidUserID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverID {
		return nil, ErrNotRideDriver
	}
	return ride, nil
}

// notifyPassengers pushes a notification to each confirmed passenger's
// personal channel. Best-effort.
func (s *RideService) notifyPassengers(ctx context.Context, ride *domain.Ride, message string) {
	bookings, err := s.bookingRepo.ListByRide(ctx, ride.ID)
	if err != nil {
		return
	}
	for _, b := range bookings {
		if b.Status == domain.BookingStatusConfirmed {
			s.events.Publish(bus.UserChannel(b.UserID), bus.NewNotification(message))
		}
	}
}

func (s *RideService) sendMessage(ctx context.Context, senderID, receiverID, rideID, content string) {
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

func (s *RideService) refreshRideCache(ctx context.Context, ride *domain.Ride) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.SetRide(ctx, &redis.CachedRide{
		ID:             ride.ID,
		DriverID:       ride.DriverID,
		Origin:         ride.Origin,
		Destination:    ride.Destination,
		Status:         string(ride.Status),
		SeatsTotal:     ride.SeatsTotal,
		SeatsAvailable: ride.SeatsAvailable,
		Price:          ride.Price,
	})
}

func (s *RideService) invalidateRideCache(ctx context.Context, rideID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateRide(ctx, rideID)
}
