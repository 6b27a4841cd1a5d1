package service

import (
	"context"
	"time"

	"carpool/internal/bus"
	"carpool/internal/domain"
	"carpool/internal/eta"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

// LocationService ingests position reports for in-progress rides. Reports
// are last-write-wins: only the newest snapshot is retained, and every
// accepted report fans out a location and a recomputed ETA event.
type LocationService struct {
	rideRepo      repository.RideRepository
	locationStore redis.LocationStoreInterface
	estimator     eta.Estimator
	events        EventPublisher
}

// NewLocationService creates a new LocationService.
func NewLocationService(
	rideRepo repository.RideRepository,
	locationStore redis.LocationStoreInterface,
	estimator eta.Estimator,
	events EventPublisher,
) *LocationService {
	return &LocationService{
		rideRepo:      rideRepo,
		locationStore: locationStore,
		estimator:     estimator,
		events:        events,
	}
}

// ReportLocationRequest contains a single position report.
type ReportLocationRequest struct {
	RideID     string
	ReporterID string
	Latitude   float64
	Longitude  float64
}

// ReportLocation validates and stores a position report, then publishes the
// location and ETA events on the ride's channel.
func (s *LocationService) ReportLocation(ctx context.Context, req ReportLocationRequest) (*redis.RideLocation, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if req.ReporterID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return nil, ErrInvalidCoordinates
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusInProgress {
		return nil, ErrRideNotInProgress
	}

	now := time.Now()
	loc := &redis.RideLocation{
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		ReporterID: req.ReporterID,
		UpdatedAt:  now,
	}
	if err := s.locationStore.SetRideLocation(ctx, req.RideID, loc); err != nil {
		return nil, err
	}

	estimate := s.estimator.Estimate(ride, now)
	s.events.Publish(bus.RideChannel(req.RideID),
		bus.NewLocationUpdate(req.RideID, req.Latitude, req.Longitude, now, estimate.Progress))
	s.events.Publish(bus.RideChannel(req.RideID),
		bus.NewETAUpdate(req.RideID, estimate.Arrival.Format(time.RFC3339), estimate.Remaining))

	return loc, nil
}

// GetRideLocation retrieves the last reported position for a ride, or nil
// if none has been received.
func (s *LocationService) GetRideLocation(ctx context.Context, rideID string) (*redis.RideLocation, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if _, err := s.rideRepo.GetByID(ctx, rideID); err != nil {
		return nil, err
	}
	return s.locationStore.GetRideLocation(ctx, rideID)
}
