package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LocationTTL bounds how long a stale position survives after reports stop.
const LocationTTL = 5 * time.Minute

// RideLocation is the latest reported position of an active ride.
type RideLocation struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ReporterID string    `json:"reporter_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LocationStore keeps the last known position of each active ride in Redis.
// Reports overwrite each other; only the newest snapshot is retained.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// SetRideLocation stores the latest position snapshot for a ride.
func (s *LocationStore) SetRideLocation(ctx context.Context, rideID string, loc *RideLocation) error {
	key := fmt.Sprintf("location:ride:%s", rideID)

	data, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, LocationTTL).Err()
}

// GetRideLocation retrieves the latest position snapshot for a ride.
// Returns nil when no report has been received.
func (s *LocationStore) GetRideLocation(ctx context.Context, rideID string) (*RideLocation, error) {
	key := fmt.Sprintf("location:ride:%s", rideID)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var loc RideLocation
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

// RemoveRideLocation drops the position snapshot once a ride ends.
func (s *LocationStore) RemoveRideLocation(ctx context.Context, rideID string) error {
	key := fmt.Sprintf("location:ride:%s", rideID)

	return s.client.Del(ctx, key).Err()
}
