package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// RideCacheTTL is short because seat counts change during booking.
const RideCacheTTL = 10 * time.Second

const rideCachePrefix = "cache:ride:"

// CachedRide represents a cached ride entity.
type CachedRide struct {
	ID             string  `json:"id"`
	DriverID       string  `json:"driver_id"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	Status         string  `json:"status"`
	SeatsTotal     int     `json:"seats_total"`
	SeatsAvailable int     `json:"seats_available"`
	Price          float64 `json:"price"`
}

// GetRide retrieves a ride from cache.
func (s *CacheStore) GetRide(ctx context.Context, rideID string) (*CachedRide, error) {
	key := rideCachePrefix + rideID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var ride CachedRide
	if err := json.Unmarshal(data, &ride); err != nil {
		return nil, err
	}
	return &ride, nil
}

// SetRide stores a ride in cache.
func (s *CacheStore) SetRide(ctx context.Context, ride *CachedRide) error {
	key := rideCachePrefix + ride.ID
	data, err := json.Marshal(ride)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, RideCacheTTL).Err()
}

// InvalidateRide removes a ride from cache.
func (s *CacheStore) InvalidateRide(ctx context.Context, rideID string) error {
	key := rideCachePrefix + rideID
	return s.client.Del(ctx, key).Err()
}
