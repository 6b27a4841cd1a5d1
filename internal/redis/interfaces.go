package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for ride location snapshots.
type LocationStoreInterface interface {
	SetRideLocation(ctx context.Context, rideID string, loc *RideLocation) error
	GetRideLocation(ctx context.Context, rideID string) (*RideLocation, error)
	RemoveRideLocation(ctx context.Context, rideID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error)
	AcquireRideLockWait(ctx context.Context, rideID string, ttl, maxWait time.Duration) (bool, error)
	ReleaseRideLock(ctx context.Context, rideID string) error
}

// CacheStoreInterface defines the interface for ride caching.
type CacheStoreInterface interface {
	GetRide(ctx context.Context, rideID string) (*CachedRide, error)
	SetRide(ctx context.Context, ride *CachedRide) error
	InvalidateRide(ctx context.Context, rideID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ CacheStoreInterface    = (*CacheStore)(nil)
)
