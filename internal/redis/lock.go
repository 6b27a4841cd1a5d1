package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// lockPollInterval is how often a waiting acquirer re-checks the lock.
const lockPollInterval = 20 * time.Millisecond

// AcquireRideLock attempts to acquire the admission lock for the given ride.
// Returns true if the lock was acquired, false if already held. The TTL
// bounds how long a crashed holder can keep the ride locked.
func (s *LockStore) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:ride:%s", rideID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// AcquireRideLockWait acquires the ride lock, polling until it succeeds or
// maxWait elapses. Returns false when the wait budget runs out without the
// lock being freed.
func (s *LockStore) AcquireRideLockWait(ctx context.Context, rideID string, ttl, maxWait time.Duration) (bool, error) {
	deadline := time.Now().Add(maxWait)

	for {
		ok, err := s.AcquireRideLock(ctx, rideID, ttl)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

// ReleaseRideLock releases the admission lock for the given ride.
func (s *LockStore) ReleaseRideLock(ctx context.Context, rideID string) error {
	key := fmt.Sprintf("lock:ride:%s", rideID)

	return s.client.Del(ctx, key).Err()
}
