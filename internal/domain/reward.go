package domain

import "time"

// RewardType classifies how reward points were earned.
type RewardType string

const (
	RewardTypeBooking            RewardType = "booking"
	RewardTypeSafetyVerification RewardType = "safety_verification"
)

// Reward is a loyalty-points grant with an expiry.
type Reward struct {
	ID          string
	UserID      string
	Type        RewardType
	Points      int
	Description string
	ExpiryDate  time.Time
	CreatedAt   time.Time
}
