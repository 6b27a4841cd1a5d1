package domain

import "time"

// User represents a rider or driver. Identity and authentication live in an
// external service; this core only keeps the fields it needs for rewards and
// safety escalation.
type User struct {
	ID                 string
	Username           string
	Email              string
	FullName           string
	Phone              string
	Points             int
	TotalRides         int
	EmergencyContactID string
	CreatedAt          time.Time
}

// DisplayName returns the name used in notification messages.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
