// Package eta derives trip progress and arrival estimates for active rides.
package eta

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"carpool/internal/domain"
)

// Estimate is a point-in-time view of how far along a ride is.
type Estimate struct {
	// Progress is 0-100, clamped.
	Progress int
	// Arrival is the projected arrival time.
	Arrival time.Time
	// Remaining is a human-readable remainder such as "12 min".
	Remaining string
}

// Estimator computes a trip estimate for a ride at a given instant.
type Estimator interface {
	Estimate(ride *domain.Ride, now time.Time) Estimate
}

// defaultTripDuration is assumed when a ride carries no parseable duration.
const defaultTripDuration = 30 * time.Minute

// ScheduleEstimator estimates progress from the published schedule: elapsed
// time since departure over the ride's estimated duration. It needs no
// external mapping provider.
type ScheduleEstimator struct{}

// NewScheduleEstimator creates a ScheduleEstimator.
func NewScheduleEstimator() *ScheduleEstimator {
	return &ScheduleEstimator{}
}

// Estimate implements Estimator.
func (e *ScheduleEstimator) Estimate(ride *domain.Ride, now time.Time) Estimate {
	duration := parseDuration(ride.EstimatedDuration)
	arrival := ride.DepartureTime.Add(duration)

	elapsed := now.Sub(ride.DepartureTime)
	progress := 0
	if duration > 0 {
		progress = int(float64(elapsed) / float64(duration) * 100)
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	remaining := arrival.Sub(now)
	if remaining < 0 {
		remaining = 0
	}

	return Estimate{
		Progress:  progress,
		Arrival:   arrival,
		Remaining: formatRemaining(remaining),
	}
}

// parseDuration understands values like "45 min", "1 hour", "1 hour 30 min"
// as published on rides. Unparseable values fall back to the default.
func parseDuration(s string) time.Duration {
	fields := strings.Fields(strings.ToLower(s))
	var total time.Duration

	for i := 0; i+1 < len(fields); i += 2 {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return defaultTripDuration
		}
		switch {
		case strings.HasPrefix(fields[i+1], "hour"), fields[i+1] == "h", fields[i+1] == "hr", fields[i+1] == "hrs":
			total += time.Duration(n) * time.Hour
		case strings.HasPrefix(fields[i+1], "min"), fields[i+1] == "m":
			total += time.Duration(n) * time.Minute
		default:
			return defaultTripDuration
		}
	}

	if total <= 0 {
		return defaultTripDuration
	}
	return total
}

func formatRemaining(d time.Duration) string {
	minutes := int(math.Ceil(d.Minutes()))
	if minutes < 1 {
		return "arriving"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d hr %d min", minutes/60, minutes%60)
}

// HaversineKm returns the great-circle distance between two points in
// kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0

	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
