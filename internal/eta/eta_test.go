package eta

import (
	"math"
	"testing"
	"time"

	"carpool/internal/domain"
)

func TestScheduleEstimatorProgress(t *testing.T) {
	t.Parallel()

	est := NewScheduleEstimator()
	departure := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ride := &domain.Ride{
		DepartureTime:     departure,
		EstimatedDuration: "40 min",
	}

	tests := []struct {
		name         string
		now          time.Time
		wantProgress int
	}{
		{"before departure", departure.Add(-10 * time.Minute), 0},
		{"at departure", departure, 0},
		{"halfway", departure.Add(20 * time.Minute), 50},
		{"done", departure.Add(40 * time.Minute), 100},
		{"past arrival clamps", departure.Add(2 * time.Hour), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := est.Estimate(ride, tt.now)
			if got.Progress != tt.wantProgress {
				t.Errorf("progress = %d, want %d", got.Progress, tt.wantProgress)
			}
		})
	}
}

func TestScheduleEstimatorArrival(t *testing.T) {
	t.Parallel()

	est := NewScheduleEstimator()
	departure := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ride := &domain.Ride{
		DepartureTime:     departure,
		EstimatedDuration: "1 hour 30 min",
	}

	got := est.Estimate(ride, departure)
	want := departure.Add(90 * time.Minute)
	if !got.Arrival.Equal(want) {
		t.Errorf("arrival = %v, want %v", got.Arrival, want)
	}
	if got.Remaining != "1 hr 30 min" {
		t.Errorf("remaining = %q, want %q", got.Remaining, "1 hr 30 min")
	}
}

func TestScheduleEstimatorUnparseableDuration(t *testing.T) {
	t.Parallel()

	est := NewScheduleEstimator()
	departure := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ride := &domain.Ride{
		DepartureTime:     departure,
		EstimatedDuration: "unknown",
	}

	// Falls back to the 30 minute default.
	got := est.Estimate(ride, departure.Add(15*time.Minute))
	if got.Progress != 50 {
		t.Errorf("progress = %d, want 50", got.Progress)
	}
}

func TestHaversineKm(t *testing.T) {
	t.Parallel()

	// Paris to London, roughly 344 km.
	d := HaversineKm(48.8566, 2.3522, 51.5074, -0.1278)
	if math.Abs(d-344) > 5 {
		t.Errorf("distance = %.1f km, want ~344 km", d)
	}

	if d := HaversineKm(10, 20, 10, 20); d != 0 {
		t.Errorf("zero distance = %f, want 0", d)
	}
}
