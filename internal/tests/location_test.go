package tests

import (
	"context"
	"testing"
	"time"

	"carpool/internal/bus"
	"carpool/internal/domain"
	"carpool/internal/eta"
	"carpool/internal/service"
)

type locationFixture struct {
	rides     *MockRideRepository
	store     *MockLocationStore
	estimator *MockEstimator
	events    *RecordingPublisher
	service   *service.LocationService
}

func newLocationFixture() *locationFixture {
	f := &locationFixture{
		rides:     NewMockRideRepository(),
		store:     NewMockLocationStore(),
		estimator: &MockEstimator{Result: eta.Estimate{Progress: 40, Arrival: time.Now().Add(20 * time.Minute), Remaining: "20 min"}},
		events:    NewRecordingPublisher(),
	}
	f.service = service.NewLocationService(f.rides, f.store, f.estimator, f.events)
	return f
}

func (f *locationFixture) addRide(status domain.RideStatus) {
	f.rides.AddRide(&domain.Ride{
		ID:             "ride-1",
		DriverID:       "driver-1",
		Origin:         "Hamburg",
		Destination:    "Bremen",
		DepartureTime:  time.Now().Add(-30 * time.Minute),
		SeatsTotal:     3,
		SeatsAvailable: 2,
		Status:         status,
		Price:          12,
	})
}

func TestReportLocation_StoresSnapshotAndPublishes(t *testing.T) {
	t.Parallel()

	f := newLocationFixture()
	f.addRide(domain.RideStatusInProgress)

	loc, err := f.service.ReportLocation(context.Background(), service.ReportLocationRequest{
		RideID:     "ride-1",
		ReporterID: "driver-1",
		Latitude:   53.55,
		Longitude:  9.99,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Latitude != 53.55 || loc.Longitude != 9.99 {
		t.Errorf("location = (%v, %v), want (53.55, 9.99)", loc.Latitude, loc.Longitude)
	}

	stored, err := f.store.GetRideLocation(context.Background(), "ride-1")
	if err != nil || stored == nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	if stored.ReporterID != "driver-1" {
		t.Errorf("reporter = %s, want driver-1", stored.ReporterID)
	}

	locEvents := f.events.EventsOfType(bus.TypeLocationUpdate)
	if len(locEvents) != 1 {
		t.Fatalf("location events = %d, want 1", len(locEvents))
	}
	if locEvents[0].Channel != bus.RideChannel("ride-1") {
		t.Errorf("channel = %s, want %s", locEvents[0].Channel, bus.RideChannel("ride-1"))
	}
	update := locEvents[0].Event.(bus.LocationUpdate)
	if update.Progress != 40 {
		t.Errorf("progress = %d, want 40", update.Progress)
	}

	etaEvents := f.events.EventsOfType(bus.TypeETAUpdate)
	if len(etaEvents) != 1 {
		t.Fatalf("eta events = %d, want 1", len(etaEvents))
	}
	if got := etaEvents[0].Event.(bus.ETAUpdate).Duration; got != "20 min" {
		t.Errorf("duration = %q, want %q", got, "20 min")
	}
}

func TestReportLocation_LastWriteWins(t *testing.T) {
	t.Parallel()

	f := newLocationFixture()
	f.addRide(domain.RideStatusInProgress)

	reports := []service.ReportLocationRequest{
		{RideID: "ride-1", ReporterID: "driver-1", Latitude: 53.55, Longitude: 9.99},
		{RideID: "ride-1", ReporterID: "driver-1", Latitude: 53.40, Longitude: 9.70},
		{RideID: "ride-1", ReporterID: "driver-1", Latitude: 53.20, Longitude: 9.40},
	}
	for _, r := range reports {
		if _, err := f.service.ReportLocation(context.Background(), r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	stored, _ := f.store.GetRideLocation(context.Background(), "ride-1")
	if stored.Latitude != 53.20 || stored.Longitude != 9.40 {
		t.Errorf("snapshot = (%v, %v), want the last report (53.20, 9.40)", stored.Latitude, stored.Longitude)
	}
}

func TestReportLocation_RejectsOutOfRangeCoordinates(t *testing.T) {
	t.Parallel()

	f := newLocationFixture()
	f.addRide(domain.RideStatusInProgress)

	tests := []struct {
		name     string
		lat, lng float64
	}{
		{"latitude too high", 91, 0},
		{"latitude too low", -91, 0},
		{"longitude too high", 0, 181},
		{"longitude too low", 0, -181},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.ReportLocation(context.Background(), service.ReportLocationRequest{
				RideID: "ride-1", ReporterID: "driver-1", Latitude: tt.lat, Longitude: tt.lng,
			})
			if err != service.ErrInvalidCoordinates {
				t.Errorf("expected ErrInvalidCoordinates, got %v", err)
			}
		})
	}
}

func TestReportLocation_RequiresInProgressRide(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.RideStatus{
		domain.RideStatusPending,
		domain.RideStatusFull,
		domain.RideStatusCompleted,
		domain.RideStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newLocationFixture()
			f.addRide(status)

			_, err := f.service.ReportLocation(context.Background(), service.ReportLocationRequest{
				RideID: "ride-1", ReporterID: "driver-1", Latitude: 53.55, Longitude: 9.99,
			})
			if err != service.ErrRideNotInProgress {
				t.Errorf("expected ErrRideNotInProgress, got %v", err)
			}
		})
	}
}

func TestGetRideLocation_NilBeforeFirstReport(t *testing.T) {
	t.Parallel()

	f := newLocationFixture()
	f.addRide(domain.RideStatusInProgress)

	loc, err := f.service.GetRideLocation(context.Background(), "ride-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc != nil {
		t.Errorf("expected nil location before any report, got %+v", loc)
	}
}
