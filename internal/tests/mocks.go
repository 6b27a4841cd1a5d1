package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"carpool/internal/bus"
	"carpool/internal/domain"
	"carpool/internal/eta"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	AddPointsCallCount           int32
	IncrementTotalRidesCallCount int32

	// Error injection
	CreateError    error
	AddPointsError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		copy := *u
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockUserRepository) AddPoints(ctx context.Context, userID string, points int) error {
	atomic.AddInt32(&m.AddPointsCallCount, 1)
	if m.AddPointsError != nil {
		return m.AddPointsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Points += points
	return nil
}

func (m *MockUserRepository) IncrementTotalRides(ctx context.Context, userID string) error {
	atomic.AddInt32(&m.IncrementTotalRidesCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.TotalRides++
	return nil
}

func (m *MockUserRepository) SetEmergencyContact(ctx context.Context, userID, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.EmergencyContactID = contactID
	return nil
}

// GetUser returns a user for test assertions.
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. Seat
// operations replicate the conditional-update semantics of the real store:
// check and mutation happen under one lock.
type MockRideRepository struct {
	mu    sync.Mutex
	rides map[string]*domain.Ride

	// Counters for verification
	ReserveSeatsCallCount int32
	ReleaseSeatsCallCount int32

	// Error injection
	ReserveSeatsError error
	TransitionError   error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Ride, 0, len(m.rides))
	for _, r := range m.rides {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockRideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Ride
	for _, r := range m.rides {
		if r.DriverID == driverID && !r.Status.Terminal() {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRideRepository) ReserveSeats(ctx context.Context, rideID string, seats int) (*domain.Ride, error) {
	atomic.AddInt32(&m.ReserveSeatsCallCount, 1)
	if m.ReserveSeatsError != nil {
		return nil, m.ReserveSeatsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if ride.Status != domain.RideStatusPending || ride.SeatsAvailable < seats {
		return nil, repository.ErrSeatsUnavailable
	}
	ride.SeatsAvailable -= seats
	if ride.SeatsAvailable == 0 {
		ride.Status = domain.RideStatusFull
	}
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) ReleaseSeats(ctx context.Context, rideID string, seats int) (*domain.Ride, error) {
	atomic.AddInt32(&m.ReleaseSeatsCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if ride.Status != domain.RideStatusPending && ride.Status != domain.RideStatusFull {
		return nil, repository.ErrStatusConflict
	}
	ride.SeatsAvailable += seats
	if ride.SeatsAvailable > ride.SeatsTotal {
		ride.SeatsAvailable = ride.SeatsTotal
	}
	if ride.Status == domain.RideStatusFull && ride.SeatsAvailable > 0 {
		ride.Status = domain.RideStatusPending
	}
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) TransitionStatus(ctx context.Context, rideID string, from []domain.RideStatus, to domain.RideStatus) (*domain.Ride, error) {
	if m.TransitionError != nil {
		return nil, m.TransitionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	allowed := false
	for _, f := range from {
		if ride.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, repository.ErrStatusConflict
	}
	ride.Status = to
	copy := *ride
	return &copy, nil
}

// GetRide returns a ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rides[id]
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*domain.Booking

	// Error injection
	CreateError       error
	CancelByRideError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			copy := *b
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockBookingRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if b.RideID == rideID {
			copy := *b
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockBookingRepository) HasActiveBooking(ctx context.Context, userID, rideID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.UserID == userID && b.RideID == rideID && b.Status != domain.BookingStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockBookingRepository) Cancel(ctx context.Context, bookingID string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[bookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if booking.Status == domain.BookingStatusCancelled {
		return nil, repository.ErrStatusConflict
	}
	booking.Status = domain.BookingStatusCancelled
	booking.PaymentStatus = domain.PaymentStatusRefunded
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) CancelByRide(ctx context.Context, rideID string) ([]*domain.Booking, error) {
	if m.CancelByRideError != nil {
		return nil, m.CancelByRideError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if b.RideID == rideID && b.Status == domain.BookingStatusConfirmed {
			b.Status = domain.BookingStatusCancelled
			b.PaymentStatus = domain.PaymentStatusRefunded
			copy := *b
			result = append(result, &copy)
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK ADMISSION REPOSITORY
// ──────────────────────────────────────────────

// MockAdmissionRepository couples the mock ride and booking repositories
// the way the transactional store couples its tables. The seat gate is the
// ride repository's atomic ReserveSeats.
type MockAdmissionRepository struct {
	Rides    *MockRideRepository
	Bookings *MockBookingRepository

	// Counters for verification
	ReserveAndBookCallCount int32

	// Error injection
	ReserveAndBookError error
}

// NewMockAdmissionRepository creates a new mock admission repository.
func NewMockAdmissionRepository(rides *MockRideRepository, bookings *MockBookingRepository) *MockAdmissionRepository {
	return &MockAdmissionRepository{
		Rides:    rides,
		Bookings: bookings,
	}
}

func (m *MockAdmissionRepository) ReserveAndBook(ctx context.Context, booking *domain.Booking) (*domain.Ride, error) {
	atomic.AddInt32(&m.ReserveAndBookCallCount, 1)
	if m.ReserveAndBookError != nil {
		return nil, m.ReserveAndBookError
	}
	ride, err := m.Rides.ReserveSeats(ctx, booking.RideID, booking.Seats)
	if err != nil {
		return nil, err
	}
	if err := m.Bookings.Create(ctx, booking); err != nil {
		// Undo the reservation like a rollback would.
		_, _ = m.Rides.ReleaseSeats(ctx, booking.RideID, booking.Seats)
		return nil, err
	}
	return ride, nil
}

func (m *MockAdmissionRepository) CancelAndRelease(ctx context.Context, bookingID string) (*domain.Booking, *domain.Ride, error) {
	booking, err := m.Bookings.Cancel(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	ride, err := m.Rides.ReleaseSeats(ctx, booking.RideID, booking.Seats)
	if err != nil {
		return nil, nil, err
	}
	return booking, ride, nil
}

func (m *MockAdmissionRepository) CancelRideCascade(ctx context.Context, rideID string) (*domain.Ride, []*domain.Booking, error) {
	before, err := m.Rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, nil, err
	}
	ride, err := m.Rides.TransitionStatus(ctx, rideID,
		[]domain.RideStatus{domain.RideStatusPending, domain.RideStatusFull, domain.RideStatusInProgress},
		domain.RideStatusCancelled)
	if err != nil {
		return nil, nil, err
	}
	bookings, err := m.Bookings.CancelByRide(ctx, rideID)
	if err != nil {
		// Undo the transition like a rollback would.
		_, _ = m.Rides.TransitionStatus(ctx, rideID,
			[]domain.RideStatus{domain.RideStatusCancelled}, before.Status)
		return nil, nil, err
	}
	return ride, bookings, nil
}

// ──────────────────────────────────────────────
// MOCK REWARD AND MESSAGE REPOSITORIES
// ──────────────────────────────────────────────

// MockRewardRepository is a mock implementation of RewardRepository.
type MockRewardRepository struct {
	mu      sync.Mutex
	rewards []*domain.Reward

	// Error injection
	CreateError error
}

// NewMockRewardRepository creates a new mock reward repository.
func NewMockRewardRepository() *MockRewardRepository {
	return &MockRewardRepository{}
}

func (m *MockRewardRepository) Create(ctx context.Context, reward *domain.Reward) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *reward
	m.rewards = append(m.rewards, &copy)
	return nil
}

func (m *MockRewardRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Reward
	for _, r := range m.rewards {
		if r.UserID == userID {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

// Rewards returns all stored rewards for test assertions.
func (m *MockRewardRepository) Rewards() []*domain.Reward {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Reward(nil), m.rewards...)
}

// MockMessageRepository is a mock implementation of MessageRepository.
type MockMessageRepository struct {
	mu       sync.Mutex
	messages []*domain.Message

	// Error injection
	CreateError error
}

// NewMockMessageRepository creates a new mock message repository.
func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{}
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *message
	m.messages = append(m.messages, &copy)
	return nil
}

func (m *MockMessageRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Message
	for _, msg := range m.messages {
		if msg.SenderID == userID || msg.ReceiverID == userID {
			copy := *msg
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, messageID, receiverID string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == messageID && msg.ReceiverID == receiverID {
			msg.IsRead = true
			copy := *msg
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockMessageRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, msg := range m.messages {
		if msg.ReceiverID == userID && !msg.IsRead {
			count++
		}
	}
	return count, nil
}

// MessagesTo returns messages delivered to a receiver for test assertions.
func (m *MockMessageRepository) MessagesTo(receiverID string) []*domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Message
	for _, msg := range m.messages {
		if msg.ReceiverID == receiverID {
			copy := *msg
			result = append(result, &copy)
		}
	}
	return result
}

// ──────────────────────────────────────────────
// MOCK SAFETY REPOSITORIES
// ──────────────────────────────────────────────

// MockSafetyAlertRepository is a mock implementation of SafetyAlertRepository.
type MockSafetyAlertRepository struct {
	mu     sync.Mutex
	alerts map[string]*domain.SafetyAlert

	// Error injection
	CreateError error
}

// NewMockSafetyAlertRepository creates a new mock alert repository.
func NewMockSafetyAlertRepository() *MockSafetyAlertRepository {
	return &MockSafetyAlertRepository{
		alerts: make(map[string]*domain.SafetyAlert),
	}
}

// AddAlert adds an alert to the mock repository.
func (m *MockSafetyAlertRepository) AddAlert(alert *domain.SafetyAlert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[alert.ID] = alert
}

func (m *MockSafetyAlertRepository) Create(ctx context.Context, alert *domain.SafetyAlert) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[alert.ID] = alert
	return nil
}

func (m *MockSafetyAlertRepository) GetByID(ctx context.Context, id string) (*domain.SafetyAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert, ok := m.alerts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *alert
	return &copy, nil
}

func (m *MockSafetyAlertRepository) ListByUser(ctx context.Context, userID string) ([]*domain.SafetyAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.SafetyAlert
	for _, a := range m.alerts {
		if a.UserID == userID {
			copy := *a
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockSafetyAlertRepository) Resolve(ctx context.Context, alertID, resolvedBy string, status domain.AlertStatus) (*domain.SafetyAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert, ok := m.alerts[alertID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if alert.Status != domain.AlertStatusActive {
		return nil, repository.ErrStatusConflict
	}
	alert.Status = status
	alert.ResolvedBy = resolvedBy
	alert.ResolvedAt = time.Now()
	copy := *alert
	return &copy, nil
}

// MockTrustedContactRepository is a mock implementation of
// TrustedContactRepository and EmergencyContactRegistrar.
type MockTrustedContactRepository struct {
	mu       sync.Mutex
	contacts map[string]*domain.TrustedContact
	users    *MockUserRepository
}

// NewMockTrustedContactRepository creates a new mock contact repository.
// users may be nil when registrar behavior is not under test.
func NewMockTrustedContactRepository(users *MockUserRepository) *MockTrustedContactRepository {
	return &MockTrustedContactRepository{
		contacts: make(map[string]*domain.TrustedContact),
		users:    users,
	}
}

func (m *MockTrustedContactRepository) Create(ctx context.Context, contact *domain.TrustedContact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *contact
	m.contacts[contact.ID] = &copy
	return nil
}

func (m *MockTrustedContactRepository) ListByUser(ctx context.Context, userID string) ([]*domain.TrustedContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.TrustedContact
	for _, c := range m.contacts {
		if c.UserID == userID {
			copy := *c
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockTrustedContactRepository) ClearEmergencyFlag(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.UserID == userID {
			c.IsEmergencyContact = false
		}
	}
	return nil
}

func (m *MockTrustedContactRepository) RegisterEmergencyContact(ctx context.Context, contact *domain.TrustedContact) error {
	if err := m.ClearEmergencyFlag(ctx, contact.UserID); err != nil {
		return err
	}
	if err := m.Create(ctx, contact); err != nil {
		return err
	}
	if m.users != nil {
		return m.users.SetEmergencyContact(ctx, contact.UserID, contact.ID)
	}
	return nil
}

// GetContact returns a contact for test assertions.
func (m *MockTrustedContactRepository) GetContact(id string) *domain.TrustedContact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contacts[id]
}

// MockRideVerificationRepository is a mock implementation of
// RideVerificationRepository.
type MockRideVerificationRepository struct {
	mu            sync.Mutex
	verifications []*domain.RideVerification
}

// NewMockRideVerificationRepository creates a new mock verification
// repository.
func NewMockRideVerificationRepository() *MockRideVerificationRepository {
	return &MockRideVerificationRepository{}
}

func (m *MockRideVerificationRepository) Create(ctx context.Context, v *domain.RideVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *v
	m.verifications = append(m.verifications, &copy)
	return nil
}

func (m *MockRideVerificationRepository) Confirm(ctx context.Context, rideID, code string, notBefore time.Time) (*domain.RideVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var newest *domain.RideVerification
	for _, v := range m.verifications {
		if v.RideID == rideID && v.Code == code && !v.Verified && !v.GeneratedAt.Before(notBefore) {
			if newest == nil || v.GeneratedAt.After(newest.GeneratedAt) {
				newest = v
			}
		}
	}
	if newest == nil {
		return nil, repository.ErrNotFound
	}
	newest.Verified = true
	newest.VerifiedAt = time.Now()
	copy := *newest
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK REDIS STORES
// ──────────────────────────────────────────────

// MockLockStore is an in-memory implementation of LockStoreInterface with
// SETNX semantics.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// AlwaysBusy makes every acquire attempt fail, simulating a ride held
	// by another process.
	AlwaysBusy bool

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.AlwaysBusy {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[rideID] {
		return false, nil
	}
	m.locks[rideID] = true
	return true, nil
}

func (m *MockLockStore) AcquireRideLockWait(ctx context.Context, rideID string, ttl, maxWait time.Duration) (bool, error) {
	deadline := time.Now().Add(maxWait)
	for {
		ok, err := m.AcquireRideLock(ctx, rideID, ttl)
		if err != nil || ok {
			return ok, err
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (m *MockLockStore) ReleaseRideLock(ctx context.Context, rideID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, rideID)
	return nil
}

// MockLocationStore is an in-memory implementation of
// LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.Mutex
	locations map[string]*redis.RideLocation

	// Error injection
	SetError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string]*redis.RideLocation),
	}
}

func (m *MockLocationStore) SetRideLocation(ctx context.Context, rideID string, loc *redis.RideLocation) error {
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *loc
	m.locations[rideID] = &copy
	return nil
}

func (m *MockLocationStore) GetRideLocation(ctx context.Context, rideID string) (*redis.RideLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc, ok := m.locations[rideID]
	if !ok {
		return nil, nil
	}
	copy := *loc
	return &copy, nil
}

func (m *MockLocationStore) RemoveRideLocation(ctx context.Context, rideID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, rideID)
	return nil
}

// MockCacheStore is an in-memory implementation of CacheStoreInterface.
type MockCacheStore struct {
	mu    sync.Mutex
	rides map[string]*redis.CachedRide

	// Counters for verification
	InvalidateCallCount int32
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		rides: make(map[string]*redis.CachedRide),
	}
}

func (m *MockCacheStore) GetRide(ctx context.Context, rideID string) (*redis.CachedRide, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return nil, nil
	}
	copy := *ride
	return &copy, nil
}

func (m *MockCacheStore) SetRide(ctx context.Context, ride *redis.CachedRide) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockCacheStore) InvalidateRide(ctx context.Context, rideID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rides, rideID)
	return nil
}

// ──────────────────────────────────────────────
// RECORDING EVENT PUBLISHER
// ──────────────────────────────────────────────

// PublishedEvent is one recorded bus publication.
type PublishedEvent struct {
	Channel string
	Event   bus.Event
	Global  bool
}

// RecordingPublisher records every published event for assertions.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// NewRecordingPublisher creates a new RecordingPublisher.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(channel string, event bus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{Channel: channel, Event: event})
}

func (p *RecordingPublisher) PublishGlobal(event bus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{Event: event, Global: true})
}

// Events returns all recorded publications.
func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.events...)
}

// EventsOfType returns recorded publications with the given event type.
func (p *RecordingPublisher) EventsOfType(t bus.Type) []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var result []PublishedEvent
	for _, e := range p.events {
		if e.Event.EventType() == t {
			result = append(result, e)
		}
	}
	return result
}

// ──────────────────────────────────────────────
// MOCK ESTIMATOR AND CONTACT NOTIFIER
// ──────────────────────────────────────────────

// MockEstimator returns a fixed estimate.
type MockEstimator struct {
	Result eta.Estimate
}

func (m *MockEstimator) Estimate(ride *domain.Ride, now time.Time) eta.Estimate {
	return m.Result
}

// MockContactNotifier records emergency notifications.
type MockContactNotifier struct {
	mu       sync.Mutex
	notified []string // contact IDs in delivery order

	// Error injection
	NotifyError error
}

// NewMockContactNotifier creates a new mock contact notifier.
func NewMockContactNotifier() *MockContactNotifier {
	return &MockContactNotifier{}
}

func (m *MockContactNotifier) NotifyEmergency(ctx context.Context, contact *domain.TrustedContact, alert *domain.SafetyAlert, reporter *domain.User) error {
	m.mu.Lock()
	m.notified = append(m.notified, contact.ID)
	m.mu.Unlock()
	return m.NotifyError
}

// Notified returns the contact IDs notified, in order.
func (m *MockContactNotifier) Notified() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.notified...)
}
