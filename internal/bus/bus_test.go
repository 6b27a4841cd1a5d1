package bus

import (
	"encoding/json"
	"sync"
	"testing"
)

// fakeSubscriber collects frames and can be told to refuse delivery.
type fakeSubscriber struct {
	mu     sync.Mutex
	frames [][]byte
	reject bool
	closed bool
}

func (s *fakeSubscriber) TrySend(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject {
		return false
	}
	s.frames = append(s.frames, frame)
	return true
}

func (s *fakeSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSubscriber) received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.frames...)
}

func (s *fakeSubscriber) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func TestPublish_NoSubscribers(t *testing.T) {
	t.Parallel()

	b := New()
	// Must not panic or block.
	b.Publish(RideChannel("ride-1"), NewRideStatus("ride-1", "in_progress"))
}

func TestPublish_FansOutToAllChannelSubscribers(t *testing.T) {
	t.Parallel()

	b := New()
	subs := []*fakeSubscriber{{}, {}, {}}
	for _, s := range subs {
		b.Subscribe(RideChannel("ride-1"), s)
	}

	b.Publish(RideChannel("ride-1"), NewRideStatus("ride-1", "full"))

	for i, s := range subs {
		frames := s.received()
		if len(frames) != 1 {
			t.Fatalf("subscriber %d frames = %d, want 1", i, len(frames))
		}
		var event RideStatus
		if err := json.Unmarshal(frames[0], &event); err != nil {
			t.Fatalf("subscriber %d got undecodable frame: %v", i, err)
		}
		if event.Type != TypeRideStatus || event.RideID != "ride-1" || event.Status != "full" {
			t.Errorf("subscriber %d event = %+v", i, event)
		}
	}
}

func TestPublish_ChannelsAreIsolated(t *testing.T) {
	t.Parallel()

	b := New()
	rideSub := &fakeSubscriber{}
	userSub := &fakeSubscriber{}
	b.Subscribe(RideChannel("ride-1"), rideSub)
	b.Subscribe(UserChannel("user-1"), userSub)

	b.Publish(RideChannel("ride-1"), NewRideStatus("ride-1", "in_progress"))

	if got := len(rideSub.received()); got != 1 {
		t.Errorf("ride subscriber frames = %d, want 1", got)
	}
	if got := len(userSub.received()); got != 0 {
		t.Errorf("user subscriber frames = %d, want 0", got)
	}
}

func TestPublish_EvictsAndClosesSlowSubscriber(t *testing.T) {
	t.Parallel()

	b := New()
	healthy := &fakeSubscriber{}
	slow := &fakeSubscriber{reject: true}
	b.Subscribe(RideChannel("ride-1"), healthy)
	b.Subscribe(RideChannel("ride-1"), slow)

	b.Publish(RideChannel("ride-1"), NewNotification("hello"))

	if !slow.isClosed() {
		t.Error("slow subscriber was not closed")
	}
	if got := b.SubscriberCount(RideChannel("ride-1")); got != 1 {
		t.Errorf("subscriber count = %d, want 1 after eviction", got)
	}

	// Healthy subscriber keeps receiving.
	b.Publish(RideChannel("ride-1"), NewNotification("again"))
	if got := len(healthy.received()); got != 2 {
		t.Errorf("healthy subscriber frames = %d, want 2", got)
	}
}

func TestSubscribe_DuplicateIsNoOp(t *testing.T) {
	t.Parallel()

	b := New()
	sub := &fakeSubscriber{}
	b.Subscribe(RideChannel("ride-1"), sub)
	b.Subscribe(RideChannel("ride-1"), sub)

	if got := b.SubscriberCount(RideChannel("ride-1")); got != 1 {
		t.Errorf("subscriber count = %d, want 1", got)
	}

	b.Publish(RideChannel("ride-1"), NewNotification("once"))
	if got := len(sub.received()); got != 1 {
		t.Errorf("frames = %d, want 1", got)
	}
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	t.Parallel()

	b := New()
	sub := &fakeSubscriber{}
	b.Subscribe(RideChannel("ride-1"), sub)
	b.Unsubscribe(RideChannel("ride-1"), sub)

	b.Publish(RideChannel("ride-1"), NewNotification("gone"))

	if got := len(sub.received()); got != 0 {
		t.Errorf("frames = %d, want 0 after unsubscribe", got)
	}
	if sub.isClosed() {
		t.Error("unsubscribe must not close the subscriber")
	}
}

func TestRemove_DetachesFromEveryChannel(t *testing.T) {
	t.Parallel()

	b := New()
	sub := &fakeSubscriber{}
	b.Subscribe(RideChannel("ride-1"), sub)
	b.Subscribe(UserChannel("user-1"), sub)

	b.Remove(sub)

	if !sub.isClosed() {
		t.Error("removed subscriber was not closed")
	}
	if got := b.SubscriberCount(RideChannel("ride-1")); got != 0 {
		t.Errorf("ride channel count = %d, want 0", got)
	}
	if got := b.SubscriberCount(UserChannel("user-1")); got != 0 {
		t.Errorf("user channel count = %d, want 0", got)
	}
}

func TestPublishGlobal_ReachesEveryChannel(t *testing.T) {
	t.Parallel()

	b := New()
	rideSub := &fakeSubscriber{}
	userSub := &fakeSubscriber{}
	b.Subscribe(RideChannel("ride-1"), rideSub)
	b.Subscribe(UserChannel("user-1"), userSub)

	b.PublishGlobal(NewNotification("maintenance tonight"))

	if got := len(rideSub.received()); got != 1 {
		t.Errorf("ride subscriber frames = %d, want 1", got)
	}
	if got := len(userSub.received()); got != 1 {
		t.Errorf("user subscriber frames = %d, want 1", got)
	}
}

func TestPublishGlobal_MultiChannelSubscriberReceivesOnce(t *testing.T) {
	t.Parallel()

	b := New()
	sub := &fakeSubscriber{}
	b.Subscribe(UserChannel("user-1"), sub)
	b.Subscribe(RideChannel("ride-1"), sub)
	b.Subscribe(RideChannel("ride-2"), sub)

	b.PublishGlobal(NewNotification("maintenance tonight"))

	if got := len(sub.received()); got != 1 {
		t.Errorf("frames = %d, want 1 regardless of channel count", got)
	}
}

func TestPublish_ConcurrentPublishersAndSubscribers(t *testing.T) {
	t.Parallel()

	b := New()
	sub := &fakeSubscriber{}
	b.Subscribe(RideChannel("ride-1"), sub)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Publish(RideChannel("ride-1"), NewNotification("tick"))
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			churn := &fakeSubscriber{}
			b.Subscribe(RideChannel("ride-1"), churn)
			b.Remove(churn)
		}()
	}
	wg.Wait()

	if got := len(sub.received()); got != 400 {
		t.Errorf("frames = %d, want 400", got)
	}
}
