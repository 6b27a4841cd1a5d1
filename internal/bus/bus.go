package bus

import (
	"encoding/json"
	"sync"
)

// Subscriber receives encoded event frames from the bus. TrySend must not
// block; it reports false when the subscriber can no longer keep up and
// should be dropped.
type Subscriber interface {
	TrySend(frame []byte) bool
	Close()
}

// Bus is an in-process publish/subscribe fan-out keyed by channel name.
// Delivery is best-effort, at most once: publishing never blocks, slow
// subscribers are evicted, and nothing is replayed to late joiners.
type Bus struct {
	mu       sync.RWMutex
	channels map[string]map[Subscriber]struct{}
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		channels: make(map[string]map[Subscriber]struct{}),
	}
}

// Subscribe attaches the subscriber to a channel. Subscribing twice to the
// same channel is a no-op.
func (b *Bus) Subscribe(channel string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.channels[channel]
	if !ok {
		subs = make(map[Subscriber]struct{})
		b.channels[channel] = subs
	}
	subs[sub] = struct{}{}
}

// Unsubscribe detaches the subscriber from one channel.
func (b *Bus) Unsubscribe(channel string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.detach(channel, sub)
}

// Remove detaches the subscriber from every channel and closes it. Called
// when its connection goes away.
func (b *Bus) Remove(sub Subscriber) {
	b.mu.Lock()
	for channel := range b.channels {
		b.detach(channel, sub)
	}
	b.mu.Unlock()

	sub.Close()
}

// detach must be called with b.mu held.
func (b *Bus) detach(channel string, sub Subscriber) {
	subs, ok := b.channels[channel]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.channels, channel)
	}
}

// Publish delivers the event to every current subscriber of the channel.
// The event is encoded once; subscribers that cannot accept the frame are
// evicted and closed. Publishing to a channel with no subscribers is a
// no-op.
func (b *Bus) Publish(channel string, event Event) {
	frame, err := json.Marshal(event)
	if err != nil {
		return
	}
	b.fanOut(channel, frame)
}

// PublishGlobal delivers the event once to every current subscriber. A
// subscriber attached to several channels still receives a single frame.
func (b *Bus) PublishGlobal(event Event) {
	frame, err := json.Marshal(event)
	if err != nil {
		return
	}

	b.mu.RLock()
	seen := make(map[Subscriber]struct{})
	for _, channelSubs := range b.channels {
		for sub := range channelSubs {
			seen[sub] = struct{}{}
		}
	}
	subs := make([]Subscriber, 0, len(seen))
	for sub := range seen {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	var dead []Subscriber
	for _, sub := range subs {
		if !sub.TrySend(frame) {
			dead = append(dead, sub)
		}
	}

	for _, sub := range dead {
		b.Remove(sub)
	}
}

func (b *Bus) fanOut(channel string, frame []byte) {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.channels[channel]))
	for sub := range b.channels[channel] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	var dead []Subscriber
	for _, sub := range subs {
		if !sub.TrySend(frame) {
			dead = append(dead, sub)
		}
	}

	for _, sub := range dead {
		b.Remove(sub)
	}
}

// SubscriberCount reports how many subscribers a channel currently has.
func (b *Bus) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.channels[channel])
}
