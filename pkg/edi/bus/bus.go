// Package bus is a process-wide publish/subscribe event bus carrying the
// decoder's output events (ensemble updates, extracted audio frames,
// decoded PAD objects, stats snapshots) to any number of consumers —
// the web forwarder, the archiver, a CLI printer — without those
// consumers needing a reference to the decoder itself.
package bus

import (
	"sync"
	"time"
)

// Kind identifies the shape of an Event's Data payload.
type Kind string

const (
	KindEnsembleUpdated     Kind = "ensemble_updated"
	KindAacpFramesExtracted Kind = "aacp_frames_extracted"
	KindMotImageReceived    Kind = "mot_image_received"
	KindDlObjectReceived    Kind = "dl_object_received"
	KindDabStatsUpdated     Kind = "dab_stats_updated"
)

// Event is one bus message. Data's concrete type is determined by Kind:
// KindEnsembleUpdated carries an *ensemble.Ensemble, KindDabStatsUpdated
// a DabStats snapshot, and so on; consumers type-assert on the value they
// expect for the Kind they're handling.
type Event struct {
	Kind      Kind
	Timestamp time.Time
	Data      interface{}
}

// Bus fans out Emit calls to every current Subscribe-r. A slow or absent
// subscriber never blocks the emitter: each subscriber has a bounded
// buffer, and a full buffer just drops the event for that subscriber.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subscribers: make(map[chan Event]struct{})}
}

// Subscribe registers a new listener and returns its event channel along
// with an unsubscribe function. The caller must call unsubscribe when
// done to avoid leaking the channel's buffer.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 256)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, unsubscribe
}

// Emit publishes an event to every current subscriber. If ev.Timestamp
// is zero it is stamped with the current time.
func (b *Bus) Emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// Subscriber buffer full; drop rather than block the decoder.
		}
	}
}

// SubscriberCount reports the number of currently registered subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

var (
	defaultOnce sync.Once
	defaultBus  *Bus
)

// Default returns the process-wide Bus, creating it on first use.
func Default() *Bus {
	defaultOnce.Do(func() {
		defaultBus = New()
	})
	return defaultBus
}
