// Package notify fans out domain events to in-process subscribers. The
// consistency core has no wire protocol of its own; real-time broadcast and
// audit consumers subscribe here and forward however they like.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hirekit/hirekit/internal/models"
	"github.com/hirekit/hirekit/internal/telemetry"
)

// EventType identifies what happened.
type EventType string

const (
	EventStatusChanged     EventType = "status_changed"
	EventTransferInitiated EventType = "transfer_initiated"
	EventTransferCancelled EventType = "transfer_cancelled"
	EventShareGranted      EventType = "share_granted"
	EventShareRevoked      EventType = "share_revoked"
)

// Event is one domain occurrence. Fields beyond Type/At are populated as
// relevant to the event type.
type Event struct {
	Type EventType
	At   time.Time

	EntityID   uuid.UUID
	ActorID    uuid.UUID
	Status     models.Status
	TransferID uuid.UUID
	ShareID    uuid.UUID
}

// Broadcaster delivers events to subscribers over buffered channels.
// Publishes never block: a subscriber that can't keep up loses events, which
// is acceptable because every event is also in the structured log.
type Broadcaster struct {
	mu   sync.RWMutex
	subs []chan Event
}

// NewBroadcaster creates a new broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers a new subscriber with the given channel buffer.
// The returned cancel function removes the subscription and closes the
// channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			// The close must happen under the write lock: Publish sends
			// while holding the read lock, so a send can never race the
			// close.
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, sub := range b.subs {
				if sub == ch {
					b.subs = append(b.subs[:i], b.subs[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}

	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking.
func (b *Broadcaster) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	telemetry.GetMetrics().EventsPublishedTotal.Add(context.Background(), 1)

	// Sends stay under the read lock so an unsubscribe cannot close a
	// channel mid-send. Sends never block, so the lock is held briefly.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Channel full, drop event (non-blocking)
			telemetry.GetMetrics().EventsDroppedTotal.Add(context.Background(), 1)
			log.Warn().
				Str("event_type", string(event.Type)).
				Str("entity_id", event.EntityID.String()).
				Msg("Subscriber channel full, dropping event")
		}
	}
}
