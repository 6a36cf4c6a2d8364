package services

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

type EventType string

const (
	EventBatchStarted  EventType = "batch_started"
	EventItemDelivered EventType = "item_delivered"
	EventItemFailed    EventType = "item_failed"
	EventBatchFinished EventType = "batch_finished"
)

// Event is one progress notification of a running batch.
type Event struct {
	BatchID   string
	Type      EventType
	Data      string // JSON payload
	Timestamp int64
}

// EventBus fans batch progress out to subscribers keyed by batch id.
type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[string][]chan Event
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[string][]chan Event),
	}
}

// Subscribe returns a channel that receives events for one batch, and the
// function that closes it.
func (b *EventBus) Subscribe(batchID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100)
	b.subs[batchID] = append(b.subs[batchID], ch)

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			subscribers := b.subs[batchID]
			for i, sub := range subscribers {
				if sub == ch {
					close(ch)
					b.subs[batchID] = append(subscribers[:i], subscribers[i+1:]...)
					break
				}
			}
			if len(b.subs[batchID]) == 0 {
				delete(b.subs, batchID)
			}
		})
	}

	return ch, unsub
}

// Publish never blocks; a subscriber that fell behind loses the event.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[e.BatchID] {
		select {
		case ch <- e:
		default:
			b.logger.Warn("event bus channel full, dropping event", "batch_id", e.BatchID)
		}
	}
}

// Emit marshals payload and publishes it for batchID. A nil bus or an empty
// id publishes nothing.
func (b *EventBus) Emit(batchID string, typ EventType, payload any) {
	if b == nil || batchID == "" {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Warn("drop unencodable event", "batch_id", batchID, "error", err)
		return
	}
	b.Publish(Event{
		BatchID:   batchID,
		Type:      typ,
		Data:      string(data),
		Timestamp: time.Now().UnixMilli(),
	})
}
