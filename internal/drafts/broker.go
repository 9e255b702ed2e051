package drafts

import (
	"sync"
	"time"
)

// EventState is the phase of a draft action carried by a StatusEvent.
type EventState string

const (
	EventStarted   EventState = "started"
	EventProgress  EventState = "progress"
	EventSucceeded EventState = "succeeded"
	EventFailed    EventState = "failed"
	EventStage     EventState = "stage"
)

// StatusEvent is one human-readable status update for the console.
type StatusEvent struct {
	BatchID string     `json:"batchId"`
	DraftID string     `json:"draftId,omitempty"`
	Action  Action     `json:"action,omitempty"`
	Stage   Stage      `json:"stage"`
	State   EventState `json:"state"`
	Message string     `json:"message"`
	Attempt int        `json:"attempt,omitempty"`
	At      time.Time  `json:"at"`
}

const defaultSubscriberBuffer = 32

// StatusBroker fans status events out to subscribers. Slow subscribers lose events rather than
// stalling the draft actions that publish them.
type StatusBroker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan StatusEvent
}

func NewStatusBroker() *StatusBroker {
	return &StatusBroker{subs: map[int]chan StatusEvent{}}
}

// Subscribe returns a channel of future events and a cancel func that closes it.
func (b *StatusBroker) Subscribe(buffer int) (<-chan StatusEvent, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan StatusEvent, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber with room in its buffer.
func (b *StatusBroker) Publish(ev StatusEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *StatusBroker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
