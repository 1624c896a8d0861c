// Package events is the in-process change feed: writers publish after a
// successful write, views subscribe to refresh.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event types
const (
	CategoryCreated  = "category.created"
	CategoryUpdated  = "category.updated"
	CategoryDeleted  = "category.deleted"
	CategoriesSeeded = "categories.seeded"
	ActivityCreated  = "activity.created"
	ActivityDeleted  = "activity.deleted"
	ActivitiesBulk   = "activity.bulk"
	SleepCreated     = "sleep.created"
	SleepDeleted     = "sleep.deleted"
)

// Event describes one change to a user's data
type Event struct {
	Type     string    `json:"type"`
	UserID   string    `json:"user_id"`
	EntityID string    `json:"entity_id,omitempty"`
	Count    int       `json:"count,omitempty"`
	At       time.Time `json:"at"`
}

type subscriber struct {
	userID string
	ch     chan Event
}

// Bus fans events out to subscribers without blocking the publisher
type Bus struct {
	mu      sync.RWMutex
	subs    map[uint64]*subscriber
	nextID  uint64
	dropped atomic.Int64
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]*subscriber)}
}

// Subscribe returns a channel of events for userID (all users if empty) and a
// cancel func that unsubscribes and closes the channel. Cancel may be called
// more than once.
func (b *Bus) Subscribe(userID string, buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscriber{userID: userID, ch: make(chan Event, buffer)}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers e to every matching subscriber. A subscriber with a full
// buffer misses the event.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.userID != "" && sub.userID != e.UserID {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of live subscriptions
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped on full buffers
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}
