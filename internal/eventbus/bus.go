package eventbus

import (
	"log"
	"runtime/debug"
	"sync"

	"benchmap/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventMetadataLoaded = domain.EventMetadataLoaded
	EventDatasetLoaded  = domain.EventDatasetLoaded
	EventLoadFailed     = domain.EventLoadFailed
	EventParkSelected   = domain.EventParkSelected
)

// Re-export domain event types
type MetadataLoadedEvent = domain.MetadataLoadedEvent
type DatasetLoadedEvent = domain.DatasetLoadedEvent
type LoadFailedEvent = domain.LoadFailedEvent
type ParkSelectedEvent = domain.ParkSelectedEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus. Delivery is synchronous:
// Publish invokes every current subscriber, in subscription order, on
// the publishing goroutine before returning. There is no buffering and
// no replay for late subscribers.
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
}

type subscriber struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[EventType][]subscriber
}

// New creates a new event bus
func New() EventBus {
	return &bus{handlers: make(map[EventType][]subscriber)}
}

// Publish delivers an event to all subscribers of its type.
func (b *bus) Publish(event DomainEvent) {
	b.mu.RLock()
	subs := b.handlers[event.Type()]
	// Copy so a handler that unsubscribes mid-delivery cannot mutate
	// the slice we are iterating.
	subsCopy := make([]subscriber, len(subs))
	copy(subsCopy, subs)
	b.mu.RUnlock()

	for _, sub := range subsCopy {
		b.call(sub.handler, event)
	}
}

func (b *bus) call(h EventHandler, event DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Event handler panic for %s: %v\nStack: %s", event.Type(), r, debug.Stack())
		}
	}()
	h(event)
}

// Subscribe registers a handler for events of a specific type.
// It returns an unsubscribe function.
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}
