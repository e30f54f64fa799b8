package handlers

import (
	"sync"
)

const (
	// EventInventoryAdded carries the types.OwnedSong that was granted.
	EventInventoryAdded = "inventory.added"
	// EventInventoryReset carries the new []types.OwnedSong.
	EventInventoryReset = "inventory.reset"
	// EventSessionChanged carries the *types.AuthUser now signed in, nil after logout.
	EventSessionChanged = "session.changed"
)

type EventBus struct {
	subscribers map[string][]subscription
	nextID      uint64
	mutex       sync.RWMutex
}

type EventHandler func(data interface{})

type subscription struct {
	id      uint64
	handler EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]subscription),
	}
}

// Subscribe registers handler for eventType and returns a func that removes
// just this registration.
func (bus *EventBus) Subscribe(eventType string, handler EventHandler) func() {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	bus.nextID++
	id := bus.nextID
	bus.subscribers[eventType] = append(bus.subscribers[eventType], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { bus.remove(eventType, id) })
	}
}

func (bus *EventBus) remove(eventType string, id uint64) {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	subs := bus.subscribers[eventType]
	for i, s := range subs {
		if s.id == id {
			bus.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(bus.subscribers[eventType]) == 0 {
		delete(bus.subscribers, eventType)
	}
}

// Publish calls every handler for eventType on the caller's goroutine, in
// subscription order, after releasing the lock. A subscriber therefore sees
// one publisher's events in the order they were published.
func (bus *EventBus) Publish(eventType string, data interface{}) {
	bus.mutex.RLock()
	subs := bus.subscribers[eventType]
	bus.mutex.RUnlock()

	for _, s := range subs {
		s.handler(data)
	}
}

func (bus *EventBus) Unsubscribe(eventType string) {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()
	delete(bus.subscribers, eventType)
}

func (bus *EventBus) Subscribers(eventType string) int {
	bus.mutex.RLock()
	defer bus.mutex.RUnlock()
	return len(bus.subscribers[eventType])
}
