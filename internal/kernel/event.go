package kernel

import "sync"

// Event is a manually cleared signal
type Event struct {
	SyncObject

	mu       sync.Mutex
	signaled bool
}

// NewEvent creates an unsignaled event
func NewEvent(k *Kernel, name string) *Event {
	e := &Event{}
	e.init(k, TypeEvent, name, nil)
	return e
}

// Signal sets the event and wakes every waiter
func (e *Event) Signal() {
	e.mu.Lock()
	was := e.signaled
	e.signaled = true
	e.mu.Unlock()

	if !was {
		e.NotifyAvailable()
	}
}

// Clear resets the event
func (e *Event) Clear() {
	e.mu.Lock()
	e.signaled = false
	e.mu.Unlock()
}

// IsSignaled reports whether the event is set
func (e *Event) IsSignaled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signaled
}
