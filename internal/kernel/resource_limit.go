package kernel

import (
	"fmt"
	"sync"
)

// LimitableResource names a kind of resource a process is charged for
type LimitableResource int

const (
	PhysicalMemory LimitableResource = iota
	Threads
	Events
	TransferMemory
	Sessions

	limitableResourceCount
)

// String returns the resource name
func (r LimitableResource) String() string {
	switch r {
	case PhysicalMemory:
		return "physical_memory"
	case Threads:
		return "threads"
	case Events:
		return "events"
	case TransferMemory:
		return "transfer_memory"
	case Sessions:
		return "sessions"
	default:
		return fmt.Sprintf("resource(%d)", int(r))
	}
}

// ResourceLimit caps how much of each resource a process may hold at once.
// A limit value of 0 means unlimited.
type ResourceLimit struct {
	mu      sync.Mutex
	limits  [limitableResourceCount]int64
	current [limitableResourceCount]int64
	peak    [limitableResourceCount]int64
}

// NewResourceLimit creates a limit with every resource unlimited
func NewResourceLimit() *ResourceLimit {
	return &ResourceLimit{}
}

// SetLimitValue sets the cap for one resource. It fails when the resource is
// already held beyond the new cap.
func (l *ResourceLimit) SetLimitValue(kind LimitableResource, value int64) error {
	if kind < 0 || kind >= limitableResourceCount || value < 0 {
		return fmt.Errorf("set limit %s=%d: %w", kind, value, ErrInvalidState)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if value != 0 && l.current[kind] > value {
		return fmt.Errorf("set limit %s=%d below current %d: %w", kind, value, l.current[kind], ErrInvalidState)
	}
	l.limits[kind] = value
	return nil
}

// LimitValue returns the cap for a resource
func (l *ResourceLimit) LimitValue(kind LimitableResource) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limits[kind]
}

// CurrentValue returns how much of a resource is reserved
func (l *ResourceLimit) CurrentValue(kind LimitableResource) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current[kind]
}

// PeakValue returns the high-water mark of a resource
func (l *ResourceLimit) PeakValue(kind LimitableResource) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peak[kind]
}

// Reserve takes n units of a resource if they fit under the cap
func (l *ResourceLimit) Reserve(kind LimitableResource, n int64) bool {
	if kind < 0 || kind >= limitableResourceCount || n < 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.limits[kind] != 0 && l.current[kind]+n > l.limits[kind] {
		return false
	}
	l.current[kind] += n
	if l.current[kind] > l.peak[kind] {
		l.peak[kind] = l.current[kind]
	}
	return true
}

// Release returns n units of a resource
func (l *ResourceLimit) Release(kind LimitableResource, n int64) {
	if kind < 0 || kind >= limitableResourceCount {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.current[kind] -= n
	if l.current[kind] < 0 {
		l.current[kind] = 0
	}
}

// ScopedResourceReservation reserves on construction and gives the units back
// on Release unless they were committed first. Typical use:
//
//	r := NewScopedResourceReservation(limit, Sessions)
//	if !r.Succeeded() {
//		return ErrResourceLimitReached
//	}
//	defer r.Release()
//	// build and link the object ...
//	r.Commit()
type ScopedResourceReservation struct {
	limit     *ResourceLimit
	kind      LimitableResource
	count     int64
	succeeded bool
}

// NewScopedResourceReservation reserves one unit of kind against limit
func NewScopedResourceReservation(limit *ResourceLimit, kind LimitableResource) *ScopedResourceReservation {
	r := &ScopedResourceReservation{limit: limit, kind: kind, count: 1}
	if limit == nil {
		r.succeeded = true
		return r
	}
	r.succeeded = limit.Reserve(kind, r.count)
	return r
}

// Succeeded reports whether the units were reserved
func (r *ScopedResourceReservation) Succeeded() bool {
	return r.succeeded
}

// Commit keeps the reservation; ownership of the units moves to the object
// that was built with them.
func (r *ScopedResourceReservation) Commit() {
	r.limit = nil
}

// Release gives the units back unless Commit was called
func (r *ScopedResourceReservation) Release() {
	if r.limit != nil && r.succeeded {
		r.limit.Release(r.kind, r.count)
	}
	r.limit = nil
}
