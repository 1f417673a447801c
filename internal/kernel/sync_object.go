package kernel

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SynchronizationObject is any kernel object a thread can wait on.
type SynchronizationObject interface {
	Object
	// IsSignaled is re-evaluated on every wake-up.
	IsSignaled() bool
	syncBase() *SyncObject
}

// waiter is one blocked WaitSynchronization call. wake holds at most one
// pending notification; extra notifications collapse into it.
type waiter struct {
	wake chan struct{}
}

func newWaiter() *waiter {
	return &waiter{wake: make(chan struct{}, 1)}
}

func (w *waiter) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// SyncObject is the waiter bookkeeping shared by every synchronization object
type SyncObject struct {
	AutoObject

	waitMu  sync.Mutex
	waiters map[*waiter]struct{}
}

func (o *SyncObject) syncBase() *SyncObject { return o }

func (o *SyncObject) addWaiter(w *waiter) {
	o.waitMu.Lock()
	if o.waiters == nil {
		o.waiters = make(map[*waiter]struct{})
	}
	o.waiters[w] = struct{}{}
	o.waitMu.Unlock()
}

func (o *SyncObject) removeWaiter(w *waiter) {
	o.waitMu.Lock()
	delete(o.waiters, w)
	o.waitMu.Unlock()
}

// NumWaiters returns how many waits are registered on the object
func (o *SyncObject) NumWaiters() int {
	o.waitMu.Lock()
	defer o.waitMu.Unlock()
	return len(o.waiters)
}

// NotifyAvailable wakes every waiter. Each one re-checks IsSignaled, so a
// wake-up is a hint and never a hand-off.
func (o *SyncObject) NotifyAvailable() {
	o.waitMu.Lock()
	defer o.waitMu.Unlock()
	for w := range o.waiters {
		w.notify()
	}
}

// WaitSynchronization blocks until any of objects is signaled and returns its
// index. A zero timeout polls, a negative timeout waits forever. The waiter is
// registered on every object before the first check, so a signal between the
// check and the sleep is never lost.
func (k *Kernel) WaitSynchronization(ctx context.Context, objects []SynchronizationObject, timeout time.Duration) (int, error) {
	start := time.Now()
	outcome := "signaled"
	defer func() {
		k.metrics.RecordWait(outcome, time.Since(start))
	}()

	w := newWaiter()
	for _, obj := range objects {
		obj.syncBase().addWaiter(w)
	}
	defer func() {
		for _, obj := range objects {
			obj.syncBase().removeWaiter(w)
		}
	}()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		for i, obj := range objects {
			if obj.IsSignaled() {
				return i, nil
			}
		}

		if timeout == 0 {
			outcome = "timeout"
			return -1, ErrTimedOut
		}

		select {
		case <-w.wake:
		case <-deadline:
			outcome = "timeout"
			return -1, ErrTimedOut
		case <-ctx.Done():
			outcome = "cancelled"
			return -1, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
	}
}
