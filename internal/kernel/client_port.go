package kernel

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/logging"
)

// ClientPort is the end connections are requested through. It caps the
// number of open session pairs spawned from the port.
type ClientPort struct {
	AutoObject

	parent      *Port
	maxSessions uint32

	mu           sync.Mutex
	numSessions  uint32
	peakSessions uint32
	serverClosed bool
}

func (c *ClientPort) initClientPort(k *Kernel, parent *Port, name string, maxSessions uint32) {
	c.initComponent(k, TypeClientPort, name, &parent.AutoObject)
	c.parent = parent
	c.maxSessions = maxSessions
}

// Parent returns the owning port
func (c *ClientPort) Parent() *Port { return c.parent }

// MaxSessions returns the cap, 0 for unlimited
func (c *ClientPort) MaxSessions() uint32 { return c.maxSessions }

// NumSessions returns the number of open session pairs
func (c *ClientPort) NumSessions() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.numSessions
}

// PeakSessions returns the high-water mark of open session pairs
func (c *ClientPort) PeakSessions() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peakSessions
}

func (c *ClientPort) acquireSlot() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSessions != 0 && c.numSessions >= c.maxSessions {
		return false
	}
	c.numSessions++
	if c.numSessions > c.peakSessions {
		c.peakSessions = c.numSessions
	}
	return true
}

func (c *ClientPort) releaseSlot() {
	c.mu.Lock()
	if c.numSessions > 0 {
		c.numSessions--
	}
	c.mu.Unlock()
}

func (c *ClientPort) onServerClosed() {
	c.mu.Lock()
	c.serverClosed = true
	c.mu.Unlock()
}

func (c *ClientPort) isServerClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverClosed
}

// CreateSession connects to the port on behalf of process:
//  1. reserve one session against the process resource limit
//  2. take a slot under the port's session cap
//  3. build the session pair, inheriting the server port's handler
//  4. enqueue the server end; a closed port unwinds everything
//  5. commit the reservation and hand back the client end
func (c *ClientPort) CreateSession(process *Process) (*ClientSession, error) {
	k := c.kernel

	if c.isServerClosed() {
		k.metrics.RecordSessionFailure("port_closed")
		return nil, fmt.Errorf("connect to %q: %w", c.name, ErrPortClosed)
	}

	reservation := NewScopedResourceReservation(process.ResourceLimit(), Sessions)
	if !reservation.Succeeded() {
		k.metrics.RecordSessionFailure("resource_limit")
		k.logger.Warn("session resource limit reached",
			zap.String("port", c.name),
			logging.Process(process.Name()),
		)
		return nil, fmt.Errorf("connect to %q: %w", c.name, ErrResourceLimitReached)
	}
	defer reservation.Release()

	if !c.acquireSlot() {
		k.metrics.RecordSessionFailure("port_capacity")
		k.logger.Warn("port session cap reached",
			zap.String("port", c.name),
			zap.Uint32("max_sessions", c.maxSessions),
		)
		return nil, fmt.Errorf("connect to %q: %w", c.name, ErrPortCapacityReached)
	}

	session, err := newSession(k, c, process.ResourceLimit())
	if err != nil {
		c.releaseSlot()
		k.metrics.RecordSessionFailure("port_closed")
		return nil, fmt.Errorf("connect to %q: %w", c.name, err)
	}

	if err := c.parent.server.EnqueueSession(&session.server); err != nil {
		// The reservation is still ours; the deferred Release returns it.
		session.limit = nil
		session.server.Close()
		session.client.Close()
		k.metrics.RecordSessionFailure("port_closed")
		return nil, fmt.Errorf("connect to %q: %w", c.name, err)
	}

	reservation.Commit()
	session.linked.Store(true)
	k.metrics.SessionOpened()

	k.logger.Debug("session created",
		zap.String("port", c.name),
		logging.Session(session.ID()),
		logging.Process(process.Name()),
		zap.Bool("hle", session.server.HasSessionRequestHandler()),
	)
	return &session.client, nil
}
