package kernel

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/logging"
)

// Session owns one connected ServerSession/ClientSession pair. Each end holds
// one reference; the session holds a reference on its Port, so the Port
// outlives every session spawned from it.
type Session struct {
	AutoObject

	server ServerSession
	client ClientSession
	port   *ClientPort

	// limit is charged one Sessions unit for the session's lifetime once the
	// creating reservation has been committed.
	limit  *ResourceLimit
	linked atomic.Bool

	mu           sync.Mutex
	serverClosed bool
	clientClosed bool
}

func newSession(k *Kernel, port *ClientPort, limit *ResourceLimit) (*Session, error) {
	if !port.parent.Open() {
		return nil, ErrPortClosed
	}

	s := &Session{port: port, limit: limit}
	s.init(k, TypeSession, port.name, s.finalize)
	s.Open()

	s.server.initServerSession(k, s, port.parent.server.GetSessionRequestHandler())
	s.client.initClientSession(k, s)
	return s, nil
}

// ServerSession returns the server end
func (s *Session) ServerSession() *ServerSession { return &s.server }

// ClientSession returns the client end
func (s *Session) ClientSession() *ClientSession { return &s.client }

// ClientPort returns the port the session was created from
func (s *Session) ClientPort() *ClientPort { return s.port }

// IsServerClosed reports whether the server end is gone
func (s *Session) IsServerClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverClosed
}

// IsClientClosed reports whether the client end is gone
func (s *Session) IsClientClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientClosed
}

func (s *Session) onServerClosed() {
	s.mu.Lock()
	s.serverClosed = true
	abandoned := s.server.takeRequestsLocked()
	s.mu.Unlock()

	for _, req := range abandoned {
		req.complete(ErrSessionClosed)
	}
	s.Close()
}

func (s *Session) onClientClosed() {
	s.mu.Lock()
	s.clientClosed = true
	s.mu.Unlock()

	// The server end becomes signaled so a blocked receiver sees the hang-up.
	s.server.NotifyAvailable()
	s.Close()
}

func (s *Session) finalize() {
	s.port.releaseSlot()
	if s.limit != nil {
		s.limit.Release(Sessions, 1)
	}
	if s.linked.Load() {
		s.kernel.metrics.SessionFinalized()
	}
	s.port.parent.Close()

	s.kernel.logger.Debug("session finalized",
		zap.String("port", s.name),
		logging.Session(s.id),
	)
}
