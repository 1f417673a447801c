package kernel

import (
	"sync"

	"go.uber.org/zap"
)

// ServerPort queues sessions waiting to be accepted. It is signaled while the
// queue is non-empty.
type ServerPort struct {
	SyncObject

	parent *Port

	mu      sync.Mutex
	queue   []*ServerSession
	handler SessionRequestHandler
	closed  bool
	onClose []func()
}

func (s *ServerPort) initServerPort(k *Kernel, parent *Port, name string) {
	s.initComponent(k, TypeServerPort, name, &parent.AutoObject)
	s.parent = parent
}

// Parent returns the owning port
func (s *ServerPort) Parent() *Port { return s.parent }

// IsLight reports the IPC mode of the owning port
func (s *ServerPort) IsLight() bool { return s.parent.isLight }

// HasSessionRequestHandler reports whether new sessions will be served by a
// host-side handler.
func (s *ServerPort) HasSessionRequestHandler() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler != nil
}

// GetSessionRequestHandler returns the handler new sessions inherit
func (s *ServerPort) GetSessionRequestHandler() SessionRequestHandler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler
}

// SetSessionHandler replaces the handler. Sessions spawned earlier keep the
// handler they were created with.
func (s *ServerPort) SetSessionHandler(handler SessionRequestHandler) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

// EnqueueSession appends a session to the accept queue and wakes waiters.
func (s *ServerPort) EnqueueSession(session *ServerSession) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrPortClosed
	}
	s.queue = append(s.queue, session)
	s.mu.Unlock()

	s.NotifyAvailable()
	return nil
}

// AcceptSession pops the oldest pending session, or returns nil when none is
// queued. The caller owns the queue's reference to the returned session.
func (s *ServerPort) AcceptSession() *ServerSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil
	}
	session := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return session
}

// IsSignaled reports whether a session is waiting to be accepted
func (s *ServerPort) IsSignaled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) > 0
}

// PendingSessions returns the accept queue length
func (s *ServerPort) PendingSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// IsClosed reports whether Destroy has run
func (s *ServerPort) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// OnDestroy registers fn to run once Destroy has drained the queue. If the
// port is already closed fn runs immediately.
func (s *ServerPort) OnDestroy(fn func()) {
	s.mu.Lock()
	if !s.closed {
		s.onClose = append(s.onClose, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// Destroy closes the port for new connections and force-closes every session
// still waiting in the queue. Their client ends observe ErrSessionClosed.
func (s *ServerPort) Destroy() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	pending := s.queue
	s.queue = nil
	hooks := s.onClose
	s.onClose = nil
	s.mu.Unlock()

	s.parent.client.onServerClosed()

	for _, session := range pending {
		session.Close()
	}
	s.NotifyAvailable()
	for _, fn := range hooks {
		fn()
	}

	s.kernel.logger.Debug("server port destroyed",
		zap.String("port", s.name),
		zap.Int("drained_sessions", len(pending)),
	)
}
