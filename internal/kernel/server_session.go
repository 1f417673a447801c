package kernel

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/logging"
)

// ServerSession is the service side of a session. With a handler attached
// requests are served on the caller's goroutine; otherwise they queue here
// until an emulated server receives and replies to them.
//
// The server session is signaled while requests are pending or after the
// client end has closed.
type ServerSession struct {
	SyncObject

	parent  *Session
	handler SessionRequestHandler

	// guarded by parent.mu
	pending  []*HLERequestContext
	inflight map[*HLERequestContext]struct{}
}

func (s *ServerSession) initServerSession(k *Kernel, parent *Session, handler SessionRequestHandler) {
	s.init(k, TypeServerSession, parent.name, parent.onServerClosed)
	s.parent = parent
	s.handler = handler
	s.inflight = make(map[*HLERequestContext]struct{})
}

// Parent returns the owning session
func (s *ServerSession) Parent() *Session { return s.parent }

// HasSessionRequestHandler reports whether the session is served on the host
func (s *ServerSession) HasSessionRequestHandler() bool { return s.handler != nil }

// GetSessionRequestHandler returns the handler captured at creation
func (s *ServerSession) GetSessionRequestHandler() SessionRequestHandler { return s.handler }

// IsSignaled reports whether a request is pending or the client hung up
func (s *ServerSession) IsSignaled() bool {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	return len(s.pending) > 0 || s.parent.clientClosed
}

// PendingRequests returns how many requests wait to be received
func (s *ServerSession) PendingRequests() int {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	return len(s.pending)
}

// ReceiveRequest pops the oldest pending request. It returns ErrNotFound when
// nothing is queued and ErrSessionClosed once the client end is gone.
func (s *ServerSession) ReceiveRequest() (*HLERequestContext, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()

	if s.parent.serverClosed {
		return nil, ErrSessionClosed
	}
	if len(s.pending) == 0 {
		if s.parent.clientClosed {
			return nil, ErrSessionClosed
		}
		return nil, ErrNotFound
	}

	req := s.pending[0]
	s.pending[0] = nil
	s.pending = s.pending[1:]
	s.inflight[req] = struct{}{}
	return req, nil
}

// SendReply completes a request previously returned by ReceiveRequest and
// wakes the client blocked on it.
func (s *ServerSession) SendReply(req *HLERequestContext) error {
	s.parent.mu.Lock()
	if _, ok := s.inflight[req]; !ok {
		s.parent.mu.Unlock()
		return fmt.Errorf("reply to %s: %w", req.RequestID(), ErrNotFound)
	}
	delete(s.inflight, req)
	clientClosed := s.parent.clientClosed
	s.parent.mu.Unlock()

	req.complete(nil)
	if clientClosed {
		return ErrSessionClosed
	}
	return nil
}

func (s *ServerSession) enqueueRequest(req *HLERequestContext) error {
	s.parent.mu.Lock()
	if s.parent.serverClosed || s.parent.clientClosed {
		s.parent.mu.Unlock()
		return ErrSessionClosed
	}
	s.pending = append(s.pending, req)
	s.parent.mu.Unlock()

	s.NotifyAvailable()
	return nil
}

// cancelRequest forgets a request whose caller stopped waiting
func (s *ServerSession) cancelRequest(req *HLERequestContext) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()

	delete(s.inflight, req)
	for i, r := range s.pending {
		if r == req {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// takeRequestsLocked empties both queues. parent.mu must be held.
func (s *ServerSession) takeRequestsLocked() []*HLERequestContext {
	reqs := make([]*HLERequestContext, 0, len(s.pending)+len(s.inflight))
	reqs = append(reqs, s.pending...)
	for req := range s.inflight {
		reqs = append(reqs, req)
	}
	s.pending = nil
	s.inflight = make(map[*HLERequestContext]struct{})

	if len(reqs) > 0 {
		s.kernel.logger.Debug("failing requests on closed session",
			logging.Session(s.parent.id),
			zap.Int("requests", len(reqs)),
		)
	}
	return reqs
}
