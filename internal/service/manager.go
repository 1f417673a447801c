package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hlekernel/internal/kernel"
)

// ServerManager owns the server ends of HLE sessions. It accepts sessions
// queued on the ports it watches and closes each one once its client hangs
// up. Requests themselves never pass through it: they are dispatched on the
// caller's goroutine by the session's handler.
type ServerManager struct {
	kernel *kernel.Kernel
	logger *zap.Logger

	mu       sync.Mutex
	ports    []*kernel.ServerPort
	sessions []*kernel.ServerSession
	wake     *kernel.Event
	stopped  bool
}

// NewServerManager creates a manager watching no ports
func NewServerManager(k *kernel.Kernel, logger *zap.Logger) *ServerManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServerManager{
		kernel: k,
		logger: logger.Named("server_manager"),
		wake:   kernel.NewEvent(k, "server_manager_wake"),
	}
}

// ManagePort starts accepting sessions queued on port. The manager takes its
// own reference on the port and drops it as soon as the port is destroyed.
func (m *ServerManager) ManagePort(port *kernel.ServerPort) error {
	if !port.Open() {
		return kernel.ErrPortClosed
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		port.Close()
		return kernel.ErrInvalidState
	}
	m.ports = append(m.ports, port)
	m.mu.Unlock()

	port.OnDestroy(m.wake.Signal)
	m.wake.Signal()
	return nil
}

// NumSessions returns how many accepted sessions are held
func (m *ServerManager) NumSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run services the watched objects until ctx ends
func (m *ServerManager) Run(ctx context.Context) error {
	defer m.stop()

	for {
		objects, ports := m.snapshot()

		idx, err := m.kernel.WaitSynchronization(ctx, objects, -1)
		if err != nil {
			if errors.Is(err, kernel.ErrCancelled) {
				return nil
			}
			return err
		}

		switch {
		case idx == 0:
			m.wake.Clear()
		case idx <= len(ports):
			m.accept(ports[idx-1])
		default:
			m.reap(objects[idx].(*kernel.ServerSession))
		}
	}
}

// snapshot returns the wait list: wake event, ports, then sessions
func (m *ServerManager) snapshot() ([]kernel.SynchronizationObject, []*kernel.ServerPort) {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.ports[:0]
	for _, port := range m.ports {
		if port.IsClosed() {
			port.Close()
			continue
		}
		live = append(live, port)
	}
	m.ports = live

	objects := make([]kernel.SynchronizationObject, 0, 1+len(m.ports)+len(m.sessions))
	objects = append(objects, m.wake)
	for _, port := range m.ports {
		objects = append(objects, port)
	}
	for _, session := range m.sessions {
		objects = append(objects, session)
	}
	return objects, append([]*kernel.ServerPort(nil), m.ports...)
}

func (m *ServerManager) accept(port *kernel.ServerPort) {
	session := port.AcceptSession()
	if session == nil {
		return
	}
	if !session.HasSessionRequestHandler() {
		// Nobody here would ever answer its requests.
		m.logger.Warn("closing session without handler", zap.String("port", port.Name()))
		session.Close()
		return
	}

	m.mu.Lock()
	m.sessions = append(m.sessions, session)
	m.mu.Unlock()

	m.logger.Debug("session accepted",
		zap.String("port", port.Name()),
		logging.Session(session.Parent().ID()),
	)
}

func (m *ServerManager) reap(session *kernel.ServerSession) {
	if !session.Parent().IsClientClosed() {
		// Emulated requests on an HLE port are not served here.
		return
	}

	m.mu.Lock()
	for i, s := range m.sessions {
		if s == session {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	m.logger.Debug("session closed", logging.Session(session.Parent().ID()))
	session.Close()
}

func (m *ServerManager) stop() {
	m.mu.Lock()
	m.stopped = true
	ports, sessions := m.ports, m.sessions
	m.ports, m.sessions = nil, nil
	m.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
	for _, port := range ports {
		port.Close()
	}
	m.wake.Close()
}
