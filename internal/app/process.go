package app

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/hlekernel/internal/kernel"
	"github.com/GriffinCanCode/hlekernel/internal/shared/id"
)

// State represents process lifecycle state
type State string

const (
	StateRunning State = "running"
	StateExited  State = "exited"
)

// Process is an emulated process tracked by the manager
type Process struct {
	*kernel.Process

	limit     *kernel.ResourceLimit
	seq       uint64
	createdAt time.Time

	mu       sync.Mutex
	state    State
	sm       *kernel.ClientSession
	sessions []*kernel.ClientSession
}

// ProcessInfo is a snapshot of one process
type ProcessInfo struct {
	ID        id.ProcessID `json:"id"`
	Name      string       `json:"name"`
	State     State        `json:"state"`
	Sessions  int64        `json:"sessions"`
	Limit     int64        `json:"session_limit"`
	CreatedAt time.Time    `json:"created_at"`
}

// Stats contains process manager statistics
type Stats struct {
	TotalProcesses int   `json:"total_processes"`
	OpenSessions   int64 `json:"open_sessions"`
}

// Limit returns the process resource limit
func (p *Process) Limit() *kernel.ResourceLimit { return p.limit }

// State returns the lifecycle state
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Info snapshots the process
func (p *Process) Info() ProcessInfo {
	return ProcessInfo{
		ID:        p.ID(),
		Name:      p.Name(),
		State:     p.State(),
		Sessions:  p.limit.CurrentValue(kernel.Sessions),
		Limit:     p.limit.LimitValue(kernel.Sessions),
		CreatedAt: p.createdAt,
	}
}

// track records a session so Close can release it
func (p *Process) track(session *kernel.ClientSession) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateRunning {
		return false
	}
	p.sessions = append(p.sessions, session)
	return true
}

// exit closes every session the process holds
func (p *Process) exit() {
	p.mu.Lock()
	if p.state == StateExited {
		p.mu.Unlock()
		return
	}
	p.state = StateExited
	sessions := p.sessions
	p.sessions = nil
	sm := p.sm
	p.sm = nil
	p.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
	if sm != nil {
		sm.Close()
	}
}
