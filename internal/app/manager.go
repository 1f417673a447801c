package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/config"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/hlekernel/internal/ipc"
	"github.com/GriffinCanCode/hlekernel/internal/kernel"
	"github.com/GriffinCanCode/hlekernel/internal/service"
	"github.com/GriffinCanCode/hlekernel/internal/service/sm"
	"github.com/GriffinCanCode/hlekernel/internal/shared/id"
)

// Options configures a Manager
type Options struct {
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
	Tracer  *tracing.Tracer

	// SessionLimit caps sessions per spawned process, 0 means unlimited
	SessionLimit int64
	// WaitTimeout bounds each request a process sends, <= 0 waits forever
	WaitTimeout time.Duration
}

// Manager orchestrates the kernel and process lifecycle
type Manager struct {
	kernel   *kernel.Kernel
	services *sm.ServiceManager
	servers  *service.ServerManager
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer

	waitTimeout time.Duration

	mu           sync.RWMutex
	sessionLimit int64

	processes sync.Map
	spawned   atomic.Uint64
}

// NewManager creates a kernel with "sm:" published and served
func NewManager(opts Options) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	k := kernel.New(
		kernel.WithLogger(logger.Named("kernel")),
		kernel.WithMetrics(opts.Metrics),
	)
	services := sm.NewServiceManager(k, logger.Named("sm"),
		sm.WithMetrics(opts.Metrics),
		sm.WithTracer(opts.Tracer),
	)

	smPort, err := services.InterfaceFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to create sm interface: %w", err)
	}

	servers := service.NewServerManager(k, logger)
	if err := servers.ManagePort(smPort.Parent().ServerPort()); err != nil {
		k.Shutdown()
		return nil, fmt.Errorf("failed to serve %q: %w", sm.PortName, err)
	}

	return &Manager{
		kernel:       k,
		services:     services,
		servers:      servers,
		logger:       logger.Named("app"),
		metrics:      opts.Metrics,
		tracer:       opts.Tracer,
		waitTimeout:  opts.WaitTimeout,
		sessionLimit: opts.SessionLimit,
	}, nil
}

// Kernel returns the managed kernel
func (m *Manager) Kernel() *kernel.Kernel { return m.kernel }

// Services returns the service manager
func (m *Manager) Services() *sm.ServiceManager { return m.services }

// SessionLimit returns the limit applied to newly spawned processes
func (m *Manager) SessionLimit() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionLimit
}

// Boot installs every manifest service as an HLE stub. A non-zero manifest
// session limit replaces the configured one.
func (m *Manager) Boot(manifest *config.Manifest) error {
	if manifest == nil {
		return nil
	}

	if manifest.SessionLimit > 0 {
		m.mu.Lock()
		m.sessionLimit = manifest.SessionLimit
		m.mu.Unlock()
	}

	for _, svc := range manifest.Services {
		stub := service.NewFramework(svc.Name, svc.MaxSessions,
			service.WithLogger(m.logger),
			service.WithMetrics(m.metrics),
			service.WithTracer(m.tracer),
			service.WithLight(svc.Light),
		)
		if err := stub.InstallAsService(m.services); err != nil {
			return err
		}

		port, err := m.services.GetServicePort(svc.Name)
		if err != nil {
			return err
		}
		if err := m.servers.ManagePort(port.ServerPort()); err != nil {
			return fmt.Errorf("failed to serve %q: %w", svc.Name, err)
		}
	}

	m.logger.Info("Boot manifest applied",
		zap.Int("services", len(manifest.Services)),
		zap.Int64("session_limit", m.SessionLimit()),
	)
	return nil
}

// Run serves HLE sessions until ctx ends
func (m *Manager) Run(ctx context.Context) error {
	return m.servers.Run(ctx)
}

// Spawn creates a process and connects it to "sm:". The connection counts
// against the process session limit.
func (m *Manager) Spawn(ctx context.Context, name string) (*Process, error) {
	limit := kernel.NewResourceLimit()
	if err := limit.SetLimitValue(kernel.Sessions, m.SessionLimit()); err != nil {
		return nil, err
	}

	proc := &Process{
		Process:   kernel.NewProcess(name, limit),
		limit:     limit,
		seq:       m.spawned.Add(1),
		createdAt: time.Now(),
		state:     StateRunning,
	}

	session, err := m.kernel.ConnectToNamedPort(proc.Process, sm.PortName)
	if err != nil {
		return nil, fmt.Errorf("spawn %q: %w", name, err)
	}

	req := kernel.NewRequest(ctx, proc.Process, kernel.CommandTypeRequest, sm.CommandInitialize, nil)
	if err := m.send(session, req); err != nil {
		session.Close()
		return nil, fmt.Errorf("spawn %q: %w", name, err)
	}
	proc.sm = session

	m.processes.Store(proc.ID(), proc)
	m.logger.Info("Process spawned",
		zap.String("name", name),
		zap.String("pid", proc.ID().String()),
	)
	return proc, nil
}

// GetService opens a session to a registered service on behalf of pid. The
// session is closed with the process.
func (m *Manager) GetService(ctx context.Context, pid id.ProcessID, name string) (*kernel.ClientSession, error) {
	proc, ok := m.Get(pid)
	if !ok {
		return nil, fmt.Errorf("process %s: %w", pid, kernel.ErrNotFound)
	}

	proc.mu.Lock()
	smSession := proc.sm
	proc.mu.Unlock()
	if smSession == nil {
		return nil, fmt.Errorf("process %s: %w", pid, kernel.ErrInvalidState)
	}

	payload := ipc.NewRequestBuilder().PushServiceName(name).Bytes()
	req := kernel.NewRequest(ctx, proc.Process, kernel.CommandTypeRequest, sm.CommandGetService, payload)
	if err := m.send(smSession, req); err != nil {
		return nil, err
	}

	if len(req.MoveObjects) != 1 {
		req.CloseObjects()
		return nil, fmt.Errorf("get %q: %w", name, ipc.ErrMalformedReply)
	}
	client, ok := req.MoveObjects[0].(*kernel.ClientSession)
	if !ok {
		req.CloseObjects()
		return nil, fmt.Errorf("get %q: %w", name, ipc.ErrMalformedReply)
	}
	if !proc.track(client) {
		client.Close()
		return nil, fmt.Errorf("process %s: %w", pid, kernel.ErrInvalidState)
	}
	return client, nil
}

// send dispatches req and turns an error result into an error
func (m *Manager) send(session *kernel.ClientSession, req *kernel.HLERequestContext) error {
	if err := session.SendSyncRequestTimeout(req, m.waitTimeout); err != nil {
		return err
	}
	if code := ipc.ResultOf(req); code.IsError() {
		req.CloseObjects()
		return code
	}
	return nil
}

// Get retrieves a process by ID
func (m *Manager) Get(pid id.ProcessID) (*Process, bool) {
	val, ok := m.processes.Load(pid)
	if !ok {
		return nil, false
	}
	return val.(*Process), true
}

// List returns all processes in spawn order
func (m *Manager) List() []ProcessInfo {
	var procs []*Process
	m.processes.Range(func(_, value any) bool {
		procs = append(procs, value.(*Process))
		return true
	})
	sort.Slice(procs, func(i, j int) bool { return procs[i].seq < procs[j].seq })

	infos := make([]ProcessInfo, 0, len(procs))
	for _, proc := range procs {
		infos = append(infos, proc.Info())
	}
	return infos
}

// Close terminates a process and releases its sessions
func (m *Manager) Close(pid id.ProcessID) bool {
	val, ok := m.processes.LoadAndDelete(pid)
	if !ok {
		return false
	}
	proc := val.(*Process)
	proc.exit()

	m.logger.Info("Process closed",
		zap.String("name", proc.Name()),
		zap.String("pid", pid.String()),
	)
	return true
}

// Stats returns manager statistics
func (m *Manager) Stats() Stats {
	var stats Stats
	m.processes.Range(func(_, value any) bool {
		stats.TotalProcesses++
		stats.OpenSessions += value.(*Process).limit.CurrentValue(kernel.Sessions)
		return true
	})
	return stats
}

// Shutdown closes every process, then every port
func (m *Manager) Shutdown() {
	m.processes.Range(func(key, _ any) bool {
		m.Close(key.(id.ProcessID))
		return true
	})
	m.services.Close()
	m.kernel.Shutdown()
	m.logger.Info("Kernel shut down")
}
