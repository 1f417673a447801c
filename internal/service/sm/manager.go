package sm

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/hlekernel/internal/kernel"
)

// MaxNameLength is the longest service name that fits the wire field
const MaxNameLength = 8

// PortName is the kernel named port the SM interface is reachable through
const PortName = "sm:"

// smMaxSessions caps concurrent sessions to "sm:" itself
const smMaxSessions = 4

// ServiceInfo is a snapshot of one registered service
type ServiceInfo struct {
	Name            string `json:"name"`
	PortID          uint64 `json:"port_id"`
	MaxSessions     uint32 `json:"max_sessions"`
	IsLight         bool   `json:"light"`
	HLE             bool   `json:"hle"`
	NumSessions     uint32 `json:"sessions"`
	PeakSessions    uint32 `json:"peak_sessions"`
	PendingSessions int    `json:"pending_sessions"`
}

// ServiceManager maps service names to ports
type ServiceManager struct {
	kernel  *kernel.Kernel
	logger  *zap.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer

	mu       sync.Mutex
	services map[string]*kernel.Port
	iface    *SM
	closed   bool
}

// Option configures a ServiceManager
type Option func(*ServiceManager)

// WithMetrics attaches a metrics collector
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(m *ServiceManager) {
		m.metrics = metrics
	}
}

// WithTracer attaches a tracer
func WithTracer(tracer *tracing.Tracer) Option {
	return func(m *ServiceManager) {
		m.tracer = tracer
	}
}

// NewServiceManager creates an empty registry
func NewServiceManager(k *kernel.Kernel, logger *zap.Logger, opts ...Option) *ServiceManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &ServiceManager{
		kernel:   k,
		logger:   logger.Named("sm"),
		services: make(map[string]*kernel.Port),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Kernel returns the kernel ports are created against
func (m *ServiceManager) Kernel() *kernel.Kernel {
	return m.kernel
}

// ValidateServiceName accepts 1 to MaxNameLength printable ASCII bytes. Any
// other byte would be dropped by the wire decoder, leaving the service
// unreachable.
func ValidateServiceName(name string) error {
	if name == "" || len(name) > MaxNameLength {
		return fmt.Errorf("service name %q: %w", name, ErrInvalidName)
	}
	for i := 0; i < len(name); i++ {
		if c := name[i]; c < ' ' || c > '~' {
			return fmt.Errorf("service name %q: byte %#02x at %d: %w", name, c, i, ErrInvalidName)
		}
	}
	return nil
}

// RegisterService creates a port for name and returns its server end. The
// registry keeps the port reference; callers that hold on to the server port
// beyond the registration must Open it.
func (m *ServiceManager) RegisterService(name string, maxSessions uint32, isLight bool) (*kernel.ServerPort, error) {
	if err := ValidateServiceName(name); err != nil {
		m.logger.Error("invalid service name", logging.Service(name))
		m.metrics.RecordRegistryOp("register", "invalid_name")
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.services[name]; exists {
		m.logger.Error("service already registered", logging.Service(name))
		m.metrics.RecordRegistryOp("register", "already_registered")
		return nil, fmt.Errorf("register %q: %w", name, ErrAlreadyRegistered)
	}
	if m.closed {
		return nil, fmt.Errorf("register %q: %w", name, kernel.ErrInvalidState)
	}

	port := kernel.NewPort(m.kernel, name, maxSessions, isLight)
	m.services[name] = port

	m.metrics.RecordRegistryOp("register", "ok")
	m.metrics.SetPortsRegistered(len(m.services))
	m.logger.Debug("service registered",
		logging.Service(name),
		zap.Uint32("max_sessions", maxSessions),
		zap.Bool("light", isLight),
	)
	return port.ServerPort(), nil
}

// UnregisterService removes name and closes its port. Sessions still queued
// on the port are closed with it.
func (m *ServiceManager) UnregisterService(name string) error {
	if err := ValidateServiceName(name); err != nil {
		m.metrics.RecordRegistryOp("unregister", "invalid_name")
		return err
	}

	m.mu.Lock()
	port, ok := m.services[name]
	if !ok {
		m.mu.Unlock()
		m.logger.Error("service not registered", logging.Service(name))
		m.metrics.RecordRegistryOp("unregister", "not_registered")
		return fmt.Errorf("unregister %q: %w", name, ErrServiceNotRegistered)
	}
	delete(m.services, name)
	count := len(m.services)
	m.mu.Unlock()

	port.ServerPort().Destroy()
	port.Close()

	m.metrics.RecordRegistryOp("unregister", "ok")
	m.metrics.SetPortsRegistered(count)
	m.logger.Debug("service unregistered", logging.Service(name))
	return nil
}

// GetServicePort looks name up without creating anything
func (m *ServiceManager) GetServicePort(name string) (*kernel.Port, error) {
	if err := ValidateServiceName(name); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	port, ok := m.services[name]
	if !ok {
		return nil, fmt.Errorf("lookup %q: %w", name, ErrServiceNotRegistered)
	}
	return port, nil
}

// Service describes one registered service
func (m *ServiceManager) Service(name string) (ServiceInfo, error) {
	port, err := m.GetServicePort(name)
	if err != nil {
		return ServiceInfo{}, err
	}
	return describe(port), nil
}

// Services lists the registered services ordered by name
func (m *ServiceManager) Services() []ServiceInfo {
	m.mu.Lock()
	ports := make([]*kernel.Port, 0, len(m.services))
	for _, port := range m.services {
		ports = append(ports, port)
	}
	m.mu.Unlock()

	infos := make([]ServiceInfo, 0, len(ports))
	for _, port := range ports {
		infos = append(infos, describe(port))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func describe(port *kernel.Port) ServiceInfo {
	return ServiceInfo{
		Name:            port.Name(),
		PortID:          port.ID(),
		MaxSessions:     port.MaxSessions(),
		IsLight:         port.IsLight(),
		HLE:             port.ServerPort().HasSessionRequestHandler(),
		NumSessions:     port.ClientPort().NumSessions(),
		PeakSessions:    port.ClientPort().PeakSessions(),
		PendingSessions: port.ServerPort().PendingSessions(),
	}
}

// Close unregisters every service. Later registrations fail.
func (m *ServiceManager) Close() {
	m.mu.Lock()
	services := m.services
	m.services = make(map[string]*kernel.Port)
	m.closed = true
	m.mu.Unlock()

	for name, port := range services {
		port.ServerPort().Destroy()
		port.Close()
		m.logger.Debug("service closed", logging.Service(name))
	}
	m.metrics.SetPortsRegistered(0)
}
