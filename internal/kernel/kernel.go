package kernel

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hlekernel/internal/shared/id"
)

// Kernel is the context every kernel object is created against. It replaces
// process-wide globals: object IDs, the named-port table, logging and
// metrics all hang off one explicitly constructed value.
type Kernel struct {
	ids     *id.Counter
	logger  *zap.Logger
	metrics *monitoring.Metrics

	censusMu sync.Mutex
	census   map[string]int64

	namedMu    sync.RWMutex
	namedPorts map[string]*Port
}

// Option configures a Kernel
type Option func(*Kernel)

// WithLogger sets the kernel logger
func WithLogger(logger *zap.Logger) Option {
	return func(k *Kernel) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// WithMetrics attaches a metrics collector
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(k *Kernel) {
		k.metrics = metrics
	}
}

// New creates a kernel with an empty named-port table
func New(opts ...Option) *Kernel {
	k := &Kernel{
		ids:        id.NewCounter(0),
		logger:     zap.NewNop(),
		census:     make(map[string]int64),
		namedPorts: make(map[string]*Port),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Logger returns the kernel logger
func (k *Kernel) Logger() *zap.Logger {
	return k.logger
}

// Metrics returns the attached metrics collector, possibly nil
func (k *Kernel) Metrics() *monitoring.Metrics {
	return k.metrics
}

func (k *Kernel) track(typeName string, delta int64) {
	k.censusMu.Lock()
	k.census[typeName] += delta
	k.censusMu.Unlock()
}

// ObjectCount returns the number of live objects of a type
func (k *Kernel) ObjectCount(typeName string) int64 {
	k.censusMu.Lock()
	defer k.censusMu.Unlock()
	return k.census[typeName]
}

// Census returns a copy of the live object counts keyed by type name
func (k *Kernel) Census() map[string]int64 {
	k.censusMu.Lock()
	defer k.censusMu.Unlock()

	out := make(map[string]int64, len(k.census))
	for typeName, n := range k.census {
		out[typeName] = n
	}
	return out
}

// RegisterNamedPort publishes a port under a kernel-global name, the way
// "sm:" is reached before any service is known. The table takes its own
// reference on the port.
func (k *Kernel) RegisterNamedPort(name string, port *Port) error {
	k.namedMu.Lock()
	defer k.namedMu.Unlock()

	if _, exists := k.namedPorts[name]; exists {
		return fmt.Errorf("named port %q already registered: %w", name, ErrInvalidState)
	}
	if !port.Open() {
		return fmt.Errorf("named port %q: %w", name, ErrPortClosed)
	}
	k.namedPorts[name] = port

	k.logger.Debug("named port registered", zap.String("name", name), logging.Port(port.ID()))
	return nil
}

// ConnectToNamedPort opens a new session to a named port on behalf of process
func (k *Kernel) ConnectToNamedPort(process *Process, name string) (*ClientSession, error) {
	k.namedMu.RLock()
	port, ok := k.namedPorts[name]
	k.namedMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("named port %q: %w", name, ErrNotFound)
	}
	return port.ClientPort().CreateSession(process)
}

// NamedPorts lists the registered named port names
func (k *Kernel) NamedPorts() []string {
	k.namedMu.RLock()
	defer k.namedMu.RUnlock()

	names := make([]string, 0, len(k.namedPorts))
	for name := range k.namedPorts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Shutdown tears down every named port. Sessions already handed out observe
// ErrSessionClosed once their server end is drained.
func (k *Kernel) Shutdown() {
	k.namedMu.Lock()
	ports := k.namedPorts
	k.namedPorts = make(map[string]*Port)
	k.namedMu.Unlock()

	for name, port := range ports {
		port.ServerPort().Destroy()
		port.Close()
		k.logger.Debug("named port closed", zap.String("name", name))
	}
}
