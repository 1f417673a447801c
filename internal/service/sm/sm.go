package sm

import (
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hlekernel/internal/ipc"
	"github.com/GriffinCanCode/hlekernel/internal/kernel"
	"github.com/GriffinCanCode/hlekernel/internal/service"
	"github.com/GriffinCanCode/hlekernel/internal/shared/result"
)

// Command IDs served on "sm:", identical in both protocols
const (
	CommandInitialize        uint32 = 0
	CommandGetService        uint32 = 1
	CommandRegisterService   uint32 = 2
	CommandUnregisterService uint32 = 3
	CommandDetachClient      uint32 = 4
)

// RegisterServiceParams is the RegisterService request payload
type RegisterServiceParams struct {
	Name        []byte `struc:"[8]byte"`
	IsLight     uint32
	MaxSessions uint32
}

// SM is the HLE interface served on "sm:"
type SM struct {
	*service.Framework

	manager     *ServiceManager
	logger      *zap.Logger
	initialized atomic.Bool
}

func newSM(m *ServiceManager) *SM {
	s := &SM{
		manager: m,
		logger:  m.logger,
	}
	s.Framework = service.NewFramework(PortName, smMaxSessions,
		service.WithLogger(m.logger),
		service.WithMetrics(m.metrics),
		service.WithTracer(m.tracer),
	)
	s.RegisterHandlers([]service.FunctionInfo{
		{ID: CommandInitialize, Name: "Initialize", Handler: s.initialize},
		{ID: CommandGetService, Name: "GetService", Handler: s.getService},
		{ID: CommandRegisterService, Name: "RegisterService", Handler: s.registerService},
		{ID: CommandUnregisterService, Name: "UnregisterService", Handler: s.unregisterService},
		{ID: CommandDetachClient, Name: "DetachClient"},
	})
	s.RegisterHandlersTipc([]service.FunctionInfo{
		{ID: CommandInitialize, Name: "Initialize", Handler: s.initialize},
		{ID: CommandGetService, Name: "GetService", Handler: s.getServiceTipc},
		{ID: CommandRegisterService, Name: "RegisterService", Handler: s.registerService},
		{ID: CommandUnregisterService, Name: "UnregisterService", Handler: s.unregisterService},
		{ID: CommandDetachClient, Name: "DetachClient"},
	})
	return s
}

// InterfaceFactory creates the SM interface, publishes it as the "sm:"
// named port and returns the port's client end. It may be called once.
func (m *ServiceManager) InterfaceFactory() (*kernel.ClientPort, error) {
	m.mu.Lock()
	if m.iface != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("sm interface already created: %w", kernel.ErrInvalidState)
	}
	s := newSM(m)
	m.iface = s
	m.mu.Unlock()

	port := s.CreatePort(m.kernel)
	// The named port table takes its own reference.
	defer port.Close()

	if err := m.kernel.RegisterNamedPort(PortName, port); err != nil {
		return nil, err
	}
	m.logger.Info("sm interface ready", logging.Port(port.ID()))
	return port.ClientPort(), nil
}

// Interface returns the SM interface once InterfaceFactory has run
func (m *ServiceManager) Interface() *SM {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.iface
}

// IsInitialized reports whether Initialize has been called
func (s *SM) IsInitialized() bool {
	return s.initialized.Load()
}

func (s *SM) initialize(req *kernel.HLERequestContext) error {
	s.initialized.Store(true)
	s.logger.Debug("initialized", logging.Process(req.Process.Name()))

	ipc.NewResponseBuilder(req, ipc.FlagsNone).Push(result.Success)
	return nil
}

func (s *SM) getService(req *kernel.HLERequestContext) error {
	client, err := s.getServiceImpl(req)
	if err != nil {
		return err
	}

	rb := ipc.NewResponseBuilder(req, ipc.AlwaysMoveHandles)
	rb.Push(result.Success)
	rb.PushMoveObjects(client)
	return nil
}

// getServiceTipc always answers with a move slot, empty on failure.
func (s *SM) getServiceTipc(req *kernel.HLERequestContext) error {
	client, err := s.getServiceImpl(req)

	var moved kernel.Object
	if err == nil {
		moved = client
	}
	rb := ipc.NewResponseBuilder(req, ipc.AlwaysMoveHandles)
	rb.Push(result.FromError(err))
	rb.PushMoveObjects(moved)
	return nil
}

func (s *SM) getServiceImpl(req *kernel.HLERequestContext) (client *kernel.ClientSession, err error) {
	if !s.initialized.Load() {
		return nil, ErrNotInitialized
	}

	name, err := ipc.PopServiceName(ipc.NewRequestParser(req))
	if err != nil {
		return nil, err
	}

	_, span := s.manager.tracer.StartSpan(req.Context(), "sm.GetServiceImpl",
		attribute.String("service", name),
		attribute.String("process", req.Process.Name()),
	)
	defer func() { s.manager.tracer.Finish(span, err) }()

	port, err := s.manager.GetServicePort(name)
	if err != nil {
		s.logger.Error("service lookup failed",
			logging.Service(name),
			logging.Result(result.FromError(err)),
		)
		return nil, err
	}

	client, err = port.ClientPort().CreateSession(req.Process)
	if err != nil {
		s.logger.Warn("session creation failed",
			logging.Service(name),
			logging.Process(req.Process.Name()),
			logging.Result(result.FromError(err)),
		)
		return nil, err
	}

	s.logger.Debug("session opened",
		logging.Service(name),
		logging.Session(client.Parent().ID()),
		zap.String("request_id", req.RequestID().String()),
	)
	return client, nil
}

func (s *SM) registerService(req *kernel.HLERequestContext) error {
	var params RegisterServiceParams
	if err := ipc.NewRequestParser(req).PopRaw(&params); err != nil {
		return err
	}
	name := ipc.DecodeServiceName(params.Name)

	s.logger.Debug("register service requested",
		logging.Service(name),
		zap.Uint32("max_sessions", params.MaxSessions),
		zap.Bool("light", params.IsLight != 0),
	)

	port, err := s.manager.RegisterService(name, params.MaxSessions, params.IsLight != 0)
	if err != nil {
		return err
	}
	// The registry keeps its reference; the moved handle is a new one.
	if !port.Open() {
		return kernel.ErrPortClosed
	}

	rb := ipc.NewResponseBuilder(req, ipc.AlwaysMoveHandles)
	rb.Push(result.Success)
	rb.PushMoveObjects(port)
	return nil
}

func (s *SM) unregisterService(req *kernel.HLERequestContext) error {
	name, err := ipc.PopServiceName(ipc.NewRequestParser(req))
	if err != nil {
		return err
	}
	if err := s.manager.UnregisterService(name); err != nil {
		return err
	}

	ipc.NewResponseBuilder(req, ipc.FlagsNone).Push(result.Success)
	return nil
}
