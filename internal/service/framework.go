package service

import (
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/hlekernel/internal/ipc"
	"github.com/GriffinCanCode/hlekernel/internal/kernel"
	"github.com/GriffinCanCode/hlekernel/internal/shared/result"
)

// HandlerFunc serves one command. Returning an error answers the request
// with the error's result code; a handler that already wrote its response
// returns nil.
type HandlerFunc func(req *kernel.HLERequestContext) error

// FunctionInfo is one entry of a command table
type FunctionInfo struct {
	ID      uint32
	Name    string
	Handler HandlerFunc
}

// Registrar is where a framework publishes its port
type Registrar interface {
	RegisterService(name string, maxSessions uint32, isLight bool) (*kernel.ServerPort, error)
}

// Framework dispatches HLE requests through command tables
type Framework struct {
	name        string
	maxSessions uint32
	isLight     bool

	logger  *zap.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer

	mu           sync.RWMutex
	handlers     map[uint32]FunctionInfo
	handlersTipc map[uint32]FunctionInfo

	controller kernel.SessionRequestHandler
}

// Option configures a Framework
type Option func(*Framework)

// WithLogger sets the framework logger
func WithLogger(logger *zap.Logger) Option {
	return func(f *Framework) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMetrics attaches a metrics collector
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(f *Framework) {
		f.metrics = metrics
	}
}

// WithTracer attaches a tracer
func WithTracer(tracer *tracing.Tracer) Option {
	return func(f *Framework) {
		f.tracer = tracer
	}
}

// WithLight marks the service as using the light (TIPC) transport
func WithLight(isLight bool) Option {
	return func(f *Framework) {
		f.isLight = isLight
	}
}

// WithController overrides the control-channel handler
func WithController(controller kernel.SessionRequestHandler) Option {
	return func(f *Framework) {
		f.controller = controller
	}
}

// NewFramework creates a framework with empty command tables
func NewFramework(name string, maxSessions uint32, opts ...Option) *Framework {
	f := newFramework(name, maxSessions, opts...)
	if f.controller == nil {
		f.controller = NewController(f.logger, f.metrics)
	}
	return f
}

func newFramework(name string, maxSessions uint32, opts ...Option) *Framework {
	f := &Framework{
		name:         name,
		maxSessions:  maxSessions,
		logger:       zap.NewNop(),
		handlers:     make(map[uint32]FunctionInfo),
		handlersTipc: make(map[uint32]FunctionInfo),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(logging.Service(name))
	return f
}

// Name returns the service name
func (f *Framework) Name() string { return f.name }

// MaxSessions returns the port session cap
func (f *Framework) MaxSessions() uint32 { return f.maxSessions }

// IsLight reports whether the service speaks TIPC
func (f *Framework) IsLight() bool { return f.isLight }

// RegisterHandlers adds entries to the request command table
func (f *Framework) RegisterHandlers(functions []FunctionInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fn := range functions {
		f.handlers[fn.ID] = fn
	}
}

// RegisterHandlersTipc adds entries to the TIPC command table
func (f *Framework) RegisterHandlersTipc(functions []FunctionInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fn := range functions {
		f.handlersTipc[fn.ID] = fn
	}
}

// Functions lists the request command table ordered by ID
func (f *Framework) Functions() []FunctionInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return sortedFunctions(f.handlers)
}

// FunctionsTipc lists the TIPC command table ordered by ID
func (f *Framework) FunctionsTipc() []FunctionInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return sortedFunctions(f.handlersTipc)
}

func sortedFunctions(table map[uint32]FunctionInfo) []FunctionInfo {
	out := make([]FunctionInfo, 0, len(table))
	for _, fn := range table {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InstallAsService registers the service and serves its port
func (f *Framework) InstallAsService(registrar Registrar) error {
	port, err := registrar.RegisterService(f.name, f.maxSessions, f.isLight)
	if err != nil {
		return fmt.Errorf("install %q: %w", f.name, err)
	}
	port.SetSessionHandler(f)
	f.logger.Info("service installed",
		zap.Uint32("max_sessions", f.maxSessions),
		zap.Bool("light", f.isLight),
	)
	return nil
}

// CreatePort builds a standalone port served by f. The caller owns the
// returned port reference.
func (f *Framework) CreatePort(k *kernel.Kernel) *kernel.Port {
	port := kernel.NewPort(k, f.name, f.maxSessions, f.isLight)
	port.ServerPort().SetSessionHandler(f)
	return port
}

// HandleSyncRequest implements kernel.SessionRequestHandler
func (f *Framework) HandleSyncRequest(session *kernel.ServerSession, req *kernel.HLERequestContext) error {
	switch {
	case req.Type == kernel.CommandTypeControl:
		return f.controller.HandleSyncRequest(session, req)
	case req.Type == kernel.CommandTypeClose:
		ipc.NewResponseBuilder(req, ipc.FlagsNone).Push(result.Success)
		return nil
	case req.IsTipc():
		f.invoke(req, f.lookup(f.handlersTipc, req.Command), ipc.AlwaysMoveHandles)
		return nil
	case req.Type == kernel.CommandTypeRequest:
		f.invoke(req, f.lookup(f.handlers, req.Command), ipc.FlagsNone)
		return nil
	default:
		f.logger.Warn("unknown command type",
			zap.Stringer("type", req.Type),
			zap.String("request_id", req.RequestID().String()),
		)
		ipc.NewResponseBuilder(req, ipc.FlagsNone).Push(result.Unknown)
		return nil
	}
}

func (f *Framework) lookup(table map[uint32]FunctionInfo, command uint32) FunctionInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fn, ok := table[command]
	if !ok {
		return FunctionInfo{ID: command, Name: fmt.Sprintf("unknown_%d", command)}
	}
	return fn
}

func (f *Framework) invoke(req *kernel.HLERequestContext, fn FunctionInfo, flags ipc.Flags) {
	timer := monitoring.NewTimer(f.metrics, f.name, fn.Name)
	ctx, span := f.tracer.StartSpan(req.Context(), f.name+"."+fn.Name,
		attribute.Int64("command", int64(fn.ID)),
		attribute.String("request_id", req.RequestID().String()),
	)

	var err error
	if fn.Handler == nil {
		f.reportUnimplemented(req, fn)
		ipc.NewResponseBuilder(req, flags).Push(result.Unknown)
	} else {
		req.SetContext(ctx)
		err = fn.Handler(req)
		if err != nil {
			// Objects pushed before the failure are never delivered.
			req.CloseObjects()
			ipc.NewResponseBuilder(req, flags).Push(result.FromError(err))
			f.logger.Debug("command failed",
				zap.String("command", fn.Name),
				logging.Result(result.FromError(err)),
				zap.Error(err),
			)
		}
	}

	code := ipc.ResultOf(req)
	f.tracer.Finish(span, err)
	timer.Stop(code.String())
}

func (f *Framework) reportUnimplemented(req *kernel.HLERequestContext, fn FunctionInfo) {
	f.logger.Warn("unimplemented command",
		zap.Uint32("command", fn.ID),
		zap.String("name", fn.Name),
		zap.Stringer("type", req.Type),
		zap.Int("payload_bytes", len(req.Data)),
		zap.String("request_id", req.RequestID().String()),
	)
}
