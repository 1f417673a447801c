package kernel

import (
	"context"

	"github.com/GriffinCanCode/hlekernel/internal/shared/id"
)

// SessionRequestHandler serves requests on sessions whose service runs on the
// host. A session snapshots its port's handler when it is created.
type SessionRequestHandler interface {
	// HandleSyncRequest handles one request on session. Reply bytes and
	// transferred objects are written into req. A returned error aborts the
	// request; it is reported to the caller as is.
	HandleSyncRequest(session *ServerSession, req *HLERequestContext) error
}

// SessionRequestHandlerFunc adapts a function to SessionRequestHandler
type SessionRequestHandlerFunc func(session *ServerSession, req *HLERequestContext) error

// HandleSyncRequest calls f(session, req)
func (f SessionRequestHandlerFunc) HandleSyncRequest(session *ServerSession, req *HLERequestContext) error {
	return f(session, req)
}

// CommandType is the kind of message carried by a request
type CommandType uint16

const (
	CommandTypeInvalid CommandType = 0
	CommandTypeClose   CommandType = 2
	CommandTypeRequest CommandType = 4
	CommandTypeControl CommandType = 5
	// CommandTypeTIPC is the first TIPC type; the method ID is Type-16.
	CommandTypeTIPC CommandType = 16
)

// String returns the command type name
func (t CommandType) String() string {
	switch {
	case t == CommandTypeClose:
		return "close"
	case t == CommandTypeRequest:
		return "request"
	case t == CommandTypeControl:
		return "control"
	case t >= CommandTypeTIPC:
		return "tipc"
	default:
		return "invalid"
	}
}

// HLERequestContext is one synchronous request in flight. The caller fills
// in the command and payload; the handler fills in the response and any
// objects it hands back.
type HLERequestContext struct {
	ctx       context.Context
	requestID id.RequestID

	Type    CommandType
	Command uint32
	Process *Process
	Session *ServerSession

	Data     []byte
	Response []byte

	// MoveObjects hand over a reference the sender owned; CopyObjects carry a
	// freshly opened one. Either way the receiver must Close what it gets.
	MoveObjects []Object
	CopyObjects []Object

	done *Event
	err  error
}

// NewRequest creates a request with a fresh request ID
func NewRequest(ctx context.Context, process *Process, typ CommandType, command uint32, data []byte) *HLERequestContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &HLERequestContext{
		ctx:       ctx,
		requestID: id.NewRequestID(),
		Type:      typ,
		Command:   command,
		Process:   process,
		Data:      data,
	}
}

// NewTipcRequest creates a TIPC request for method
func NewTipcRequest(ctx context.Context, process *Process, method uint32, data []byte) *HLERequestContext {
	return NewRequest(ctx, process, CommandTypeTIPC+CommandType(method), method, data)
}

// Context returns the request context
func (r *HLERequestContext) Context() context.Context { return r.ctx }

// SetContext replaces the request context, typically with one carrying a span
func (r *HLERequestContext) SetContext(ctx context.Context) {
	if ctx != nil {
		r.ctx = ctx
	}
}

// RequestID returns the correlation ID
func (r *HLERequestContext) RequestID() id.RequestID { return r.requestID }

// IsTipc reports whether the request uses the TIPC protocol
func (r *HLERequestContext) IsTipc() bool { return r.Type >= CommandTypeTIPC }

// Err returns the error the request completed with on the emulated path
func (r *HLERequestContext) Err() error { return r.err }

// CloseObjects drops every object the request still carries. Receivers that
// keep an object must remove it from the slice first.
func (r *HLERequestContext) CloseObjects() {
	for _, obj := range r.MoveObjects {
		if obj != nil {
			obj.Close()
		}
	}
	for _, obj := range r.CopyObjects {
		if obj != nil {
			obj.Close()
		}
	}
	r.MoveObjects = nil
	r.CopyObjects = nil
}

func (r *HLERequestContext) complete(err error) {
	r.err = err
	if r.done != nil {
		r.done.Signal()
	}
}
