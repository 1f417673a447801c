package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hlekernel/internal/ipc"
	"github.com/GriffinCanCode/hlekernel/internal/kernel"
	"github.com/GriffinCanCode/hlekernel/internal/shared/result"
)

// PointerBufferSize is reported by QueryPointerBufferSize
const PointerBufferSize uint16 = 0x8000

// Controller answers control-channel requests on any HLE session
type Controller struct {
	*Framework
}

// NewController creates the control-channel handler
func NewController(logger *zap.Logger, metrics *monitoring.Metrics) *Controller {
	c := &Controller{
		Framework: newFramework("IpcController", 0, WithLogger(logger), WithMetrics(metrics)),
	}
	c.RegisterHandlers([]FunctionInfo{
		{ID: 0, Name: "ConvertCurrentObjectToDomain"},
		{ID: 1, Name: "CopyFromCurrentDomain"},
		{ID: 2, Name: "CloneCurrentObject", Handler: c.cloneCurrentObject},
		{ID: 3, Name: "QueryPointerBufferSize", Handler: c.queryPointerBufferSize},
		{ID: 4, Name: "CloneCurrentObjectEx", Handler: c.cloneCurrentObject},
	})
	return c
}

// HandleSyncRequest dispatches a control request by command ID
func (c *Controller) HandleSyncRequest(session *kernel.ServerSession, req *kernel.HLERequestContext) error {
	c.invoke(req, c.lookup(c.handlers, req.Command), ipc.FlagsNone)
	return nil
}

// cloneCurrentObject opens another session to the port the current one came
// from and moves its client end to the caller.
func (c *Controller) cloneCurrentObject(req *kernel.HLERequestContext) error {
	if req.Session == nil {
		return fmt.Errorf("clone without session: %w", kernel.ErrSessionClosed)
	}
	port := req.Session.Parent().ClientPort()

	client, err := port.CreateSession(req.Process)
	if err != nil {
		return fmt.Errorf("clone session on %q: %w", port.Name(), err)
	}

	rb := ipc.NewResponseBuilder(req, ipc.FlagsNone)
	rb.Push(result.Success)
	rb.PushMoveObjects(client)

	c.logger.Debug("session cloned",
		zap.String("port", port.Name()),
		logging.Session(client.Parent().ID()),
	)
	return nil
}

func (c *Controller) queryPointerBufferSize(req *kernel.HLERequestContext) error {
	rb := ipc.NewResponseBuilder(req, ipc.FlagsNone)
	rb.Push(result.Success)
	rb.PushUint16(PointerBufferSize)
	return nil
}
