// Package testutil provides testing utilities and helpers shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/hlekernel/internal/kernel"
)

// MockSessionRequestHandler is a mock implementation of kernel.SessionRequestHandler.
type MockSessionRequestHandler struct {
	mock.Mock
}

// HandleSyncRequest mocks the HandleSyncRequest method.
func (m *MockSessionRequestHandler) HandleSyncRequest(session *kernel.ServerSession, req *kernel.HLERequestContext) error {
	args := m.Called(session, req)
	return args.Error(0)
}

// MockRegistrar is a mock implementation of service.Registrar.
type MockRegistrar struct {
	mock.Mock
}

// RegisterService mocks the RegisterService method.
func (m *MockRegistrar) RegisterService(name string, maxSessions uint32, isLight bool) (*kernel.ServerPort, error) {
	args := m.Called(name, maxSessions, isLight)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kernel.ServerPort), args.Error(1)
}

// NewMockSessionRequestHandler creates a handler mock that succeeds by default.
func NewMockSessionRequestHandler(t *testing.T) *MockSessionRequestHandler {
	t.Helper()
	m := new(MockSessionRequestHandler)

	m.On("HandleSyncRequest", mock.Anything, mock.Anything).
		Return(nil).
		Maybe()

	return m
}

// NewKernel creates a kernel logging to the test log.
func NewKernel(t *testing.T) *kernel.Kernel {
	t.Helper()
	return kernel.New(kernel.WithLogger(zaptest.NewLogger(t)))
}

// NewProcess creates a process whose session limit is sessions (0 = unlimited).
func NewProcess(t *testing.T, name string, sessions int64) (*kernel.Process, *kernel.ResourceLimit) {
	t.Helper()
	limit := kernel.NewResourceLimit()
	require.NoError(t, limit.SetLimitValue(kernel.Sessions, sessions))
	return kernel.NewProcess(name, limit), limit
}

// Request builds a plain request for process.
func Request(process *kernel.Process, command uint32, data []byte) *kernel.HLERequestContext {
	return kernel.NewRequest(context.Background(), process, kernel.CommandTypeRequest, command, data)
}

// ControlRequest builds a control-channel request for process.
func ControlRequest(process *kernel.Process, command uint32) *kernel.HLERequestContext {
	return kernel.NewRequest(context.Background(), process, kernel.CommandTypeControl, command, nil)
}

// LiveObjects sums the object census across every kernel object type.
func LiveObjects(k *kernel.Kernel) int64 {
	var total int64
	for _, typ := range []string{
		kernel.TypePort, kernel.TypeServerPort, kernel.TypeClientPort,
		kernel.TypeSession, kernel.TypeServerSession, kernel.TypeClientSession,
		kernel.TypeEvent,
	} {
		total += k.ObjectCount(typ)
	}
	return total
}
