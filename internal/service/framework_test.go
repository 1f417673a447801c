package service

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hlekernel/internal/ipc"
	"github.com/GriffinCanCode/hlekernel/internal/kernel"
	"github.com/GriffinCanCode/hlekernel/internal/shared/result"
	"github.com/GriffinCanCode/hlekernel/internal/testutil"
)

func echo(req *kernel.HLERequestContext) error {
	rb := ipc.NewResponseBuilder(req, ipc.FlagsNone)
	rb.Push(result.Success)
	return rb.PushRaw(&struct{ Value uint32 }{Value: uint32(len(req.Data))})
}

func newEchoFramework(t *testing.T, opts ...Option) *Framework {
	t.Helper()
	opts = append(opts, WithLogger(zaptest.NewLogger(t)))
	f := NewFramework("test:svc", 0, opts...)
	f.RegisterHandlers([]FunctionInfo{
		{ID: 0, Name: "Echo", Handler: echo},
		{ID: 1, Name: "Unfinished"},
		{ID: 2, Name: "Fails", Handler: func(*kernel.HLERequestContext) error {
			return kernel.ErrPortClosed
		}},
		{ID: 3, Name: "FailsUntyped", Handler: func(*kernel.HLERequestContext) error {
			return errors.New("boom")
		}},
	})
	f.RegisterHandlersTipc([]FunctionInfo{
		{ID: 5, Name: "EchoTipc", Handler: echo},
	})
	return f
}

func connect(t *testing.T, k *kernel.Kernel, f *Framework) (*kernel.Port, *kernel.ClientSession) {
	t.Helper()
	port := f.CreatePort(k)
	client, err := port.ClientPort().CreateSession(nil)
	require.NoError(t, err)
	return port, client
}

func TestFrameworkDispatch(t *testing.T) {
	k := testutil.NewKernel(t)
	port, client := connect(t, k, newEchoFramework(t))
	defer port.Close()
	defer client.Close()

	tests := []struct {
		name    string
		command uint32
		want    result.Code
	}{
		{"implemented", 0, result.Success},
		{"nil handler", 1, result.Unknown},
		{"typed error", 2, kernel.ErrPortClosed},
		{"untyped error", 3, result.Unknown},
		{"missing command", 42, result.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.Request(nil, tt.command, []byte("abc"))
			require.NoError(t, client.SendSyncRequest(req))
			assert.Equal(t, tt.want, ipc.ResultOf(req))
		})
	}
}

func TestFrameworkResponsePayload(t *testing.T) {
	k := testutil.NewKernel(t)
	port, client := connect(t, k, newEchoFramework(t))
	defer port.Close()
	defer client.Close()

	req := testutil.Request(nil, 0, []byte("abcd"))
	require.NoError(t, client.SendSyncRequest(req))
	assert.Equal(t, []byte{4, 0, 0, 0}, ipc.Payload(req))
}

func TestFrameworkTipcTable(t *testing.T) {
	k := testutil.NewKernel(t)
	port, client := connect(t, k, newEchoFramework(t))
	defer port.Close()
	defer client.Close()

	req := kernel.NewTipcRequest(t.Context(), nil, 5, []byte("x"))
	require.NoError(t, client.SendSyncRequest(req))
	assert.Equal(t, result.Success, ipc.ResultOf(req))

	// Request-table IDs are not reachable over TIPC.
	req = kernel.NewTipcRequest(t.Context(), nil, 0, nil)
	require.NoError(t, client.SendSyncRequest(req))
	assert.Equal(t, result.Unknown, ipc.ResultOf(req))
}

func TestFrameworkCloseAndInvalidTypes(t *testing.T) {
	k := testutil.NewKernel(t)
	port, client := connect(t, k, newEchoFramework(t))
	defer port.Close()
	defer client.Close()

	req := kernel.NewRequest(t.Context(), nil, kernel.CommandTypeClose, 0, nil)
	require.NoError(t, client.SendSyncRequest(req))
	assert.Equal(t, result.Success, ipc.ResultOf(req))

	req = kernel.NewRequest(t.Context(), nil, kernel.CommandTypeInvalid, 0, nil)
	require.NoError(t, client.SendSyncRequest(req))
	assert.Equal(t, result.Unknown, ipc.ResultOf(req))
}

func TestFrameworkFunctions(t *testing.T) {
	f := newEchoFramework(t)

	fns := f.Functions()
	require.Len(t, fns, 4)
	for i, fn := range fns {
		assert.Equal(t, uint32(i), fn.ID)
	}
	assert.Nil(t, fns[1].Handler)
	assert.Len(t, f.FunctionsTipc(), 1)
}

func TestFrameworkMetrics(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	k := testutil.NewKernel(t)
	port, client := connect(t, k, newEchoFramework(t, WithMetrics(metrics)))
	defer port.Close()
	defer client.Close()

	require.NoError(t, client.SendSyncRequest(testutil.Request(nil, 0, nil)))
	require.NoError(t, client.SendSyncRequest(testutil.Request(nil, 1, nil)))

	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.IPCRequests.WithLabelValues("test:svc", "Echo", result.Success.String())))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.IPCRequests.WithLabelValues("test:svc", "Unfinished", result.Unknown.String())))
}

func TestInstallAsService(t *testing.T) {
	k := testutil.NewKernel(t)
	port := kernel.NewPort(k, "test:svc", 2, true)
	defer port.Close()

	registrar := new(testutil.MockRegistrar)
	registrar.On("RegisterService", "test:svc", uint32(2), true).Return(port.ServerPort(), nil).Once()

	f := NewFramework("test:svc", 2, WithLight(true), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, f.InstallAsService(registrar))
	assert.Same(t, f, port.ServerPort().GetSessionRequestHandler())
	registrar.AssertExpectations(t)
}

func TestInstallAsServiceFailure(t *testing.T) {
	registrar := new(testutil.MockRegistrar)
	registrar.On("RegisterService", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, kernel.ErrInvalidState)

	err := NewFramework("dup", 1).InstallAsService(registrar)
	assert.ErrorIs(t, err, kernel.ErrInvalidState)
}
