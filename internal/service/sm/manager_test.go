package sm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/hlekernel/internal/kernel"
	"github.com/GriffinCanCode/hlekernel/internal/testutil"
)

func newTestManager(t *testing.T) (*kernel.Kernel, *ServiceManager) {
	t.Helper()
	k := testutil.NewKernel(t)
	m := NewServiceManager(k, zaptest.NewLogger(t))
	t.Cleanup(m.Close)
	return k, m
}

func TestRegisterAndLookup(t *testing.T) {
	_, m := newTestManager(t)

	server, err := m.RegisterService("test:svc", 4, true)
	require.NoError(t, err)

	port, err := m.GetServicePort("test:svc")
	require.NoError(t, err)
	assert.Same(t, server, port.ServerPort())
	assert.Equal(t, uint32(4), port.MaxSessions())
	assert.True(t, port.IsLight())
}

func TestRegisterDuplicate(t *testing.T) {
	_, m := newTestManager(t)

	first, err := m.RegisterService("dup", 1, false)
	require.NoError(t, err)

	_, err = m.RegisterService("dup", 8, true)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	port, err := m.GetServicePort("dup")
	require.NoError(t, err)
	assert.Same(t, first, port.ServerPort(), "existing entry must be untouched")
	assert.Equal(t, uint32(1), port.MaxSessions())
}

func TestInvalidNames(t *testing.T) {
	_, m := newTestManager(t)

	for _, name := range []string{"", "abcdefghi", "a\x01b", "sv\xffc", "nul\x00", "del\x7f"} {
		_, err := m.RegisterService(name, 1, false)
		assert.ErrorIs(t, err, ErrInvalidName, "register %q", name)

		assert.ErrorIs(t, m.UnregisterService(name), ErrInvalidName, "unregister %q", name)

		_, err = m.GetServicePort(name)
		assert.ErrorIs(t, err, ErrInvalidName, "lookup %q", name)
	}
	assert.Empty(t, m.Services())

	_, err := m.RegisterService("abcdefgh", 1, false)
	assert.NoError(t, err, "eight characters is the maximum, not past it")
}

func TestUnregisterMissing(t *testing.T) {
	_, m := newTestManager(t)

	assert.ErrorIs(t, m.UnregisterService("nope"), ErrServiceNotRegistered)
	_, err := m.GetServicePort("nope")
	assert.ErrorIs(t, err, ErrServiceNotRegistered)
}

func TestUnregisterClosesQueuedSessions(t *testing.T) {
	k, m := newTestManager(t)

	server, err := m.RegisterService("queued", 0, false)
	require.NoError(t, err)
	port := server.Parent()

	c1, err := port.ClientPort().CreateSession(nil)
	require.NoError(t, err)
	c2, err := port.ClientPort().CreateSession(nil)
	require.NoError(t, err)
	require.Equal(t, 2, server.PendingSessions())

	require.NoError(t, m.UnregisterService("queued"))
	_, err = m.GetServicePort("queued")
	assert.ErrorIs(t, err, ErrServiceNotRegistered)

	for _, c := range []*kernel.ClientSession{c1, c2} {
		assert.True(t, c.Parent().IsServerClosed())
		err := c.SendSyncRequest(kernel.NewRequest(context.Background(), nil, kernel.CommandTypeRequest, 0, nil))
		assert.ErrorIs(t, err, kernel.ErrSessionClosed)
		c.Close()
	}
	assert.Zero(t, testutil.LiveObjects(k))
}

func TestServicesSnapshot(t *testing.T) {
	_, m := newTestManager(t)

	_, err := m.RegisterService("b", 2, false)
	require.NoError(t, err)
	_, err = m.RegisterService("a", 0, true)
	require.NoError(t, err)

	port, err := m.GetServicePort("b")
	require.NoError(t, err)
	client, err := port.ClientPort().CreateSession(nil)
	require.NoError(t, err)
	defer client.Close()

	infos := m.Services()
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
	assert.True(t, infos[0].IsLight)
	assert.Equal(t, "b", infos[1].Name)
	assert.Equal(t, uint32(2), infos[1].MaxSessions)
	assert.Equal(t, uint32(1), infos[1].NumSessions)
	assert.Equal(t, 1, infos[1].PendingSessions)
	assert.False(t, infos[1].HLE)

	info, err := m.Service("b")
	require.NoError(t, err)
	assert.Equal(t, infos[1], info)

	_, err = m.Service("missing")
	assert.ErrorIs(t, err, ErrServiceNotRegistered)
}

func TestCloseRejectsRegistration(t *testing.T) {
	k := testutil.NewKernel(t)
	m := NewServiceManager(k, nil)

	_, err := m.RegisterService("svc", 1, false)
	require.NoError(t, err)

	m.Close()
	assert.Empty(t, m.Services())
	_, err = m.RegisterService("svc", 1, false)
	assert.ErrorIs(t, err, kernel.ErrInvalidState)
	assert.Zero(t, testutil.LiveObjects(k))
}
