package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	return New(WithLogger(zaptest.NewLogger(t)))
}

func assertNoLiveObjects(t *testing.T, k *Kernel) {
	t.Helper()
	for _, typ := range []string{
		TypePort, TypeServerPort, TypeClientPort,
		TypeSession, TypeServerSession, TypeClientSession,
		TypeEvent,
	} {
		assert.Zero(t, k.ObjectCount(typ), "live %s objects", typ)
	}
}

func TestNamedPort(t *testing.T) {
	k := newTestKernel(t)
	port := NewPort(k, "sm:", 0, false)

	require.NoError(t, k.RegisterNamedPort("sm:", port))
	assert.ErrorIs(t, k.RegisterNamedPort("sm:", port), ErrInvalidState)
	assert.Equal(t, []string{"sm:"}, k.NamedPorts())

	client, err := k.ConnectToNamedPort(nil, "sm:")
	require.NoError(t, err)
	assert.Equal(t, 1, port.ServerPort().PendingSessions())

	_, err = k.ConnectToNamedPort(nil, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	port.Close()
	k.Shutdown()
	assert.Empty(t, k.NamedPorts())

	// The queued server end was drained by the shutdown.
	req := NewRequest(context.Background(), nil, CommandTypeRequest, 0, nil)
	assert.ErrorIs(t, client.SendSyncRequest(req), ErrSessionClosed)

	client.Close()
	assertNoLiveObjects(t, k)
}

func TestObjectIDsAreUnique(t *testing.T) {
	k := newTestKernel(t)
	port := NewPort(k, "ids", 0, false)
	defer port.Close()

	ids := map[uint64]bool{
		port.ID():              true,
		port.ServerPort().ID(): true,
		port.ClientPort().ID(): true,
	}
	assert.Len(t, ids, 3)
}

func TestCensus(t *testing.T) {
	k := newTestKernel(t)
	port := NewPort(k, "census", 0, false)

	census := k.Census()
	assert.Equal(t, int64(1), census[TypePort])
	assert.Equal(t, int64(1), census[TypeServerPort])
	assert.Equal(t, int64(1), census[TypeClientPort])

	// The copy is detached from the kernel
	census[TypePort] = 42
	assert.Equal(t, int64(1), k.ObjectCount(TypePort))

	port.Close()
	for typ, n := range k.Census() {
		assert.Zero(t, n, "live %s objects", typ)
	}
}
