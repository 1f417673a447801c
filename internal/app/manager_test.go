package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/config"
	"github.com/GriffinCanCode/hlekernel/internal/ipc"
	"github.com/GriffinCanCode/hlekernel/internal/kernel"
	"github.com/GriffinCanCode/hlekernel/internal/service/sm"
	"github.com/GriffinCanCode/hlekernel/internal/shared/result"
	"github.com/GriffinCanCode/hlekernel/internal/testutil"
)

var testManifest = &config.Manifest{
	SessionLimit: 3,
	Services: []config.ManifestService{
		{Name: "test:svc", MaxSessions: 1},
		{Name: "other", MaxSessions: 4, Light: true},
	},
}

// startManager boots m and serves it until the test ends
func startManager(t *testing.T, manifest *config.Manifest) *Manager {
	t.Helper()

	m, err := NewManager(Options{
		Logger:      zaptest.NewLogger(t),
		WaitTimeout: time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, m.Boot(manifest))

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Run(ctx) })

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, g.Wait())
		m.Shutdown()
	})
	return m
}

func TestBoot(t *testing.T) {
	m := startManager(t, testManifest)

	assert.Equal(t, int64(3), m.SessionLimit())
	infos := m.Services().Services()
	require.Len(t, infos, 2)
	assert.Equal(t, "other", infos[0].Name)
	assert.True(t, infos[0].IsLight)
	assert.True(t, infos[0].HLE)
	assert.Equal(t, "test:svc", infos[1].Name)
	assert.Equal(t, uint32(1), infos[1].MaxSessions)
}

func TestBootDuplicateService(t *testing.T) {
	m := startManager(t, nil)

	manifest := &config.Manifest{Services: []config.ManifestService{{Name: "dup"}, {Name: "dup"}}}
	assert.ErrorIs(t, m.Boot(manifest), sm.ErrAlreadyRegistered)
}

func TestSpawnInitializesSM(t *testing.T) {
	m := startManager(t, testManifest)

	proc, err := m.Spawn(t.Context(), "game")
	require.NoError(t, err)

	assert.Equal(t, StateRunning, proc.State())
	assert.True(t, m.Services().Interface().IsInitialized())
	// The "sm:" connection holds one session unit
	assert.Equal(t, int64(1), proc.Limit().CurrentValue(kernel.Sessions))

	got, ok := m.Get(proc.ID())
	require.True(t, ok)
	assert.Same(t, proc, got)
}

func TestGetService(t *testing.T) {
	m := startManager(t, testManifest)
	proc, err := m.Spawn(t.Context(), "game")
	require.NoError(t, err)

	client, err := m.GetService(t.Context(), proc.ID(), "test:svc")
	require.NoError(t, err)

	// Stub services answer every command as unimplemented
	req := testutil.Request(proc.Process, 7, nil)
	require.NoError(t, client.SendSyncRequest(req))
	assert.Equal(t, result.Unknown, ipc.ResultOf(req))

	// test:svc allows one session
	_, err = m.GetService(t.Context(), proc.ID(), "test:svc")
	assert.ErrorIs(t, err, kernel.ErrPortCapacityReached)

	_, err = m.GetService(t.Context(), proc.ID(), "missing")
	assert.ErrorIs(t, err, sm.ErrServiceNotRegistered)

	_, err = m.GetService(t.Context(), "proc_unknown", "test:svc")
	assert.ErrorIs(t, err, kernel.ErrNotFound)
}

func TestGetServiceRespectsSessionLimit(t *testing.T) {
	m := startManager(t, testManifest)
	proc, err := m.Spawn(t.Context(), "game")
	require.NoError(t, err)

	// Limit 3: "sm:" plus two service sessions
	_, err = m.GetService(t.Context(), proc.ID(), "other")
	require.NoError(t, err)
	_, err = m.GetService(t.Context(), proc.ID(), "other")
	require.NoError(t, err)

	_, err = m.GetService(t.Context(), proc.ID(), "other")
	assert.ErrorIs(t, err, kernel.ErrResourceLimitReached)
	assert.Equal(t, int64(3), proc.Limit().CurrentValue(kernel.Sessions))
}

func TestCloseReleasesSessions(t *testing.T) {
	m := startManager(t, testManifest)
	proc, err := m.Spawn(t.Context(), "game")
	require.NoError(t, err)

	_, err = m.GetService(t.Context(), proc.ID(), "test:svc")
	require.NoError(t, err)

	assert.True(t, m.Close(proc.ID()))
	assert.False(t, m.Close(proc.ID()))
	assert.Equal(t, StateExited, proc.State())

	// The server manager reaps the server ends asynchronously
	require.Eventually(t, func() bool {
		return proc.Limit().CurrentValue(kernel.Sessions) == 0
	}, time.Second, 5*time.Millisecond)

	port, err := m.Services().GetServicePort("test:svc")
	require.NoError(t, err)
	assert.Zero(t, port.ClientPort().NumSessions())

	// The capacity freed up for the next process
	next, err := m.Spawn(t.Context(), "next")
	require.NoError(t, err)
	_, err = m.GetService(t.Context(), next.ID(), "test:svc")
	assert.NoError(t, err)
}

func TestListAndStats(t *testing.T) {
	m := startManager(t, testManifest)

	first, err := m.Spawn(t.Context(), "first")
	require.NoError(t, err)
	_, err = m.Spawn(t.Context(), "second")
	require.NoError(t, err)
	_, err = m.GetService(t.Context(), first.ID(), "other")
	require.NoError(t, err)

	infos := m.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "first", infos[0].Name)
	assert.Equal(t, int64(2), infos[0].Sessions)
	assert.Equal(t, int64(3), infos[0].Limit)
	assert.Equal(t, "second", infos[1].Name)

	stats := m.Stats()
	assert.Equal(t, 2, stats.TotalProcesses)
	assert.Equal(t, int64(3), stats.OpenSessions)
}

func TestShutdownLeavesNoObjects(t *testing.T) {
	m, err := NewManager(Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	require.NoError(t, m.Boot(testManifest))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	proc, err := m.Spawn(t.Context(), "game")
	require.NoError(t, err)
	_, err = m.GetService(t.Context(), proc.ID(), "other")
	require.NoError(t, err)

	cancel()
	require.NoError(t, <-done)
	m.Shutdown()

	assert.Zero(t, testutil.LiveObjects(m.Kernel()))
	assert.Equal(t, StateExited, proc.State())
}
