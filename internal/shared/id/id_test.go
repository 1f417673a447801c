package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixedIDs(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		prefix string
	}{
		{"request", NewRequestID().String(), RequestPrefix},
		{"process", NewProcessID().String(), ProcessPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, raw, ok := strings.Cut(tt.id, "_")
			require.True(t, ok, "id %q has no separator", tt.id)
			assert.Equal(t, tt.prefix, prefix)
			assert.Len(t, raw, 26)
		})
	}
}

func TestParseProcessID(t *testing.T) {
	pid := NewProcessID()
	parsed, err := ParseProcessID(pid.String())
	require.NoError(t, err)
	assert.Equal(t, pid, parsed)

	for _, bad := range []string{
		"",
		"proc_",
		"proc_invalid",
		NewRequestID().String(),
		strings.TrimPrefix(pid.String(), "proc_"),
		"proc_zzzzzzzzzzzzzzzzzzzzzzzzzz",
	} {
		_, err := ParseProcessID(bad)
		assert.ErrorIs(t, err, ErrInvalidID, "id %q", bad)
	}
}

func TestGeneratorSortsByTime(t *testing.T) {
	gen := NewGenerator()

	ids := make([]string, 5)
	for i := range ids {
		ids[i] = gen.GenerateString()
		time.Sleep(2 * time.Millisecond)
	}
	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1])
	}
	assert.Same(t, Default(), Default())
}

func TestConcurrentGeneration(t *testing.T) {
	const (
		goroutines = 32
		perWorker  = 100
	)

	gen := NewGenerator()
	out := make(chan string, goroutines*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				out <- gen.GenerateWithPrefix(RequestPrefix)
			}
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[string]bool)
	for v := range out {
		assert.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
	assert.Len(t, seen, goroutines*perWorker)
}

func TestCounter(t *testing.T) {
	var zero Counter
	assert.Equal(t, uint64(1), zero.Next())

	c := NewCounter(41)
	assert.Equal(t, uint64(42), c.Next())
	assert.Equal(t, uint64(42), c.Last())
}

func TestCounterConcurrent(t *testing.T) {
	const (
		goroutines = 50
		perWorker  = 200
	)

	c := NewCounter(0)
	out := make(chan uint64, goroutines*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				out <- c.Next()
			}
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[uint64]bool)
	for v := range out {
		assert.False(t, seen[v], "duplicate object id %d", v)
		seen[v] = true
	}
	assert.Equal(t, uint64(goroutines*perWorker), c.Last())
}
