// Package id provides identifier generation for the HLE kernel.
//
// Two kinds of identifiers live here:
//   - Object IDs: dense uint64 values handed out by a Counter, one per kernel
//     object (ports, sessions, events). They are what the emulated side sees.
//   - Request and process IDs: prefixed ULIDs attached to HLE requests and
//     emulated processes for log and trace correlation. They are k-sortable,
//     so logs line up by time.
package id

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestID identifies one IPC request handled on the host side
type RequestID string

// ProcessID identifies an emulated process by name and instance
type ProcessID string

const (
	RequestPrefix = "req"
	ProcessPrefix = "proc"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewProcessID generates a new process ID
func NewProcessID() ProcessID {
	return ProcessID(Default().GenerateWithPrefix(ProcessPrefix))
}

func (id RequestID) String() string { return string(id) }
func (id ProcessID) String() string { return string(id) }

// ErrInvalidID is returned when a string is not a well-formed prefixed ULID
var ErrInvalidID = errors.New("invalid id")

// ParseProcessID checks that s has the proc_ prefix followed by a valid ULID.
func ParseProcessID(s string) (ProcessID, error) {
	raw, ok := strings.CutPrefix(s, ProcessPrefix+"_")
	if !ok {
		return "", fmt.Errorf("%q: missing %s_ prefix: %w", s, ProcessPrefix, ErrInvalidID)
	}
	if _, err := ulid.ParseStrict(raw); err != nil {
		return "", fmt.Errorf("%q: %v: %w", s, err, ErrInvalidID)
	}
	return ProcessID(s), nil
}

// Counter hands out monotonically increasing object IDs. The zero value is
// ready to use and the first Next returns 1.
type Counter struct {
	last atomic.Uint64
}

// NewCounter creates a counter whose first Next returns start+1
func NewCounter(start uint64) *Counter {
	c := &Counter{}
	c.last.Store(start)
	return c
}

// Next returns the next unused ID
func (c *Counter) Next() uint64 {
	return c.last.Add(1)
}

// Last returns the most recently issued ID, or the start value
func (c *Counter) Last() uint64 {
	return c.last.Load()
}
