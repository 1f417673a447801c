package kernel

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Type names reported by Object.TypeName and used by the object census.
const (
	TypePort          = "Port"
	TypeServerPort    = "ServerPort"
	TypeClientPort    = "ClientPort"
	TypeSession       = "Session"
	TypeServerSession = "ServerSession"
	TypeClientSession = "ClientSession"
	TypeEvent         = "Event"
)

// Object is a reference counted kernel object.
type Object interface {
	ID() uint64
	Name() string
	TypeName() string
	// Open takes a reference. It fails once the object has been destroyed.
	Open() bool
	// Close drops a reference; the last one destroys the object.
	Close()
}

// AutoObject carries identity and a reference count. The object starts with
// one reference owned by its creator.
//
// A component AutoObject (ServerPort, ClientPort) has no count of its own and
// forwards Open/Close to its parent, so handles to either end of a Port keep
// the whole Port alive.
type AutoObject struct {
	kernel   *Kernel
	id       uint64
	typeName string
	name     string

	refs      atomic.Int32
	destroyed atomic.Bool
	onDestroy func()

	parent *AutoObject
}

func (o *AutoObject) init(k *Kernel, typeName, name string, onDestroy func()) {
	o.kernel = k
	o.id = k.ids.Next()
	o.typeName = typeName
	o.name = name
	o.onDestroy = onDestroy
	o.refs.Store(1)
	k.track(typeName, 1)
}

func (o *AutoObject) initComponent(k *Kernel, typeName, name string, parent *AutoObject) {
	o.kernel = k
	o.id = k.ids.Next()
	o.typeName = typeName
	o.name = name
	o.parent = parent
	k.track(typeName, 1)
}

// ID returns the kernel-wide object ID.
func (o *AutoObject) ID() uint64 { return o.id }

// Name returns the debug name.
func (o *AutoObject) Name() string { return o.name }

// TypeName returns the object type.
func (o *AutoObject) TypeName() string { return o.typeName }

// Open takes a reference.
func (o *AutoObject) Open() bool {
	if o.parent != nil {
		return o.parent.Open()
	}
	for {
		cur := o.refs.Load()
		if cur <= 0 {
			return false
		}
		if o.refs.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// Close drops a reference and destroys the object when it was the last one.
func (o *AutoObject) Close() {
	if o.parent != nil {
		o.parent.Close()
		return
	}
	n := o.refs.Add(-1)
	switch {
	case n == 0:
		o.destroy()
	case n < 0:
		o.refs.Store(0)
		o.kernel.logger.Error("object closed more times than opened",
			zap.String("type", o.typeName),
			zap.Uint64("id", o.id),
			zap.String("name", o.name),
		)
	}
}

// RefCount returns the current number of references.
func (o *AutoObject) RefCount() int32 {
	if o.parent != nil {
		return o.parent.RefCount()
	}
	return o.refs.Load()
}

// IsDestroyed reports whether the last reference has been dropped.
func (o *AutoObject) IsDestroyed() bool {
	if o.parent != nil {
		return o.parent.IsDestroyed()
	}
	return o.destroyed.Load()
}

func (o *AutoObject) destroy() {
	if !o.destroyed.CompareAndSwap(false, true) {
		return
	}
	if o.onDestroy != nil {
		o.onDestroy()
	}
	o.kernel.track(o.typeName, -1)
}
