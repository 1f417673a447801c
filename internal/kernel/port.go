package kernel

// Port is a named rendezvous point: one ServerPort the service accepts on and
// one ClientPort connections are requested through. Both ends share the
// Port's reference count and die with it.
type Port struct {
	AutoObject

	server  ServerPort
	client  ClientPort
	isLight bool
}

// NewPort creates a port. maxSessions caps concurrently open session pairs;
// 0 means unlimited.
func NewPort(k *Kernel, name string, maxSessions uint32, isLight bool) *Port {
	p := &Port{isLight: isLight}
	p.init(k, TypePort, name, p.finalize)
	p.server.initServerPort(k, p, name)
	p.client.initClientPort(k, p, name, maxSessions)
	return p
}

// ServerPort returns the accepting end
func (p *Port) ServerPort() *ServerPort { return &p.server }

// ClientPort returns the connecting end
func (p *Port) ClientPort() *ClientPort { return &p.client }

// IsLight reports whether sessions use the light IPC path
func (p *Port) IsLight() bool { return p.isLight }

// MaxSessions returns the session cap, 0 for unlimited
func (p *Port) MaxSessions() uint32 { return p.client.maxSessions }

func (p *Port) finalize() {
	p.server.Destroy()
	p.kernel.track(TypeServerPort, -1)
	p.kernel.track(TypeClientPort, -1)
}
