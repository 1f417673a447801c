package kernel

import (
	"fmt"
	"time"
)

// ClientSession is the caller side of a session
type ClientSession struct {
	AutoObject

	parent *Session
}

func (c *ClientSession) initClientSession(k *Kernel, parent *Session) {
	c.init(k, TypeClientSession, parent.name, parent.onClientClosed)
	c.parent = parent
}

// Parent returns the owning session
func (c *ClientSession) Parent() *Session { return c.parent }

// SendSyncRequest delivers req to the server end and blocks until it has been
// answered. Host-side services run the handler directly on this goroutine;
// emulated services get the request queued and the call waits for SendReply.
func (c *ClientSession) SendSyncRequest(req *HLERequestContext) error {
	return c.send(req, -1)
}

// SendSyncRequestTimeout is SendSyncRequest bounded by timeout while waiting
// for an emulated server. Handler-served requests are not bounded.
func (c *ClientSession) SendSyncRequestTimeout(req *HLERequestContext, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = -1
	}
	return c.send(req, timeout)
}

func (c *ClientSession) send(req *HLERequestContext, timeout time.Duration) error {
	session := c.parent
	server := &session.server

	session.mu.Lock()
	closed := session.serverClosed || session.clientClosed
	session.mu.Unlock()
	if closed {
		return fmt.Errorf("send to %q: %w", c.name, ErrSessionClosed)
	}

	req.Session = server
	if server.handler != nil {
		return server.handler.HandleSyncRequest(server, req)
	}

	done := NewEvent(c.kernel, "reply")
	defer done.Close()
	req.done = done

	if err := server.enqueueRequest(req); err != nil {
		return fmt.Errorf("send to %q: %w", c.name, err)
	}

	if _, err := c.kernel.WaitSynchronization(req.Context(), []SynchronizationObject{done}, timeout); err != nil {
		server.cancelRequest(req)
		return fmt.Errorf("send to %q: %w", c.name, err)
	}
	return req.err
}
