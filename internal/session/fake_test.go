package session

import (
	"context"
	"sync"
)

// fakeConn is an in-memory Conn. Tests push inbound frames with deliver and
// read what the session wrote from sent.
type fakeConn struct {
	incoming chan Frame
	sent     chan []byte
	closed   chan struct{}
	once     sync.Once

	mu      sync.Mutex
	sendErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan Frame, 64),
		sent:     make(chan []byte, 64),
		closed:   make(chan struct{}),
	}
}

func (c *fakeConn) SendText(data []byte) error {
	c.mu.Lock()
	err := c.sendErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrTransportClosed
	case c.sent <- append([]byte(nil), data...):
		return nil
	}
}

func (c *fakeConn) Receive() (Frame, error) {
	select {
	case <-c.closed:
		return Frame{}, ErrTransportClosed
	case f := <-c.incoming:
		return f, nil
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) failSends(err error) {
	c.mu.Lock()
	c.sendErr = err
	c.mu.Unlock()
}

func (c *fakeConn) deliverText(s string) {
	c.incoming <- Frame{Kind: FrameText, Data: []byte(s)}
}

func (c *fakeConn) dialer() Dialer {
	return DialerFunc(func(context.Context, string) (Conn, error) {
		return c, nil
	})
}
