package session

import (
	"context"
	"errors"
	"fmt"
)

// ErrTransportClosed is returned by Receive after the peer or the local side
// closed the connection cleanly.
var ErrTransportClosed = errors.New("session: transport closed")

// FrameKind identifies the type of a transport frame.
type FrameKind int

const (
	FrameText FrameKind = iota + 1
	FrameBinary
	FrameClose
	FramePing
	FramePong
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FrameClose:
		return "close"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	}
	return fmt.Sprintf("FrameKind(%d)", int(k))
}

// Frame is one message read from the transport.
type Frame struct {
	Kind FrameKind
	Data []byte
}

// Sender is the write half of a connection.
type Sender interface {
	SendText(data []byte) error
}

// Receiver is the read half of a connection.
type Receiver interface {
	// Receive blocks until the next frame arrives. It returns
	// ErrTransportClosed once the connection is gone.
	Receive() (Frame, error)
}

// Conn is a message-framed, bidirectional connection. The session hands the
// Sender half to exactly one goroutine and the Receiver half to another, so
// implementations need not lock around SendText or Receive. Close must be
// safe to call concurrently with both.
type Conn interface {
	Sender
	Receiver
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, url string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) {
	return f(ctx, url)
}
