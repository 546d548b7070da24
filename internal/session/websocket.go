package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeGracePeriod = time.Second

// WebsocketDialer dials WebSocket connections with gorilla/websocket.
type WebsocketDialer struct {
	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// Header is sent with the opening handshake.
	Header http.Header
}

func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, resp, err := dialer.DialContext(ctx, url, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("websocket handshake: %w", err)
	}
	return NewWebsocketConn(ws), nil
}

// WebsocketConn adapts a gorilla connection to Conn. Ping and close control
// frames are answered by gorilla itself and never reach Receive.
type WebsocketConn struct {
	ws        *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// NewWebsocketConn wraps an established gorilla connection.
func NewWebsocketConn(ws *websocket.Conn) *WebsocketConn {
	return &WebsocketConn{ws: ws}
}

func (c *WebsocketConn) SendText(data []byte) error {
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return translateError(err)
	}
	return nil
}

func (c *WebsocketConn) Receive() (Frame, error) {
	kind, data, err := c.ws.ReadMessage()
	if err != nil {
		return Frame{}, translateError(err)
	}
	switch kind {
	case websocket.TextMessage:
		return Frame{Kind: FrameText, Data: data}, nil
	case websocket.BinaryMessage:
		return Frame{Kind: FrameBinary, Data: data}, nil
	}
	return Frame{}, fmt.Errorf("websocket: unexpected message type %d", kind)
}

// Close sends a normal closure frame and closes the socket.
func (c *WebsocketConn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

func translateError(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return fmt.Errorf("%w: %v", ErrTransportClosed, err)
	}
	if errors.Is(err, websocket.ErrCloseSent) || errors.Is(err, net.ErrClosed) {
		return ErrTransportClosed
	}
	return err
}
