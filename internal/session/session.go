// Package session manages one Phoenix channel session over a message-framed
// connection.
//
// A session runs three goroutines. The writer is the only caller of
// Conn.SendText and drains the outbound frame queue in FIFO order. The reader
// is the only caller of Conn.Receive; it decodes every text frame and pushes
// marketplace events onto the inbound queue. The heartbeat goroutine enqueues
// a heartbeat frame every interval. Both queues are bounded and producers
// block when they are full.
//
// Any transport failure, or a non-text frame, closes the session for good.
// Messages that fail to decode are logged and dropped; the stream carries on.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/telhawk-systems/marketstream/common/logging"
	"github.com/telhawk-systems/marketstream/internal/metrics"
	"github.com/telhawk-systems/marketstream/internal/phoenix"
	"github.com/telhawk-systems/marketstream/pkg/schema"
)

var (
	ErrSessionClosed     = errors.New("session: closed")
	ErrProtocolViolation = errors.New("session: protocol violation")
)

// State is the lifecycle stage of a session.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Session is a live channel session. It is safe for concurrent use.
type Session struct {
	id     string
	cfg    Config
	conn   Conn
	logger *logging.Logger
	ctx    context.Context

	outbound chan phoenix.Frame
	inbound  chan schema.StreamEvent
	done     chan struct{}

	state     atomic.Int32
	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
	wg        sync.WaitGroup
}

// Open dials url and starts the session goroutines. ctx bounds the dial only;
// once open, the session lives until Close or a transport failure.
func Open(ctx context.Context, dialer Dialer, rawURL string, cfg Config, logger *logging.Logger) (*Session, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	cfg = cfg.withDefaults()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	s := &Session{
		id:       id.String(),
		cfg:      cfg,
		outbound: make(chan phoenix.Frame, cfg.OutboundQueue),
		inbound:  make(chan schema.StreamEvent, cfg.InboundQueue),
		done:     make(chan struct{}),
	}
	s.ctx = logging.ContextWithSessionID(context.Background(), s.id)
	s.logger = logger.With(logging.Component("session"))
	s.state.Store(int32(StateConnecting))

	start := time.Now()
	conn, err := dialer.Dial(ctx, rawURL)
	if err != nil {
		s.state.Store(int32(StateClosed))
		return nil, fmt.Errorf("session: connect %s: %w", redactURL(rawURL), err)
	}
	s.conn = conn
	s.state.Store(int32(StateOpen))

	metrics.SessionsOpen.Inc()
	metrics.InboundQueueCapacity.Set(float64(cfg.InboundQueue))
	s.logger.InfoContext(s.ctx, "session open",
		logging.State(StateOpen.String()),
		logging.URL(redactURL(rawURL)),
		logging.Duration(time.Since(start).Milliseconds()),
	)

	s.wg.Add(3)
	go s.writeLoop(conn)
	go s.readLoop(conn)
	go s.heartbeatLoop()

	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the failure that closed the session. It is nil while the
// session is open and after a caller-initiated Close.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Subscribe queues a join for topic. It blocks while the outbound queue is
// full and fails with ErrSessionClosed once the session is closed.
func (s *Session) Subscribe(topic string) error {
	if s.State() == StateClosed {
		return ErrSessionClosed
	}
	if err := s.enqueue(phoenix.Join(topic)); err != nil {
		return err
	}
	s.logger.DebugContext(s.ctx, "join queued", logging.Topic(topic))
	return nil
}

// enqueue blocks until f is on the outbound queue or the session closes. A
// frame queued on a session that is already closed is never written, so that
// case reports ErrSessionClosed too.
func (s *Session) enqueue(f phoenix.Frame) error {
	select {
	case s.outbound <- f:
	case <-s.done:
		return ErrSessionClosed
	}
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
		return nil
	}
}

// Next blocks until an event is available. After the session closes, events
// already buffered are still returned; then Next reports false forever.
func (s *Session) Next() (schema.StreamEvent, bool) {
	event, ok := <-s.inbound
	if ok {
		metrics.InboundQueueDepth.Set(float64(len(s.inbound)))
	}
	return event, ok
}

// Close ends the session and waits for its goroutines to exit.
func (s *Session) Close() error {
	s.shutdown(nil)
	s.wg.Wait()
	return nil
}

// shutdown closes the session once. cause is nil for a caller close.
func (s *Session) shutdown(cause error) {
	s.closeOnce.Do(func() {
		s.errMu.Lock()
		s.err = cause
		s.errMu.Unlock()

		prev := State(s.state.Swap(int32(StateClosed)))
		close(s.done)
		if err := s.conn.Close(); err != nil {
			s.logger.DebugContext(s.ctx, "close transport", logging.Error(err))
		}

		metrics.SessionsOpen.Dec()
		metrics.SessionsClosed.WithLabelValues(closeCause(cause)).Inc()
		attrs := []any{logging.State(StateClosed.String()), "previous_state", prev.String()}
		if cause != nil {
			s.logger.WarnContext(s.ctx, "session closed", append(attrs, logging.Error(cause))...)
		} else {
			s.logger.InfoContext(s.ctx, "session closed", attrs...)
		}
	})
}

func (s *Session) writeLoop(sender Sender) {
	defer s.wg.Done()

	for {
		select {
		case frame := <-s.outbound:
			data, err := frame.Encode()
			if err != nil {
				s.logger.ErrorContext(s.ctx, "encode frame", logging.Event(frame.Event), logging.Error(err))
				continue
			}
			if err := sender.SendText(data); err != nil {
				s.shutdown(fmt.Errorf("send %s: %w", frame.Event, err))
				return
			}
			metrics.FramesSent.WithLabelValues(frame.Event).Inc()
		case <-s.done:
			return
		}
	}
}

func (s *Session) readLoop(receiver Receiver) {
	defer s.wg.Done()
	defer close(s.inbound)

	for {
		frame, err := receiver.Receive()
		if err != nil {
			s.shutdown(fmt.Errorf("receive: %w", err))
			return
		}
		metrics.FramesReceived.WithLabelValues(frame.Kind.String()).Inc()

		switch frame.Kind {
		case FrameText:
		case FrameClose:
			s.shutdown(ErrTransportClosed)
			return
		default:
			s.shutdown(fmt.Errorf("%w: unexpected %s frame", ErrProtocolViolation, frame.Kind))
			return
		}

		event, ok := s.handleText(frame.Data)
		if !ok {
			continue
		}
		select {
		case s.inbound <- event:
			metrics.InboundQueueDepth.Set(float64(len(s.inbound)))
		case <-s.done:
			return
		}
	}
}

// handleText decodes one inbound message and reports whether it carried a
// marketplace event.
func (s *Session) handleText(data []byte) (schema.StreamEvent, bool) {
	env, err := phoenix.Decode(data)
	if err != nil {
		s.drop(env, err)
		return schema.StreamEvent{}, false
	}

	switch env.Event {
	case phoenix.EventError, phoenix.EventClose:
		s.logger.WarnContext(s.ctx, "channel notice", logging.Topic(env.Topic), logging.Event(env.Event))
	}

	if env.Payload == nil {
		return schema.StreamEvent{}, false
	}
	if reply := env.Payload.Reply; reply != nil {
		metrics.RepliesReceived.WithLabelValues(reply.Status).Inc()
		if !reply.OK() {
			s.logger.WarnContext(s.ctx, "channel reply not ok",
				logging.Topic(env.Topic),
				logging.Status(reply.Status),
				"response", string(reply.Response),
			)
		} else {
			s.logger.DebugContext(s.ctx, "channel reply", logging.Topic(env.Topic))
		}
		return schema.StreamEvent{}, false
	}

	event := *env.Payload.Custom
	metrics.EventsDecoded.WithLabelValues(string(event.Type())).Inc()
	return event, true
}

func (s *Session) drop(env phoenix.Envelope, err error) {
	reason := metrics.ReasonSchema
	switch {
	case errors.Is(err, phoenix.ErrMalformedEnvelope):
		reason = metrics.ReasonEnvelope
	case errors.Is(err, schema.ErrUnrecognizedEventType):
		reason = metrics.ReasonUnknownType
	}
	metrics.DecodeDrops.WithLabelValues(reason).Inc()

	if reason == metrics.ReasonUnknownType {
		s.logger.DebugContext(s.ctx, "dropped message", logging.Topic(env.Topic), logging.Error(err))
		return
	}
	s.logger.WarnContext(s.ctx, "dropped message", logging.Topic(env.Topic), logging.Event(env.Event), logging.Error(err))
}

func (s *Session) heartbeatLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.enqueue(phoenix.Heartbeat()) != nil {
				return
			}
			metrics.HeartbeatsSent.Inc()
		case <-s.done:
			return
		}
	}
}

func closeCause(err error) string {
	switch {
	case err == nil:
		return "caller"
	case errors.Is(err, ErrProtocolViolation):
		return "protocol_violation"
	case errors.Is(err, ErrTransportClosed):
		return "remote_close"
	}
	return "transport_error"
}

// redactURL strips the query string, which carries the API token.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	if u.RawQuery != "" {
		u.RawQuery = "redacted"
	}
	return u.String()
}
