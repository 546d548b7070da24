package feedsim

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/telhawk-systems/marketstream/common/httputil"
	"github.com/telhawk-systems/marketstream/common/logging"
	"github.com/telhawk-systems/marketstream/common/middleware"
	"github.com/telhawk-systems/marketstream/internal/phoenix"
	"github.com/telhawk-systems/marketstream/pkg/schema"
)

const (
	topicPrefix   = "collection:"
	topicWildcard = "collection:*"
	sendBuffer    = 256
	writeWait     = 5 * time.Second
)

// ServerOptions configures a Server.
type ServerOptions struct {
	// Generator supplies pushed events. Defaults to a time-seeded Generator.
	Generator *Generator

	// Token, when set, must match the "token" query parameter.
	Token string

	// Interval is how often each joined topic receives a generated event.
	// Zero disables generated traffic; Broadcast still works.
	Interval time.Duration

	Logger *logging.Logger
}

// Server speaks the server side of the Phoenix channel protocol: it replies
// to joins and heartbeats and pushes events to joined topics.
type Server struct {
	opts     ServerOptions
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewServer returns a Server ready to be mounted as an http.Handler.
func NewServer(opts ServerOptions) *Server {
	if opts.Generator == nil {
		opts.Generator = NewGenerator(time.Now().UnixNano())
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Server{
		opts:    opts,
		logger:  opts.Logger.With(logging.Component("feedsim")),
		clients: make(map[*client]struct{}),
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	topics map[string]struct{}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) push(data []byte) bool {
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	}
}

func (c *client) joined() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	topics := make([]string, 0, len(c.topics))
	for t := range c.topics {
		topics = append(topics, t)
	}
	return topics
}

// inboundFrame is what clients send.
type inboundFrame struct {
	Topic string          `json:"topic"`
	Event string          `json:"event"`
	Ref   json.RawMessage `json:"ref"`
}

type outboundFrame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     json.RawMessage `json:"ref,omitempty"`
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := s.logger
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		logger = logger.With(logging.RequestID(id))
	}

	if s.opts.Token != "" && r.URL.Query().Get("token") != s.opts.Token {
		logger.Debug("rejected connection", "remote", r.RemoteAddr)
		httputil.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("upgrade failed", logging.Error(err))
		return
	}

	c := &client{
		conn:   ws,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		topics: make(map[string]struct{}),
	}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	logger.Debug("client connected", "remote", r.RemoteAddr)

	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		c.close()
		logger.Debug("client disconnected", "remote", r.RemoteAddr)
	}()

	go s.writeLoop(c)
	if s.opts.Interval > 0 {
		go s.generateLoop(c)
	}
	s.readLoop(c)
}

func (s *Server) readLoop(c *client) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.logger.Debug("ignoring malformed frame", logging.Error(err))
			continue
		}

		switch frame.Event {
		case phoenix.EventJoin:
			if !strings.HasPrefix(frame.Topic, topicPrefix) || frame.Topic == topicPrefix {
				c.push(reply(frame, "error", `{"reason":"unmatched topic"}`))
				continue
			}
			c.mu.Lock()
			c.topics[frame.Topic] = struct{}{}
			c.mu.Unlock()
			s.logger.Debug("topic joined", logging.Topic(frame.Topic))
			c.push(reply(frame, "ok", `{}`))
		case phoenix.EventHeartbeat:
			c.push(reply(frame, "ok", `{}`))
		}
	}
}

func (s *Server) writeLoop(c *client) {
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (s *Server) generateLoop(c *client) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, topic := range c.joined() {
				eventType, raw, err := s.generate(topic)
				if err != nil {
					s.logger.Error("generate event", logging.Error(err))
					continue
				}
				if !c.push(push(topic, string(eventType), raw)) {
					return
				}
			}
		case <-c.done:
			return
		}
	}
}

func (s *Server) generate(topic string) (schema.EventType, []byte, error) {
	if topic == topicWildcard {
		eventType, _, raw, err := s.opts.Generator.Random()
		return eventType, raw, err
	}
	slug := strings.TrimPrefix(topic, topicPrefix)
	eventType, _, _, err := s.opts.Generator.Random()
	if err != nil {
		return "", nil, err
	}
	raw, err := s.opts.Generator.Event(eventType, slug)
	return eventType, raw, err
}

// Broadcast pushes a raw event for slug to every client joined to that
// collection or to the wildcard. It returns the number of deliveries.
func (s *Server) Broadcast(eventType schema.EventType, slug string, event []byte) int {
	return s.BroadcastRaw(func(topic string) []byte {
		return push(topic, string(eventType), event)
	}, topicPrefix+slug)
}

// BroadcastRaw sends build(topic) verbatim to every client joined to topic
// or to the wildcard. It is meant for injecting malformed traffic.
func (s *Server) BroadcastRaw(build func(topic string) []byte, topic string) int {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	delivered := 0
	for _, c := range clients {
		c.mu.Lock()
		_, exact := c.topics[topic]
		_, wildcard := c.topics[topicWildcard]
		c.mu.Unlock()

		target := topic
		if !exact {
			if !wildcard {
				continue
			}
			target = topicWildcard
		}
		if c.push(build(target)) {
			delivered++
		}
	}
	return delivered
}

// Health reports the number of connected clients.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.Clients(),
	})
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Subscribers returns how many clients are joined to topic.
func (s *Server) Subscribers(topic string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for c := range s.clients {
		c.mu.Lock()
		if _, ok := c.topics[topic]; ok {
			n++
		}
		c.mu.Unlock()
	}
	return n
}

// CloseClients drops every connection.
func (s *Server) CloseClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.close()
	}
}

func reply(frame inboundFrame, status, response string) []byte {
	payload, _ := json.Marshal(map[string]json.RawMessage{
		"status":   json.RawMessage(`"` + status + `"`),
		"response": json.RawMessage(response),
	})
	data, _ := json.Marshal(outboundFrame{
		Topic:   frame.Topic,
		Event:   phoenix.EventReply,
		Payload: payload,
		Ref:     frame.Ref,
	})
	return data
}

func push(topic, event string, payload []byte) []byte {
	data, _ := json.Marshal(outboundFrame{
		Topic:   topic,
		Event:   event,
		Payload: payload,
	})
	return data
}
