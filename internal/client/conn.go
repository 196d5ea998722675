package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pairchat/internal/protocol"
)

// Transport defaults, used when the corresponding Config field is zero.
const (
	DefaultAckTimeout = 10 * time.Second
	DefaultRetries    = 3
)

// Config is the injected transport configuration for a client connection.
type Config struct {
	// Endpoint is the websocket URL of the server, e.g. ws://localhost:3000/ws.
	Endpoint string
	// AuthOffset is the last durably stored record id this client has seen;
	// the server replays everything after it on connect.
	AuthOffset int64
	// AckTimeout bounds the wait for acknowledgement events.
	AckTimeout time.Duration
	// Retries is the number of additional dial attempts after a failure.
	Retries int
}

func (c Config) withDefaults() Config {
	if c.AckTimeout <= 0 {
		c.AckTimeout = DefaultAckTimeout
	}
	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
	return c
}

// Handler consumes the payload of one received event.
type Handler func(data json.RawMessage)

// EventConn is the connection surface the ChatClient works against; tests
// substitute fakes.
type EventConn interface {
	// On registers a handler for the lifetime of the connection.
	On(event string, h Handler)
	// Once registers a handler that is consumed by its first delivery.
	Once(event string, h Handler)
	Emit(event string, payload any) error
	Connected() bool
	Close() error
}

// Conn is a websocket-backed EventConn. A single read loop dispatches
// incoming envelopes to registered handlers; writes are serialized.
type Conn struct {
	ws  *websocket.Conn
	wmu sync.Mutex

	mu        sync.Mutex
	permanent map[string][]Handler
	once      map[string][]Handler
	connected bool
}

var _ EventConn = (*Conn)(nil)

// DialConn connects to the server, retrying per cfg.Retries, and starts the
// read loop. The handshake carries the client's server offset.
func DialConn(cfg Config) (*Conn, error) {
	cfg = cfg.withDefaults()

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("serverOffset", strconv.FormatInt(cfg.AuthOffset, 10))
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: cfg.AckTimeout}

	var ws *websocket.Conn
	for attempt := 0; ; attempt++ {
		ws, _, err = dialer.Dial(u.String(), nil)
		if err == nil {
			break
		}
		if attempt >= cfg.Retries {
			return nil, fmt.Errorf("dial %s: %w", cfg.Endpoint, err)
		}
		time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
	}

	c := &Conn{
		ws:        ws,
		permanent: make(map[string][]Handler),
		once:      make(map[string][]Handler),
		connected: true,
	}
	go c.readLoop()
	return c, nil
}

func (c *Conn) On(event string, h Handler) {
	c.mu.Lock()
	c.permanent[event] = append(c.permanent[event], h)
	c.mu.Unlock()
}

func (c *Conn) Once(event string, h Handler) {
	c.mu.Lock()
	c.once[event] = append(c.once[event], h)
	c.mu.Unlock()
}

func (c *Conn) Emit(event string, payload any) error {
	env, err := protocol.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.ws.WriteJSON(env)
}

func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Conn) Close() error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return c.ws.Close()
}

func (c *Conn) readLoop() {
	for {
		var env protocol.Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()
			return
		}
		c.dispatch(&env)
	}
}

// dispatch consumes one-shot handlers for the event, then runs the permanent
// ones. Handlers run on the read loop goroutine, so events of one connection
// are observed in delivery order.
func (c *Conn) dispatch(env *protocol.Envelope) {
	c.mu.Lock()
	consumed := c.once[env.Event]
	delete(c.once, env.Event)
	session := make([]Handler, len(c.permanent[env.Event]))
	copy(session, c.permanent[env.Event])
	c.mu.Unlock()

	for _, h := range consumed {
		h(env.Data)
	}
	for _, h := range session {
		h(env.Data)
	}
}
