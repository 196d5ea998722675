// Package client is the client-side mirror of the chat protocol: it owns one
// connection, the session state (identity, online flag, room assignments),
// and the per-peer history of received messages.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"pairchat/internal/protocol"
)

// Hard failure conditions raised to callers.
var (
	// ErrNotConnected is returned by any operation attempted while the
	// transport is down.
	ErrNotConnected = errors.New("server unavailable")
	// ErrLoginRejected is returned when the server acknowledges a login
	// with anything but "ok".
	ErrLoginRejected = errors.New("login rejected")
	// ErrNoActiveChat is returned by SendMessageTo when no room is bound
	// for the peer; callers must StartChatWith first.
	ErrNoActiveChat = errors.New("no active chat with user")
	// ErrAckTimeout is returned when the server does not acknowledge a
	// request within the configured timeout.
	ErrAckTimeout = errors.New("acknowledgement timed out")
)

// ChatClient is one logical user's live connection.
//
// State machine: Disconnected -> Connected -> LoggedIn. Every operation
// except construction requires at least Connected; only a successful Login
// turns the online flag on.
type ChatClient struct {
	conn       EventConn
	info       protocol.LoginInfo
	ackTimeout time.Duration
	retries    int

	mu      sync.Mutex
	online  bool
	rooms   map[string]string                    // peer user id -> room id
	history map[string][]protocol.InboundMessage // peer user id -> messages, arrival order
	offset  int64
	seq     uint64
}

// New builds a client over an established connection and registers its
// session-lifetime handlers: the mailbox for RECEIVE_MESSAGE and the server
// offset tracker for the broadcast log.
func New(conn EventConn, info protocol.LoginInfo, cfg Config) *ChatClient {
	cfg = cfg.withDefaults()
	c := &ChatClient{
		conn:       conn,
		info:       info,
		ackTimeout: cfg.AckTimeout,
		retries:    cfg.Retries,
		rooms:      make(map[string]string),
		history:    make(map[string][]protocol.InboundMessage),
		offset:     cfg.AuthOffset,
	}
	conn.On(protocol.EventReceiveMsg, c.receiveMessage)
	conn.On(protocol.EventChatMessage, c.trackOffset)
	return c
}

// Dial connects to the server described by cfg and builds a client for the
// given identity.
func Dial(cfg Config, userID, userName, userEmail string) (*ChatClient, error) {
	conn, err := DialConn(cfg)
	if err != nil {
		return nil, err
	}
	info := protocol.LoginInfo{
		UserID:    userID,
		UserName:  userName,
		UserEmail: userEmail,
	}
	return New(conn, info, cfg), nil
}

// Login announces the client's identity and waits for the acknowledgement.
// A negative acknowledgement is a hard error, unlike the server's own view
// of the same exchange.
func (c *ChatClient) Login(ctx context.Context) error {
	if !c.conn.Connected() {
		return ErrNotConnected
	}

	ack := c.expectString(protocol.EventLoginAck)
	if err := c.conn.Emit(protocol.EventLogin, c.info); err != nil {
		return err
	}

	res, err := c.await(ctx, ack)
	if err != nil {
		return err
	}
	if res != protocol.AckOK {
		return ErrLoginRejected
	}

	c.mu.Lock()
	c.online = true
	c.mu.Unlock()
	return nil
}

// SendMessageToGeneral emits a message on the shared broadcast channel.
func (c *ChatClient) SendMessageToGeneral(message string) error {
	if !c.conn.Connected() {
		return ErrNotConnected
	}
	return c.conn.Emit(protocol.EventGeneral, message)
}

// StartChatWith asks the server to open a pairwise room with the peer and
// records the assigned room id. The returned id scopes later SendMessageTo
// calls.
func (c *ChatClient) StartChatWith(ctx context.Context, peerID string) (string, error) {
	if !c.conn.Connected() {
		return "", ErrNotConnected
	}

	ack := make(chan json.RawMessage, 1)
	c.conn.Once(protocol.EventStartChatAck, func(data json.RawMessage) {
		select {
		case ack <- data:
		default:
		}
	})

	err := c.conn.Emit(protocol.EventStartChat, protocol.StartChatInfo{
		SenderID:   c.info.UserID,
		ReceiverID: peerID,
	})
	if err != nil {
		return "", err
	}

	var data json.RawMessage
	select {
	case data = <-ack:
	case <-time.After(c.ackTimeout):
		return "", ErrAckTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}

	// Success acks carry a bare room id string, rejections the structured
	// error payload.
	var roomID string
	if json.Unmarshal(data, &roomID) == nil && roomID != "" {
		c.mu.Lock()
		c.rooms[peerID] = roomID
		c.mu.Unlock()
		return roomID, nil
	}

	var perr protocol.ErrorPayload
	if json.Unmarshal(data, &perr) == nil && perr.Message != "" {
		return "", fmt.Errorf("start chat: %s", perr.Message)
	}
	return "", fmt.Errorf("start chat: unexpected acknowledgement %s", data)
}

// SendMessageTo sends a room-scoped message to a peer a chat was started
// with. Without a bound room this is a hard error.
func (c *ChatClient) SendMessageTo(peerID, content string) error {
	c.mu.Lock()
	roomID, ok := c.rooms[peerID]
	c.mu.Unlock()
	if !ok {
		return ErrNoActiveChat
	}
	if !c.conn.Connected() {
		return ErrNotConnected
	}

	// Acknowledgement sink; nothing reacts to room acks yet.
	c.conn.Once(protocol.EventChatRoomAck, func(json.RawMessage) {})

	return c.conn.Emit(protocol.EventChatRoom, protocol.RoomMessage{
		RoomID:     roomID,
		SenderID:   c.info.UserID,
		ReceiverID: peerID,
		Message:    content,
		Type:       protocol.MessageTypeText,
		Timestamp:  time.Now(),
	})
}

// SendChatMessage submits content to the durable general log with a fresh
// client offset and waits for the acknowledgement, retrying on timeout. The
// offset makes retries idempotent on the server side.
func (c *ChatClient) SendChatMessage(ctx context.Context, content string) error {
	if !c.conn.Connected() {
		return ErrNotConnected
	}

	c.mu.Lock()
	c.seq++
	clientOffset := fmt.Sprintf("%s-%d", c.info.UserID, c.seq)
	c.mu.Unlock()

	sub := protocol.ChatSubmit{Content: content, ClientOffset: clientOffset}
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		ack := c.expectString(protocol.EventChatMessageAck)
		if err := c.conn.Emit(protocol.EventChatMessage, sub); err != nil {
			return err
		}
		if _, err := c.await(ctx, ack); err == nil {
			return nil
		} else if !errors.Is(err, ErrAckTimeout) {
			return err
		} else {
			lastErr = err
		}
	}
	return lastErr
}

// Messages returns a snapshot of the per-peer history of received messages,
// in arrival order.
func (c *ChatClient) Messages() map[string][]protocol.InboundMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]protocol.InboundMessage, len(c.history))
	for peer, msgs := range c.history {
		out[peer] = append([]protocol.InboundMessage(nil), msgs...)
	}
	return out
}

// IsOnline reports whether a login has been acknowledged on this connection.
func (c *ChatClient) IsOnline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// Info returns the identity this client logs in with.
func (c *ChatClient) Info() protocol.LoginInfo {
	return c.info
}

// Offset returns the last stored record id seen on the broadcast log; it is
// the AuthOffset to hand a reconnecting client.
func (c *ChatClient) Offset() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

func (c *ChatClient) Close() error {
	return c.conn.Close()
}

// receiveMessage is the permanent mailbox handler: it appends inbound room
// messages to the sender's history and binds a room for senders not seen
// before, using the room id the message carries.
func (c *ChatClient) receiveMessage(data json.RawMessage) {
	var msg protocol.InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rooms[msg.SenderID]; !ok {
		c.rooms[msg.SenderID] = msg.RoomID
	}
	c.history[msg.SenderID] = append(c.history[msg.SenderID], msg)
}

// trackOffset advances the local server offset as broadcast log records
// arrive, both live and during recovery replay.
func (c *ChatClient) trackOffset(data json.RawMessage) {
	var rec protocol.ChatBroadcast
	if err := json.Unmarshal(data, &rec); err != nil {
		return
	}

	c.mu.Lock()
	if rec.ID > c.offset {
		c.offset = rec.ID
	}
	c.mu.Unlock()
}

func (c *ChatClient) expectString(event string) <-chan string {
	ack := make(chan string, 1)
	c.conn.Once(event, func(data json.RawMessage) {
		var s string
		_ = json.Unmarshal(data, &s)
		select {
		case ack <- s:
		default:
		}
	})
	return ack
}

func (c *ChatClient) await(ctx context.Context, ack <-chan string) (string, error) {
	select {
	case s := <-ack:
		return s, nil
	case <-time.After(c.ackTimeout):
		return "", ErrAckTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
