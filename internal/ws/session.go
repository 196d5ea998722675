package ws

import (
	"sync"

	"pairchat/internal/protocol"
)

// wireConn is the subset of *websocket.Conn the session needs; tests provide
// fakes.
type wireConn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}

// Session is one live client connection. Writes are serialized; gorilla
// connections do not tolerate concurrent writers.
type Session struct {
	conn wireConn

	// Handshake parameters.
	serverOffset int64
	recovered    bool

	mu     sync.Mutex
	userID string
}

func NewSession(conn wireConn, serverOffset int64, recovered bool) *Session {
	return &Session{
		conn:         conn,
		serverOffset: serverOffset,
		recovered:    recovered,
	}
}

// Emit sends one named event to the client.
func (s *Session) Emit(event string, payload any) error {
	env, err := protocol.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(env)
}

// UserID returns the identity bound at login, or "" before a successful
// LOGIN.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) bindUser(userID string) {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
}

func (s *Session) read(env *protocol.Envelope) error {
	return s.conn.ReadJSON(env)
}
