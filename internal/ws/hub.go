package ws

import "sync"

// Hub tracks active sessions and provides the two delivery primitives the
// orchestrator needs: broadcast to everyone and targeted delivery to all
// sessions of one user. Sessions appear in the user index only after a
// successful login binds an identity.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	byUser   map[string]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[*Session]struct{}),
		byUser:   make(map[string]map[*Session]struct{}),
	}
}

// Register adds a newly connected session.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = struct{}{}
}

// Bind indexes the session under the given user id for targeted delivery.
func (h *Hub) Bind(userID string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[*Session]struct{})
	}
	h.byUser[userID][s] = struct{}{}
}

// Unregister removes the session and any user binding it holds.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
	if uid := s.UserID(); uid != "" {
		if conns, ok := h.byUser[uid]; ok {
			delete(conns, s)
			if len(conns) == 0 {
				delete(h.byUser, uid)
			}
		}
	}
}

// SendToUser delivers the event to every live session of the given user.
// Failed writes close the connection; removal happens on its disconnect.
func (h *Hub) SendToUser(userID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.byUser[userID] {
		if err := s.Emit(event, payload); err != nil {
			s.conn.Close()
		}
	}
}

// BroadcastAll delivers the event to every connected session, authenticated
// or not.
func (h *Hub) BroadcastAll(event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions {
		if err := s.Emit(event, payload); err != nil {
			s.conn.Close()
		}
	}
}
