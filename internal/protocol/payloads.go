package protocol

import "time"

// LoginInfo is the identity claim carried by a LOGIN event. UserID is
// required, the rest is optional.
type LoginInfo struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

// SignupInfo is a new-account request. Both fields are required.
type SignupInfo struct {
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

// StartChatInfo asks the server to open a pairwise room.
type StartChatInfo struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

// RoomMessage is a room-scoped chat message as sent by the originating
// client in a CHAT_ROOM event.
type RoomMessage struct {
	RoomID     string    `json:"roomId"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiver"`
	Message    string    `json:"message"`
	Type       string    `json:"type,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

// InboundMessage is a room-scoped message as relayed to the receiving client
// in a RECEIVE_MESSAGE event.
type InboundMessage struct {
	RoomID     string `json:"roomId"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
}

// ChatSubmit is a client submission to the append-log channel. ClientOffset
// is a client-generated idempotency key; resubmitting a stored offset is
// acknowledged without re-broadcast.
type ChatSubmit struct {
	Content      string `json:"content"`
	ClientOffset string `json:"clientOffset"`
}

// ChatBroadcast is a stored log record fanned out to every connection, both
// on live broadcast and during recovery replay. ID is the durable record id
// clients track as their server offset.
type ChatBroadcast struct {
	Content string `json:"content"`
	ID      int64  `json:"id"`
}

// ErrorPayload is the structured error shape used by negative START_CHAT
// acknowledgements.
type ErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// InvalidSenderError is the START_CHAT_ACK payload for an unknown sender or
// receiver id.
func InvalidSenderError() ErrorPayload {
	return ErrorPayload{Type: "Error", Message: "Invalid sender Id"}
}
