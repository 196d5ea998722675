// Package protocol defines the event vocabulary shared by the server and the
// client: event names, canned acknowledgement strings, and the JSON payload
// shapes that travel over the wire.
package protocol

// Event names. Requests are acknowledged by the event of the same name with
// the _ACK suffix.
const (
	EventLogin        = "LOGIN"
	EventLoginAck     = "LOGIN_ACK"
	EventSignup       = "SIGNUP"
	EventSignupAck    = "SIGNUP_ACK"
	EventStartChat    = "START_CHAT"
	EventStartChatAck = "START_CHAT_ACK"
	EventChatRoom     = "CHAT_ROOM"
	EventChatRoomAck  = "CHAT_ROOM_ACK"
	EventGeneral      = "GENERAL"
	EventReceiveMsg   = "RECEIVE_MESSAGE"

	// Append-log channel: clients submit with a client offset, the server
	// broadcasts the stored record to every connection.
	EventChatMessage    = "chat message"
	EventChatMessageAck = "CHAT_MESSAGE_ACK"
)

// Canned acknowledgement strings.
const (
	AckOK    = "ok"
	AckNotOK = "not ok"

	AckUserNameTaken  = "user name already taken"
	AckUserEmailTaken = "user email already sign up"

	// Prefix for collaborator failures surfaced to the client; the error
	// text is appended.
	AckDatabaseError = "There was a database error: "
)

// Message type carried in room messages.
const MessageTypeText = "text"
