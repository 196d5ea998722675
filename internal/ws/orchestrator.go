package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"

	"pairchat/internal/domain"
	"pairchat/internal/protocol"
	"pairchat/internal/service"
)

// Orchestrator wires each client connection to its protocol behavior: login,
// signup, start-chat, room relay, the general broadcast channel, and
// missed-message recovery. It owns no durable state; identity and message
// durability are delegated to the directory and the store.
type Orchestrator struct {
	hub   *Hub
	users domain.UserDirectory
	store domain.MessageStore
}

func NewOrchestrator(hub *Hub, users domain.UserDirectory, store domain.MessageStore) *Orchestrator {
	return &Orchestrator{
		hub:   hub,
		users: users,
		store: store,
	}
}

// HandleConnection drives one session until the transport fails. Events of a
// single connection are handled in delivery order; sessions on other
// connections interleave freely.
func (o *Orchestrator) HandleConnection(ctx context.Context, sess *Session) {
	o.hub.Register(sess)
	defer o.handleDisconnect(sess)

	if !sess.recovered {
		o.recover(ctx, sess)
	}

	for {
		var env protocol.Envelope
		if err := sess.read(&env); err != nil {
			return
		}
		o.dispatch(ctx, sess, &env)
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, sess *Session, env *protocol.Envelope) {
	switch env.Event {
	case protocol.EventLogin:
		o.handleLogin(ctx, sess, env.Data)
	case protocol.EventSignup:
		o.handleSignup(ctx, sess, env.Data)
	case protocol.EventStartChat:
		o.handleStartChat(ctx, sess, env.Data)
	case protocol.EventChatRoom:
		o.handleChatRoom(sess, env.Data)
	case protocol.EventGeneral:
		o.handleGeneral(env.Data)
	case protocol.EventChatMessage:
		o.handleChatMessage(ctx, sess, env.Data)
	default:
		log.Printf("ws: unknown event %q", env.Event)
	}
}

// handleLogin acknowledges "ok" for a registered user id and "not ok"
// otherwise, including for a missing payload. A directory failure is logged
// and produces no acknowledgement; the client is left to time out.
func (o *Orchestrator) handleLogin(ctx context.Context, sess *Session, data json.RawMessage) {
	var info protocol.LoginInfo
	if !decodePayload(data, &info) {
		o.emit(sess, protocol.EventLoginAck, protocol.AckNotOK)
		return
	}

	ok, err := o.users.LoginUser(ctx, info.UserID)
	if err != nil {
		log.Printf("ws: login lookup: %v", err)
		return
	}
	if !ok {
		o.emit(sess, protocol.EventLoginAck, protocol.AckNotOK)
		return
	}

	sess.bindUser(info.UserID)
	o.hub.Bind(info.UserID, sess)
	o.emit(sess, protocol.EventLoginAck, protocol.AckOK)
}

// handleSignup resolves the signup outcome, persists accepted accounts, and
// acknowledges with the outcome's canned string. Collaborator failures
// surface to the client as a database-error acknowledgement.
func (o *Orchestrator) handleSignup(ctx context.Context, sess *Session, data json.RawMessage) {
	var info protocol.SignupInfo
	if !decodePayload(data, &info) {
		return
	}

	outcome, err := service.ResolveSignup(ctx, o.users, info)
	if err != nil {
		o.emit(sess, protocol.EventSignupAck, protocol.AckDatabaseError+err.Error())
		return
	}

	if outcome == service.SignupAccepted {
		if _, err := o.users.SignUp(ctx, info); err != nil {
			o.emit(sess, protocol.EventSignupAck, protocol.AckDatabaseError+err.Error())
			return
		}
	}

	o.emit(sess, protocol.EventSignupAck, outcome.Ack())
}

// handleStartChat validates both participant ids and acknowledges either a
// freshly assigned room id or the structured error payload. Both checks
// always run.
func (o *Orchestrator) handleStartChat(ctx context.Context, sess *Session, data json.RawMessage) {
	var info protocol.StartChatInfo
	if !decodePayload(data, &info) {
		return
	}

	senderOK, senderErr := o.users.CheckForUserID(ctx, info.SenderID)
	receiverOK, receiverErr := o.users.CheckForUserID(ctx, info.ReceiverID)
	if err := errors.Join(senderErr, receiverErr); err != nil {
		log.Printf("ws: start chat lookup: %v", err)
		o.emit(sess, protocol.EventStartChatAck, protocol.AckDatabaseError)
		return
	}

	if !senderOK || !receiverOK {
		o.emit(sess, protocol.EventStartChatAck, protocol.InvalidSenderError())
		return
	}

	o.emit(sess, protocol.EventStartChatAck, uuid.NewString())
}

// handleChatRoom relays a room-scoped message to the receiver's live
// sessions and acknowledges receipt. Room messages are not persisted.
func (o *Orchestrator) handleChatRoom(sess *Session, data json.RawMessage) {
	var msg protocol.RoomMessage
	if !decodePayload(data, &msg) {
		return
	}

	o.hub.SendToUser(msg.ReceiverID, protocol.EventReceiveMsg, protocol.InboundMessage{
		RoomID:     msg.RoomID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Message:    msg.Message,
	})
	o.emit(sess, protocol.EventChatRoomAck, protocol.AckOK)
}

// handleGeneral logs the message and fans it out on the shared channel. No
// per-user bookkeeping.
func (o *Orchestrator) handleGeneral(data json.RawMessage) {
	var msg string
	if !decodePayload(data, &msg) {
		return
	}
	log.Printf("ws: general: %s", msg)
	o.hub.BroadcastAll(protocol.EventGeneral, msg)
}

// handleChatMessage appends to the durable log and broadcasts the stored
// record. A duplicate client offset is acknowledged without re-broadcast so
// client retries stay idempotent; any other store failure is logged and the
// client retries on its own.
func (o *Orchestrator) handleChatMessage(ctx context.Context, sess *Session, data json.RawMessage) {
	var sub protocol.ChatSubmit
	if !decodePayload(data, &sub) {
		return
	}

	id, err := o.store.SaveMessage(ctx, sub.Content, sub.ClientOffset)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateOffset) {
			o.emit(sess, protocol.EventChatMessageAck, protocol.AckOK)
			return
		}
		log.Printf("ws: save message: %v", err)
		return
	}

	o.hub.BroadcastAll(protocol.EventChatMessage, protocol.ChatBroadcast{Content: sub.Content, ID: id})
	o.emit(sess, protocol.EventChatMessageAck, protocol.AckOK)
}

// handleDisconnect is the cleanup hook for a dropped connection. Nothing
// durable happens here.
func (o *Orchestrator) handleDisconnect(sess *Session) {
	o.hub.Unregister(sess)
}

// recover replays every stored record after the session's declared server
// offset, in store order. A store failure is non-fatal; the connection
// proceeds without replay.
func (o *Orchestrator) recover(ctx context.Context, sess *Session) {
	err := o.store.RetrieveMessages(ctx, sess.serverOffset, func(content string, id int64) {
		o.emit(sess, protocol.EventChatMessage, protocol.ChatBroadcast{Content: content, ID: id})
	})
	if err != nil {
		log.Printf("ws: client recovery failed: %v", err)
	}
}

// emit writes one event to the session. Write failures are logged and
// otherwise discarded; the read loop notices a dead connection on its own.
func (o *Orchestrator) emit(sess *Session, event string, payload any) {
	if err := sess.Emit(event, payload); err != nil {
		log.Printf("ws: emit %s: %v", event, err)
	}
}

// decodePayload reports whether data held a usable payload. Missing payloads
// and malformed JSON are treated alike: the caller skips or negatively
// acknowledges, never fails the connection.
func decodePayload(data json.RawMessage, v any) bool {
	if len(data) == 0 || string(data) == "null" {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
