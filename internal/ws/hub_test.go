package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairchat/internal/protocol"
)

func TestHubTargetedDelivery(t *testing.T) {
	hub := NewHub()

	boundConn := &fakeConn{}
	bound := NewSession(boundConn, 0, false)
	bound.bindUser("0001")
	hub.Register(bound)
	hub.Bind("0001", bound)

	otherConn := &fakeConn{}
	hub.Register(NewSession(otherConn, 0, false))

	hub.SendToUser("0001", protocol.EventReceiveMsg, protocol.InboundMessage{Message: "hi"})
	hub.SendToUser("unknown", protocol.EventReceiveMsg, protocol.InboundMessage{Message: "lost"})

	require.Equal(t, []string{protocol.EventReceiveMsg}, boundConn.events())
	assert.Empty(t, otherConn.writes)
}

func TestHubBroadcastAll(t *testing.T) {
	hub := NewHub()

	conns := []*fakeConn{{}, {}, {}}
	for _, c := range conns {
		hub.Register(NewSession(c, 0, false))
	}

	hub.BroadcastAll(protocol.EventGeneral, "hello")

	for _, c := range conns {
		require.Equal(t, []string{protocol.EventGeneral}, c.events())
	}
}

func TestHubUnregisterRemovesUserBinding(t *testing.T) {
	hub := NewHub()

	conn := &fakeConn{}
	sess := NewSession(conn, 0, false)
	sess.bindUser("0001")
	hub.Register(sess)
	hub.Bind("0001", sess)

	hub.Unregister(sess)

	hub.SendToUser("0001", protocol.EventReceiveMsg, protocol.InboundMessage{Message: "hi"})
	hub.BroadcastAll(protocol.EventGeneral, "hello")
	assert.Empty(t, conn.writes)
}
