package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pairchat/internal/client"
)

// expiringDirectory and expiringStore fail calls whose context has already
// expired, the way the sql drivers do, so round-trip tests can prove the
// connection context is not bound to the upgrade request's deadline.
type expiringDirectory struct {
	MockUserDirectory
}

func (d *expiringDirectory) LoginUser(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return d.MockUserDirectory.LoginUser(ctx, userID)
}

type expiringStore struct {
	MockMessageStore
}

func (s *expiringStore) SaveMessage(ctx context.Context, content, clientOffset string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.MockMessageStore.SaveMessage(ctx, content, clientOffset)
}

func dialTestClient(t *testing.T, srvURL, userID string, offset int64) *client.ChatClient {
	t.Helper()
	cfg := client.Config{
		Endpoint:   "ws" + strings.TrimPrefix(srvURL, "http"),
		AuthOffset: offset,
		AckTimeout: 2 * time.Second,
		Retries:    1,
	}
	c, err := client.Dial(cfg, userID, "", "")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestWebSocketLoginRoundTrip(t *testing.T) {
	dir := new(MockUserDirectory)
	dir.On("LoginUser", mock.Anything, "0000").Return(true, nil)
	store := new(MockMessageStore)
	store.On("RetrieveMessages", mock.Anything, int64(0), mock.Anything).Return(nil)

	orch := NewOrchestrator(NewHub(), dir, store)
	srv := httptest.NewServer(MakeHandler(orch, nil))
	defer srv.Close()

	c := dialTestClient(t, srv.URL, "0000", 0)
	require.NoError(t, c.Login(context.Background()))
	assert.True(t, c.IsOnline())
}

func TestWebSocketRecoveryReplay(t *testing.T) {
	dir := new(MockUserDirectory)
	store := new(MockMessageStore)
	store.On("RetrieveMessages", mock.Anything, int64(1), mock.Anything).
		Run(func(args mock.Arguments) {
			emit := args.Get(2).(func(content string, id int64))
			emit("second", 2)
			emit("third", 3)
		}).
		Return(nil)

	orch := NewOrchestrator(NewHub(), dir, store)
	srv := httptest.NewServer(MakeHandler(orch, nil))
	defer srv.Close()

	c := dialTestClient(t, srv.URL, "0000", 1)

	require.Eventually(t, func() bool {
		return c.Offset() == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketConnectionOutlivesRequestDeadline(t *testing.T) {
	dir := new(expiringDirectory)
	dir.On("LoginUser", mock.Anything, "0000").Return(true, nil)
	store := new(expiringStore)
	store.On("RetrieveMessages", mock.Anything, int64(0), mock.Anything).Return(nil)
	store.On("SaveMessage", mock.Anything, "still here", mock.Anything).Return(int64(1), nil)

	orch := NewOrchestrator(NewHub(), dir, store)
	handler := middleware.Timeout(50 * time.Millisecond)(MakeHandler(orch, nil))
	srv := httptest.NewServer(handler)
	defer srv.Close()

	c := dialTestClient(t, srv.URL, "0000", 0)

	// Outlive the request deadline before exercising the protocol.
	time.Sleep(100 * time.Millisecond)

	ctx := context.Background()
	require.NoError(t, c.Login(ctx))
	require.NoError(t, c.SendChatMessage(ctx, "still here"))
	assert.True(t, c.IsOnline())
}

func TestWebSocketRoomMessageCircuit(t *testing.T) {
	dir := new(MockUserDirectory)
	dir.On("LoginUser", mock.Anything, mock.Anything).Return(true, nil)
	dir.On("CheckForUserID", mock.Anything, mock.Anything).Return(true, nil)
	store := new(MockMessageStore)
	store.On("RetrieveMessages", mock.Anything, int64(0), mock.Anything).Return(nil)

	orch := NewOrchestrator(NewHub(), dir, store)
	srv := httptest.NewServer(MakeHandler(orch, nil))
	defer srv.Close()

	ctx := context.Background()
	alice := dialTestClient(t, srv.URL, "0000", 0)
	bob := dialTestClient(t, srv.URL, "0001", 0)
	require.NoError(t, alice.Login(ctx))
	require.NoError(t, bob.Login(ctx))

	roomID, err := alice.StartChatWith(ctx, "0001")
	require.NoError(t, err)
	require.NotEmpty(t, roomID)

	require.NoError(t, alice.SendMessageTo("0001", "hi"))

	require.Eventually(t, func() bool {
		msgs := bob.Messages()["0000"]
		return len(msgs) == 1 && msgs[0].Message == "hi" && msgs[0].RoomID == roomID
	}, 2*time.Second, 10*time.Millisecond)
}
