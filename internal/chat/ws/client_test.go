package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parlorbot/parlor/internal/chat"
	"github.com/parlorbot/parlor/internal/config"
)

var upgrader = websocket.Upgrader{}

type fakeServer struct {
	server *httptest.Server

	conns chan *websocket.Conn
	auth  chan string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{
		conns: make(chan *websocket.Conn, 1),
		auth:  make(chan string, 1),
	}
	fs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.auth <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrading: %v", err)
			return
		}
		fs.conns <- conn
	}))
	t.Cleanup(fs.server.Close)
	return fs
}

func (fs *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(fs.server.URL, "http")
}

func (fs *fakeServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-fs.conns:
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("no websocket connection arrived")
		return nil
	}
}

func testConfig(url string) config.ChatConfig {
	return config.ChatConfig{
		URL:          url,
		Token:        "secret",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PingInterval: time.Minute,
	}
}

func TestClientDispatchesInbound(t *testing.T) {
	fs := newFakeServer(t)

	received := make(chan chat.Message, 1)
	client := NewClient(testConfig(fs.url()), chat.HandlerFunc(func(_ context.Context, msg chat.Message) {
		received <- msg
	}), zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- client.Start() }()
	defer client.Stop()

	conn := fs.accept(t)
	assert.Equal(t, "Bearer secret", <-fs.auth)

	require.NoError(t, conn.WriteJSON(event{
		Type:       "message",
		Sender:     "alice@example.org",
		SenderName: "Alice",
		Content:    "start game",
		Channel:    "general",
		Topic:      "t1",
	}))

	select {
	case msg := <-received:
		assert.Equal(t, chat.Address("alice@example.org"), msg.Sender)
		assert.Equal(t, "Alice", msg.SenderName)
		assert.Equal(t, "start game", msg.Content)
		assert.Equal(t, chat.Destination{Channel: "general", Topic: "t1"}, msg.Dest)
	case <-time.After(5 * time.Second):
		t.Fatal("handler never ran")
	}

	client.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestClientIgnoresNonMessageEvents(t *testing.T) {
	fs := newFakeServer(t)

	received := make(chan chat.Message, 1)
	client := NewClient(testConfig(fs.url()), chat.HandlerFunc(func(_ context.Context, msg chat.Message) {
		received <- msg
	}), zap.NewNop())

	go func() { _ = client.Start() }()
	defer client.Stop()

	conn := fs.accept(t)
	require.NoError(t, conn.WriteJSON(event{Type: "presence", Sender: "alice@example.org"}))
	require.NoError(t, conn.WriteJSON(event{Type: "message"})) // no sender
	require.NoError(t, conn.WriteJSON(event{Type: "message", Sender: "bob@example.org", Content: "hi"}))

	select {
	case msg := <-received:
		assert.Equal(t, chat.Address("bob@example.org"), msg.Sender)
		assert.True(t, msg.Dest.IsPrivate())
	case <-time.After(5 * time.Second):
		t.Fatal("message event was not dispatched")
	}
}

func TestClientSends(t *testing.T) {
	fs := newFakeServer(t)

	client := NewClient(testConfig(fs.url()), chat.HandlerFunc(func(context.Context, chat.Message) {}), zap.NewNop())
	go func() { _ = client.Start() }()
	defer client.Stop()

	conn := fs.accept(t)
	ctx := context.Background()

	// the dialing goroutine may not have stored the connection yet
	require.Eventually(t, func() bool {
		return client.SendPrivate(ctx, "bob@example.org", "your move") == nil
	}, 5*time.Second, 10*time.Millisecond)
	var ev event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "message", ev.Type)
	assert.Equal(t, "bob@example.org", ev.To)
	assert.Equal(t, "your move", ev.Content)
	assert.Empty(t, ev.Channel)

	require.NoError(t, client.SendChannel(ctx, chat.Destination{Channel: "general", Topic: "t1"}, "game on"))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "general", ev.Channel)
	assert.Equal(t, "t1", ev.Topic)
	assert.Equal(t, "game on", ev.Content)

	err := client.SendChannel(ctx, chat.Private, "nope")
	assert.Error(t, err)
}

func TestSendBeforeConnect(t *testing.T) {
	client := NewClient(testConfig("ws://127.0.0.1:0"), chat.HandlerFunc(func(context.Context, chat.Message) {}), zap.NewNop())
	err := client.SendPrivate(context.Background(), "bob@example.org", "hello")
	assert.Error(t, err)
}
