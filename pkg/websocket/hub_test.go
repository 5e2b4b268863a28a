package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	var connections int
	hub.OnConnectionChange(func(delta int) { connections += delta })

	client := NewClient(1, "user_1")
	hub.Register(client)

	assert.Equal(t, 1, hub.ClientCount())
	assert.Equal(t, 1, hub.TopicCount("user_1"))
	assert.Equal(t, 1, connections)

	hub.Unregister(client)
	hub.Unregister(client)

	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, 0, hub.TopicCount("user_1"))
	assert.Equal(t, 0, connections)

	_, ok := <-client.Send
	assert.False(t, ok, "send channel should be closed")
}

func TestHub_BroadcastOnlyReachesTopic(t *testing.T) {
	hub := NewHub()
	subscriber := NewClient(1, "user_1")
	other := NewClient(2, "user_2")
	hub.Register(subscriber)
	hub.Register(other)

	hub.Broadcast("user_1", map[string]string{"type": "notification", "message": "hi"})

	select {
	case msg := <-subscriber.Send:
		assert.JSONEq(t, `{"type":"notification","message":"hi"}`, string(msg))
	default:
		t.Fatal("subscriber did not receive message")
	}

	assert.Len(t, other.Send, 0)
}

func TestHub_Subscribe(t *testing.T) {
	hub := NewHub()
	client := NewClient(3)
	hub.Register(client)
	hub.Subscribe(client, "chat_3_7")

	assert.Equal(t, 1, hub.TopicCount("chat_3_7"))
	assert.Equal(t, 1, hub.BroadcastRaw("chat_3_7", []byte(`{}`)))
}

func TestHub_SlowClientIsSkipped(t *testing.T) {
	hub := NewHub()
	slow := &Client{ID: "slow", Topics: []string{"user_9"}, Send: make(chan []byte, 1)}
	hub.Register(slow)

	assert.Equal(t, 1, hub.BroadcastRaw("user_9", []byte("a")))
	assert.Equal(t, 0, hub.BroadcastRaw("user_9", []byte("b")))
}

func TestServe_RoundTrip(t *testing.T) {
	hub := NewHub()
	received := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			return
		}
		Serve(hub, NewClient(5, "user_5"), conn, func(data []byte) {
			received <- string(data)
		})
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := gorillawebsocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return hub.TopicCount("user_5") == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast("user_5", map[string]string{"type": "notification"})
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"notification"}`, string(msg))

	require.NoError(t, ws.WriteMessage(gorillawebsocket.TextMessage, []byte("ping")))
	select {
	case got := <-received:
		assert.Equal(t, "ping", got)
	case <-time.After(time.Second):
		t.Fatal("server did not receive message")
	}

	ws.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestCloseWithCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			return
		}
		_ = CloseWithCode(conn, CloseMissingToken, "missing token")
	}))
	defer srv.Close()

	ws, _, err := gorillawebsocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer ws.Close()

	_, _, err = ws.ReadMessage()
	var closeErr *gorillawebsocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, CloseMissingToken, closeErr.Code)
}
