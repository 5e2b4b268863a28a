package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/handler/handlertest"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/realtime"
	"github.com/jwalitptl/hospital-api/internal/service/chat"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
	"github.com/jwalitptl/hospital-api/pkg/websocket"
)

type fixture struct {
	env   *handlertest.Env
	hub   *websocket.Hub
	relay *realtime.Relay
	url   string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	env := handlertest.New(t)
	hub := websocket.NewHub()
	relay := realtime.NewRelay(hub, nil, "", nil)
	chatSvc := chat.NewService(env.Store.Chat(), env.Store.Users(), env.Notifier, relay)

	engine := gin.New()
	NewHandler(hub, env.Auth, chatSvc, metrics.New("test", prometheus.NewRegistry())).RegisterRoutes(engine)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return &fixture{env: env, hub: hub, relay: relay, url: "ws" + strings.TrimPrefix(srv.URL, "http")}
}

func (f *fixture) dial(t *testing.T, path string) *gorillawebsocket.Conn {
	t.Helper()
	conn, _, err := gorillawebsocket.DefaultDialer.Dial(f.url+path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func closeCode(t *testing.T, conn *gorillawebsocket.Conn) int {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	var closeErr *gorillawebsocket.CloseError
	require.True(t, errors.As(err, &closeErr), "expected close frame, got %v", err)
	return closeErr.Code
}

func readJSON(t *testing.T, conn *gorillawebsocket.Conn, v interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestHandshakeRejections(t *testing.T) {
	f := setup(t)
	doctor := f.env.Store.Seed(model.RoleDoctor, "doc")
	token := f.env.Token(t, doctor)

	tests := []struct {
		name string
		path string
		code int
	}{
		{"notifications without token", "/ws/notifications", websocket.CloseMissingToken},
		{"notifications with bad token", "/ws/notifications?token=garbage", websocket.CloseInvalidToken},
		{"chat without token", "/ws/chat?receiver_id=1", websocket.CloseMissingToken},
		{"chat without receiver", "/ws/chat?token=" + token, websocket.CloseMissingReceiver},
		{"chat with unparsable receiver", "/ws/chat?receiver_id=abc&token=" + token, websocket.CloseMissingReceiver},
		{"chat with unknown receiver", "/ws/chat?receiver_id=9999&token=" + token, websocket.CloseReceiverNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := f.dial(t, tt.path)
			assert.Equal(t, tt.code, closeCode(t, conn))
		})
	}
}

func TestNotificationsReceivePushes(t *testing.T) {
	f := setup(t)
	patient := f.env.Store.Seed(model.RolePatient, "pat")

	conn := f.dial(t, "/ws/notifications?token="+f.env.Token(t, patient))
	topic := realtime.UserTopic(patient.ID)
	require.Eventually(t, func() bool { return f.hub.TopicCount(topic) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, f.relay.Publish(context.Background(), topic,
		model.RealtimeEvent{Type: "notification", Message: "Your lab results are ready"}))

	var event model.RealtimeEvent
	readJSON(t, conn, &event)
	assert.Equal(t, "Your lab results are ready", event.Message)

	conn.Close()
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestChatRoom(t *testing.T) {
	f := setup(t)
	doctor := f.env.Store.Seed(model.RoleDoctor, "doc")
	patient := f.env.Store.Seed(model.RolePatient, "pat")

	conn := f.dial(t, fmt.Sprintf("/ws/chat?receiver_id=%d&token=%s", patient.ID, f.env.Token(t, doctor)))
	room := realtime.ChatRoom(doctor.ID, patient.ID)
	require.Eventually(t, func() bool { return f.hub.TopicCount(room) == 1 }, time.Second, 10*time.Millisecond)

	var chatErr model.ChatError
	require.NoError(t, conn.WriteMessage(gorillawebsocket.TextMessage, []byte("{not json")))
	readJSON(t, conn, &chatErr)
	assert.Equal(t, "Internal server error", chatErr.Error)

	require.NoError(t, conn.WriteMessage(gorillawebsocket.TextMessage, []byte(`{"message": 42}`)))
	readJSON(t, conn, &chatErr)
	assert.Equal(t, "Internal server error", chatErr.Error)

	require.NoError(t, conn.WriteJSON(model.ChatInbound{Message: ""}))
	readJSON(t, conn, &chatErr)
	assert.Equal(t, "Message is required", chatErr.Error)

	require.NoError(t, conn.WriteJSON(model.ChatInbound{Message: "How are you feeling today?"}))
	var out model.ChatOutbound
	readJSON(t, conn, &out)
	assert.Equal(t, "chat.message", out.Type)
	assert.Equal(t, "doc", out.Sender)
	assert.Equal(t, patient.ID, out.ReceiverID)
	assert.Equal(t, "How are you feeling today?", out.Message)

	history, err := f.env.Store.Chat().Conversation(context.Background(), patient.ID, doctor.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, doctor.ID, history[0].SenderID)
}
