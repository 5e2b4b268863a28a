// Package ws serves the notification and chat WebSocket endpoints. Both
// authenticate with a ?token= access token because browsers cannot set
// headers on the upgrade request.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/realtime"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service/chat"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
	"github.com/jwalitptl/hospital-api/pkg/websocket"
)

const (
	endpointNotifications = "notifications"
	endpointChat          = "chat"

	msgRequired      = "Message is required"
	msgInternal      = "Internal server error"
)

// Authenticator resolves a query-string token to an active user.
type Authenticator interface {
	UserFromToken(ctx context.Context, token string) (*model.User, error)
}

type Handler struct {
	hub     *websocket.Hub
	auth    Authenticator
	chat    *chat.Service
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewHandler(hub *websocket.Hub, auth Authenticator, chatSvc *chat.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		hub:     hub,
		auth:    auth,
		chat:    chatSvc,
		metrics: m,
		logger:  log.With().Str("component", "websocket").Logger(),
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	ws := r.Group("/ws")
	{
		ws.GET("/notifications", h.Notifications)
		ws.GET("/chat", h.Chat)
	}
}

// Notifications subscribes the caller to their user_{id} group.
func (h *Handler) Notifications(c *gin.Context) {
	conn, err := websocket.Upgrade(c.Writer, c.Request)
	if err != nil {
		h.logger.Debug().Err(err).Msg("upgrade failed")
		return
	}

	user, ok := h.authenticate(c, conn)
	if !ok {
		return
	}

	h.track(endpointNotifications, 1)
	defer h.track(endpointNotifications, -1)

	client := websocket.NewClient(user.ID, realtime.UserTopic(user.ID))
	websocket.Serve(h.hub, client, conn, nil)
}

// Chat joins the caller and receiver_id to their shared room.
func (h *Handler) Chat(c *gin.Context) {
	conn, err := websocket.Upgrade(c.Writer, c.Request)
	if err != nil {
		h.logger.Debug().Err(err).Msg("upgrade failed")
		return
	}

	user, ok := h.authenticate(c, conn)
	if !ok {
		return
	}

	receiverID, err := strconv.ParseInt(c.Query("receiver_id"), 10, 64)
	if err != nil {
		_ = websocket.CloseWithCode(conn, websocket.CloseMissingReceiver, "receiver_id is required")
		return
	}
	receiver, err := h.chat.User(c.Request.Context(), receiverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = websocket.CloseWithCode(conn, websocket.CloseReceiverNotFound, "receiver not found")
			return
		}
		h.logger.Error().Err(err).Int64("receiver_id", receiverID).Msg("failed to load chat receiver")
		_ = websocket.CloseWithCode(conn, gorillawebsocket.CloseInternalServerErr, msgInternal)
		return
	}

	h.track(endpointChat, 1)
	defer h.track(endpointChat, -1)

	ctx := c.Request.Context()
	client := websocket.NewClient(user.ID, realtime.ChatRoom(user.ID, receiver.ID))
	websocket.Serve(h.hub, client, conn, func(data []byte) {
		var in model.ChatInbound
		if err := json.Unmarshal(data, &in); err != nil {
			h.logger.Debug().Err(err).Int64("sender_id", user.ID).Msg("malformed chat frame")
			reply(client, msgInternal)
			return
		}

		_, err := h.chat.Send(ctx, user, receiver, in.Message)
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			reply(client, msgRequired)
		case err != nil:
			h.logger.Error().Err(err).Int64("sender_id", user.ID).Int64("receiver_id", receiver.ID).Msg("chat message not delivered")
			reply(client, msgInternal)
		}
	})
}

func (h *Handler) authenticate(c *gin.Context, conn *gorillawebsocket.Conn) (*model.User, bool) {
	token := c.Query("token")
	if token == "" {
		_ = websocket.CloseWithCode(conn, websocket.CloseMissingToken, "token is required")
		return nil, false
	}
	user, err := h.auth.UserFromToken(c.Request.Context(), token)
	if err != nil {
		_ = websocket.CloseWithCode(conn, websocket.CloseInvalidToken, "invalid token")
		return nil, false
	}
	return user, true
}

// reply sends an error frame to one client. It runs on the read pump, before
// the hub closes client.Send.
func reply(client *websocket.Client, message string) {
	data, err := json.Marshal(model.ChatError{Error: message})
	if err != nil {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

func (h *Handler) track(endpoint string, delta float64) {
	if h.metrics != nil {
		h.metrics.WebsocketConnections.WithLabelValues(endpoint).Add(delta)
	}
}
