package chat

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/service/chat"
	"github.com/jwalitptl/hospital-api/pkg/httputil"
)

type Handler struct {
	service *chat.Service
}

func NewHandler(service *chat.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authenticate gin.HandlerFunc) {
	r.GET("/chat/history/:user_id", authenticate, h.History)
}

func (h *Handler) History(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	otherID, ok := handler.ParamID(c, "user_id")
	if !ok {
		return
	}

	messages, err := h.service.History(c.Request.Context(), actor, otherID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, messages)
}
