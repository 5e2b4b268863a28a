package message

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/service/message"
	"github.com/jwalitptl/hospital-api/pkg/httputil"
)

// Handler serves staff-to-staff messages. Manager messages share the
// service and are routed by the management handler.
type Handler struct {
	service *message.Service
}

func NewHandler(service *message.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authenticate gin.HandlerFunc) {
	staff := r.Group("/staff/messages", authenticate)
	{
		staff.POST("/send", h.Send)
		staff.GET("/inbox", h.Inbox)
	}
}

func (h *Handler) Send(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.SendMessageRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	msg, err := h.service.SendStaff(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, msg)
}

func (h *Handler) Inbox(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	messages, err := h.service.Inbox(c.Request.Context(), actor, model.MessageKindStaff)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, messages)
}
