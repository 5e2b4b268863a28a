package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/service/patient"
	"github.com/jwalitptl/hospital-api/pkg/httputil"
)

// Handler serves the patient portal. Every route is limited to patients by
// the service.
type Handler struct {
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authenticate gin.HandlerFunc) {
	patients := r.Group("/patients", authenticate)
	{
		patients.GET("/profile", h.GetProfile)
		patients.GET("/history/medical", h.MedicalHistory)
		patients.GET("/history/billing", h.BillingHistory)
		patients.GET("/notifications", h.Notifications)
		patients.PUT("/notifications/mark-read", h.MarkNotificationsRead)
		patients.POST("/comment", h.Comment)
	}
}

func (h *Handler) GetProfile(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	profile, err := h.service.Profile(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) MedicalHistory(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	history, err := h.service.MedicalHistory(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, history)
}

func (h *Handler) BillingHistory(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	history, err := h.service.BillingHistory(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, history)
}

func (h *Handler) Notifications(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	items, err := h.service.UnreadNotifications(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, items)
}

func (h *Handler) MarkNotificationsRead(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	if err := h.service.MarkAllNotificationsRead(c.Request.Context(), actor); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "All notifications marked as read")
}

func (h *Handler) Comment(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.CommentRequest
	// length limits are enforced by the service so role errors win
	_ = c.ShouldBindJSON(&req)

	comment, err := h.service.Comment(c.Request.Context(), actor, req.Message)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.Response{
		Status:  "success",
		Message: "Comment submitted successfully",
		Data:    comment,
	})
}
