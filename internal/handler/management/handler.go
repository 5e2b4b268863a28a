package management

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/service/management"
	"github.com/jwalitptl/hospital-api/internal/service/message"
	"github.com/jwalitptl/hospital-api/pkg/httputil"
)

const msgBadDate = "Invalid date format. Use YYYY-MM-DD"

type Handler struct {
	service  *management.Service
	messages *message.Service
}

func NewHandler(service *management.Service, messages *message.Service) *Handler {
	return &Handler{service: service, messages: messages}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authenticate gin.HandlerFunc) {
	mgmt := r.Group("/management")
	{
		mgmt.GET("/services", h.ListServices)

		protected := mgmt.Group("", authenticate)
		protected.GET("/financial/summary", h.FinancialSummary)
		protected.GET("/medical/appointments", h.AppointmentStats)
		protected.GET("/system/overview", h.SystemOverview)
		protected.GET("/system/most-used-services", h.MostUsedServices)
		protected.GET("/patient-comments", h.PatientComments)
		protected.POST("/attendance", h.RecordAttendance)
		protected.GET("/attendance", h.ListAttendance)
		protected.POST("/services", h.UpsertService)
		protected.GET("/employees/:role", h.Employees)
		protected.POST("/send", h.SendMessage)
		protected.GET("/inbox", h.Inbox)
	}
}

func dateQuery(c *gin.Context, name string) (*model.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		httputil.RespondWithStatus(c, http.StatusBadRequest, msgBadDate)
		return nil, false
	}
	return &d, true
}

func (h *Handler) FinancialSummary(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	start, ok := dateQuery(c, "start_date")
	if !ok {
		return
	}
	end, ok := dateQuery(c, "end_date")
	if !ok {
		return
	}

	summary, err := h.service.FinancialSummary(c.Request.Context(), actor, start, end)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}

func (h *Handler) AppointmentStats(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var doctorID *int64
	if raw := c.Query("doctor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.RespondWithStatus(c, http.StatusBadRequest, "invalid doctor_id")
			return
		}
		doctorID = &id
	}

	stats, err := h.service.AppointmentStats(c.Request.Context(), actor, doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}

func (h *Handler) SystemOverview(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	overview, err := h.service.SystemOverview(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, overview)
}

func (h *Handler) MostUsedServices(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	usage, err := h.service.MostUsedServices(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, usage)
}

func (h *Handler) PatientComments(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	comments, err := h.service.PatientComments(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, comments)
}

func (h *Handler) RecordAttendance(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.AttendanceRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	view, err := h.service.RecordAttendance(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, view)
}

func (h *Handler) ListAttendance(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	records, err := h.service.Attendance(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, records)
}

func (h *Handler) ListServices(c *gin.Context) {
	prices, err := h.service.ServicePrices(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, prices)
}

func (h *Handler) UpsertService(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.ServicePriceRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	price, err := h.service.UpsertServicePrice(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, price)
}

func (h *Handler) Employees(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	employees, err := h.service.Employees(c.Request.Context(), actor, c.Param("role"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, employees)
}

func (h *Handler) SendMessage(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.SendMessageRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	msg, err := h.messages.SendManager(c.Request.Context(), actor, &req)
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
	messages, err := h.messages.Inbox(c.Request.Context(), actor, model.MessageKindManager)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, messages)
}
