package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/service/billing"
	"github.com/jwalitptl/hospital-api/pkg/httputil"
)

type Handler struct {
	service *billing.Service
}

func NewHandler(service *billing.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authenticate gin.HandlerFunc) {
	billings := r.Group("/billings")
	{
		// called by the payment gateway, authenticated by HMAC signature
		billings.POST("/callback", h.Callback)

		protected := billings.Group("", authenticate)
		protected.POST("/create", h.CreateInvoice)
		protected.POST("/pay/:id", h.Pay)
		protected.GET("/list", h.ListInvoices)
		protected.GET("/logs", h.Logs)
		protected.PUT("/approve/:user_id", h.Approve)
	}
}

func (h *Handler) CreateInvoice(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.CreateInvoiceRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	invoice, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, invoice)
}

func (h *Handler) Pay(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	link, err := h.service.Pay(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, link)
}

func (h *Handler) ListInvoices(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	invoices, err := h.service.ListForPatient(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, invoices)
}

func (h *Handler) Logs(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	invoices, err := h.service.Logs(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, invoices)
}

// Callback receives gateway webhooks. The signature covers the raw body,
// so it is read before any decoding.
func (h *Handler) Callback(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		httputil.RespondWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.HandleWebhook(c.Request.Context(), c.Request.Header, body)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Approve(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	patientID, ok := handler.ParamID(c, "user_id")
	if !ok {
		return
	}
	var req model.ApprovePaymentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Approve(c.Request.Context(), actor, patientID, req.Amount)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.Response{
		Status:  "success",
		Message: result.Message,
		Data:    result.ApprovePaymentResponse,
	})
}
