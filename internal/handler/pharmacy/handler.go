package pharmacy

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/service/pharmacy"
	"github.com/jwalitptl/hospital-api/pkg/httputil"
)

type Handler struct {
	service *pharmacy.Service
}

func NewHandler(service *pharmacy.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authenticate gin.HandlerFunc) {
	rx := r.Group("/pharmacy")
	{
		rx.GET("/drugs/list", h.ListDrugs)

		protected := rx.Group("", authenticate)
		protected.POST("/prescribe", h.Prescribe)
		protected.GET("/list", h.ListPrescriptions)
		protected.PUT("/update/:id", h.UpdatePrescription)

		protected.POST("/drugs/create", h.CreateDrug)
		protected.PUT("/drugs/update/:id", h.UpdateDrug)
		protected.DELETE("/drugs/delete/:id", h.DeleteDrug)
		protected.GET("/drugs/search", h.SearchDrugs)
	}
}

func (h *Handler) Prescribe(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.PrescribeRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Prescribe(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) ListPrescriptions(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	list, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) UpdatePrescription(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.UpdatePrescriptionRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) ListDrugs(c *gin.Context) {
	drugs, err := h.service.ListDrugs(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, drugs)
}

func (h *Handler) CreateDrug(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.DrugRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	drug, err := h.service.CreateDrug(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, drug)
}

func (h *Handler) UpdateDrug(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateDrugRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	drug, err := h.service.UpdateDrug(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, drug)
}

func (h *Handler) DeleteDrug(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteDrug(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Drug deleted successfully")
}

func (h *Handler) SearchDrugs(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	drugs, err := h.service.SearchDrugs(c.Request.Context(), actor, c.Query("name"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, drugs)
}
