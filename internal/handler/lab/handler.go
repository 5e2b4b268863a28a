package lab

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/service/lab"
	"github.com/jwalitptl/hospital-api/pkg/httputil"
)

type Handler struct {
	service *lab.Service
}

func NewHandler(service *lab.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authenticate gin.HandlerFunc) {
	tests := r.Group("/lab", authenticate)
	{
		tests.POST("/order", h.OrderTest)
		tests.GET("/list", h.ListTests)
		tests.PUT("/update/:id", h.UpdateTest)
	}
}

func (h *Handler) OrderTest(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.OrderLabTestRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	test, err := h.service.Order(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, test)
}

func (h *Handler) ListTests(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	tests, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tests)
}

func (h *Handler) UpdateTest(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateLabTestRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	test, err := h.service.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, test)
}
