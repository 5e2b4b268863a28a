// Package handler holds helpers shared by the per-domain gin handlers.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/middleware"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/pkg/httputil"
	"github.com/jwalitptl/hospital-api/pkg/validator"
)

// Actor returns the authenticated user, writing a 401 when there is none.
func Actor(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		httputil.RespondWithStatus(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return nil, false
	}
	return user, true
}

// ParamID parses a positive integer path parameter, writing a 400 on failure.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondWithStatus(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// BindJSON decodes and validates a JSON body, writing a 400 on failure.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.RespondWithStatus(c, http.StatusBadRequest, validator.Describe(err))
		return false
	}
	return true
}

// Bind picks the binding from the request content type so endpoints accept
// both JSON and form submissions.
func Bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBind(req); err != nil {
		httputil.RespondWithStatus(c, http.StatusBadRequest, validator.Describe(err))
		return false
	}
	return true
}
