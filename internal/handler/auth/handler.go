package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/service/auth"
	"github.com/jwalitptl/hospital-api/pkg/httputil"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

type Handler struct {
	service      *auth.Service
	secureCookie bool
}

// NewHandler builds the session handler. secureCookie marks the token
// cookies Secure and should be set outside development.
func NewHandler(service *auth.Service, secureCookie bool) *Handler {
	return &Handler{service: service, secureCookie: secureCookie}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authenticate gin.HandlerFunc) {
	users := r.Group("/users")
	{
		users.POST("/login", h.Login)
		users.POST("/refresh-token", h.RefreshToken)
		users.POST("/logout", authenticate, h.Logout)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	session, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, session.Response.Access, int(session.AccessTTL.Seconds()), "/", "", h.secureCookie, true)
	c.SetCookie(RefreshCookie, session.Response.Refresh, int(session.RefreshTTL.Seconds()), "/", "", h.secureCookie, true)

	httputil.RespondWithSuccess(c, session.Response)
}

func (h *Handler) Logout(c *gin.Context) {
	var req model.LogoutRequest
	// an unreadable body is treated like a missing token
	_ = c.ShouldBindJSON(&req)

	if err := h.service.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, "", -1, "/", "", h.secureCookie, true)
	c.SetCookie(RefreshCookie, "", -1, "/", "", h.secureCookie, true)
	httputil.RespondWithMessage(c, "Logout successful")
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	_ = c.ShouldBindJSON(&req)

	tokens, err := h.service.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tokens)
}
