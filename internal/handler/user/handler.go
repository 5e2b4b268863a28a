package user

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/service/user"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/httputil"
)

const (
	profilePictureField = "profile_picture"
	msgRegistered       = "Registration successful. Awaiting approval by a record officer."
)

type Handler struct {
	service *user.Service
}

func NewHandler(service *user.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authenticate gin.HandlerFunc) {
	users := r.Group("/users")
	{
		users.POST("/signup", h.Signup)

		protected := users.Group("", authenticate)
		protected.POST("/create-employee", h.CreateEmployee)
		protected.GET("/approve-patient", h.PendingPatients)
		protected.PUT("/approve-patient", h.ApprovePatient)
		protected.GET("/profile", h.GetProfile)
		protected.PUT("/profile", h.UpdateProfile)
		protected.GET("/doctors", h.ListDoctors)
	}
}

// Signup accepts JSON or a multipart form with an optional profile picture.
func (h *Handler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if !handler.Bind(c, &req) {
		return
	}

	var picture *user.Upload
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile(profilePictureField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			httputil.RespondWithStatus(c, http.StatusBadRequest, "invalid profile picture")
			return
		default:
			f, err := fh.Open()
			if err != nil {
				httputil.RespondWithError(c, apperrors.Internal(err))
				return
			}
			defer f.Close()
			picture = &user.Upload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Body:        f,
			}
		}
	}

	created, err := h.service.Signup(c.Request.Context(), &req, picture)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.Response{
		Status:  "success",
		Message: msgRegistered,
		Data:    gin.H{"id": created.ID, "username": created.Username},
	})
}

func (h *Handler) CreateEmployee(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.CreateEmployeeRequest
	if !handler.Bind(c, &req) {
		return
	}

	employee, err := h.service.CreateEmployee(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.Response{
		Status:  "success",
		Message: "Employee account created successfully.",
		Data:    employee,
	})
}

func (h *Handler) PendingPatients(c *gin.Context) {
	patients, err := h.service.PendingPatients(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) ApprovePatient(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.ApprovePatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	if err := h.service.ApprovePatient(c.Request.Context(), actor, req.UserID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Patient approved successfully.")
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

func (h *Handler) UpdateProfile(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req model.UpdateProfileRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.service.Doctors(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}
