// Package handlertest wires handlers onto a gin engine backed by the
// in-memory repositories so handler tests can issue real HTTP requests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/middleware"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository/repotest"
	"github.com/jwalitptl/hospital-api/internal/service/notification"
	"github.com/jwalitptl/hospital-api/pkg/auth"
)

const Secret = "handler-test-secret"

// Mountable matches the domain handlers' RegisterRoutes.
type Mountable interface {
	RegisterRoutes(r *gin.RouterGroup, authenticate gin.HandlerFunc)
}

type Env struct {
	Store    *repotest.Store
	JWT      auth.JWTService
	Auth     *middleware.AuthMiddleware
	Engine   *gin.Engine
	Notifier *notification.Service
}

// Envelope is the decoded JSON response.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func New(t *testing.T) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, model.RegisterValidators())

	store := repotest.NewStore()
	jwtSvc := auth.NewJWTService(auth.Config{Secret: Secret})
	engine := gin.New()
	engine.Use(middleware.ErrorHandler())

	return &Env{
		Store:    store,
		JWT:      jwtSvc,
		Auth:     middleware.NewAuthMiddleware(jwtSvc, store.Users(), 0),
		Engine:   engine,
		Notifier: notification.NewService(store.Notifications(), store.Users(), store.EmailOutbox(), nil, notification.Options{}),
	}
}

// Mount registers h under /api/v1.
func (e *Env) Mount(h Mountable) *Env {
	h.RegisterRoutes(e.Engine.Group("/api/v1"), e.Auth.Authenticate())
	return e
}

// Token issues an access token for user.
func (e *Env) Token(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := e.JWT.GenerateAccessToken(user.ID, user.Role)
	require.NoError(t, err)
	return token
}

// Do sends a JSON request as user (nil for anonymous). body may be nil, a
// string or []byte sent verbatim, or any value to marshal.
func (e *Env) Do(t *testing.T, method, path string, user *model.User, body interface{}) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+e.Token(t, user))
	}
	return e.Serve(t, req)
}

// Serve runs a prepared request and decodes the envelope when the body is JSON.
func (e *Env) Serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	e.Engine.ServeHTTP(w, req)

	var env Envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

// DecodeData unmarshals the envelope's data into v.
func DecodeData(t *testing.T, env Envelope, v interface{}) {
	t.Helper()
	require.NotEmpty(t, env.Data, "response carried no data")
	require.NoError(t, json.Unmarshal(env.Data, v))
}
