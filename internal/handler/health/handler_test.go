package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h.RegisterRoutes(engine)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name string
		db   pinger
		path string
		code int
		body string
	}{
		{"live ignores database", pinger{err: errors.New("down")}, "/health/live", http.StatusOK, `{"status":"UP"}`},
		{"ready", pinger{}, "/health/ready", http.StatusOK, `{"status":"UP"}`},
		{"ready with database down", pinger{err: errors.New("refused")}, "/health/ready", http.StatusServiceUnavailable,
			`{"status":"DOWN","reason":"database connection failed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(NewHandler(tt.db), tt.path)
			assert.Equal(t, tt.code, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

type brokerPinger struct{ err error }

func (b brokerPinger) Ping(context.Context) error { return b.err }

func TestReadinessIncludesBroker(t *testing.T) {
	h := NewHandler(pinger{}).WithPinger("redis", brokerPinger{err: errors.New("timeout")})
	w := serve(h, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"DOWN","reason":"redis connection failed"}`, w.Body.String())
}
