package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/pkg/messaging"
)

const checkTimeout = 2 * time.Second

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type check struct {
	name string
	ping func(ctx context.Context) error
}

type Handler struct {
	checks []check
}

func NewHandler(db Pinger) *Handler {
	return &Handler{
		checks: []check{{name: "database", ping: db.PingContext}},
	}
}

// WithPinger adds a dependency, such as the Redis broker, to the readiness check.
func (h *Handler) WithPinger(name string, p messaging.Pinger) *Handler {
	h.checks = append(h.checks, check{name: name, ping: p.Ping})
	return h
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	for _, chk := range h.checks {
		if err := chk.ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "DOWN",
				"reason": chk.name + " connection failed",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
