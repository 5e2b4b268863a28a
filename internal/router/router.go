package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/hospital-api/internal/config"
	"github.com/jwalitptl/hospital-api/internal/middleware"
)

// Handler is a domain handler mounted under /api/v1. authenticate guards
// the routes that need a logged-in user.
type Handler interface {
	RegisterRoutes(r *gin.RouterGroup, authenticate gin.HandlerFunc)
}

// RootHandler is mounted at the engine root (health, metrics, websockets).
type RootHandler interface {
	RegisterRoutes(r gin.IRouter)
}

type Config struct {
	CORS           config.CORSConfig
	RateLimit      config.RateLimitConfig
	RequestTimeout time.Duration
	// HSTS enables Strict-Transport-Security, for TLS deployments.
	HSTS          bool
	MetricsPrefix string
	Registerer    prometheus.Registerer
}

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	api     []Handler
	root    []RootHandler
	metrics *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

// websocket upgrades are long-lived and must not inherit the request timeout
var noTimeoutPaths = []string{"/ws/notifications", "/ws/chat"}

func NewRouter(auth *middleware.AuthMiddleware, cfg Config, root []RootHandler, api ...Handler) *Router {
	engine := gin.New()

	r := &Router{
		engine:  engine,
		auth:    auth,
		api:     api,
		root:    root,
		metrics: initRouterMetrics(cfg.MetricsPrefix, cfg.Registerer),
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTS = cfg.HSTS

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.SecurityHeaders(security),
		middleware.CORS(cfg.CORS),
	)

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		})
		engine.Use(limiter.RateLimit())
	}

	engine.Use(
		middleware.SizeLimit(middleware.DefaultSizeLimitConfig()),
		middleware.Timeout(middleware.TimeoutConfig{Duration: cfg.RequestTimeout, SkipPaths: noTimeoutPaths}),
		middleware.ErrorHandler(),
	)

	return r
}

func (r *Router) Setup() {
	for _, h := range r.root {
		h.RegisterRoutes(r.engine)
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	authenticate := r.auth.Authenticate()
	for _, h := range r.api {
		h.RegisterRoutes(api, authenticate)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string, reg prometheus.Registerer) *routerMetrics {
	if prefix == "" {
		prefix = "http"
	}
	factory := promauto.With(reg)
	return &routerMetrics{
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		code := c.Writer.Status()
		status := strconv.Itoa(code)

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		switch {
		case code >= 500:
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "server").Inc()
		case code >= 400:
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "client").Inc()
		}
	}
}
