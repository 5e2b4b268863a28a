package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/internal/config"
	"github.com/jwalitptl/hospital-api/internal/gateway/chapa"
	"github.com/jwalitptl/hospital-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/hospital-api/internal/handler/auth"
	"github.com/jwalitptl/hospital-api/internal/handler/billing"
	chatHandler "github.com/jwalitptl/hospital-api/internal/handler/chat"
	"github.com/jwalitptl/hospital-api/internal/handler/health"
	"github.com/jwalitptl/hospital-api/internal/handler/lab"
	"github.com/jwalitptl/hospital-api/internal/handler/management"
	messageHandler "github.com/jwalitptl/hospital-api/internal/handler/message"
	notificationHandler "github.com/jwalitptl/hospital-api/internal/handler/notification"
	"github.com/jwalitptl/hospital-api/internal/handler/patient"
	"github.com/jwalitptl/hospital-api/internal/handler/pharmacy"
	metricsHandler "github.com/jwalitptl/hospital-api/internal/handler/prometheus"
	"github.com/jwalitptl/hospital-api/internal/handler/referral"
	userHandler "github.com/jwalitptl/hospital-api/internal/handler/user"
	"github.com/jwalitptl/hospital-api/internal/handler/ws"
	"github.com/jwalitptl/hospital-api/internal/middleware"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/realtime"
	"github.com/jwalitptl/hospital-api/internal/repository/postgres"
	"github.com/jwalitptl/hospital-api/internal/router"
	appointmentService "github.com/jwalitptl/hospital-api/internal/service/appointment"
	authService "github.com/jwalitptl/hospital-api/internal/service/auth"
	billingService "github.com/jwalitptl/hospital-api/internal/service/billing"
	chatService "github.com/jwalitptl/hospital-api/internal/service/chat"
	labService "github.com/jwalitptl/hospital-api/internal/service/lab"
	managementService "github.com/jwalitptl/hospital-api/internal/service/management"
	messageService "github.com/jwalitptl/hospital-api/internal/service/message"
	notificationService "github.com/jwalitptl/hospital-api/internal/service/notification"
	patientService "github.com/jwalitptl/hospital-api/internal/service/patient"
	pharmacyService "github.com/jwalitptl/hospital-api/internal/service/pharmacy"
	referralService "github.com/jwalitptl/hospital-api/internal/service/referral"
	userService "github.com/jwalitptl/hospital-api/internal/service/user"
	"github.com/jwalitptl/hospital-api/pkg/auth"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/messaging"
	"github.com/jwalitptl/hospital-api/pkg/messaging/kafka"
	"github.com/jwalitptl/hospital-api/pkg/messaging/redis"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
	"github.com/jwalitptl/hospital-api/pkg/security"
	"github.com/jwalitptl/hospital-api/pkg/storage"
	"github.com/jwalitptl/hospital-api/pkg/websocket"
)

const (
	metricsNamespace = "hospital"
	authCacheTTL     = 60 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.Setup(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	if err := model.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m := metrics.New(metricsNamespace, registry)

	broker, err := newBroker(cfg, &appLogger.ZL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Broker.Driver).Msg("failed to connect to message broker")
	}
	defer broker.Close()

	// Hub connection changes roll up into a single "total" series.
	hub := websocket.NewHub()
	hub.OnConnectionChange(func(delta int) {
		m.WebsocketConnections.WithLabelValues("total").Add(float64(delta))
	})

	relay := realtime.NewRelay(hub, broker, cfg.Broker.Channel, m)
	if err := relay.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to realtime channel")
	}

	repos := postgres.NewRepositories(db)

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshTTL:    time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
		Issuer:        cfg.JWT.Issuer,
	})
	hasher := security.NewBcryptHasher(security.DefaultBcryptCost)
	authMW := middleware.NewAuthMiddleware(jwtSvc, repos.Users, authCacheTTL)

	objectStore, err := newObjectStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure object storage")
	}

	// Services
	notifier := notificationService.NewService(repos.Notifications, repos.Users, repos.EmailOutbox, relay,
		notificationService.Options{EmailEnabled: cfg.Email.Enabled, Metrics: m})
	authSvc := authService.NewService(repos.Users, repos.Tokens, jwtSvc, hasher, auth.Config{
		AccessTTL:  time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshTTL: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	userSvc := userService.NewService(repos.Users, hasher, notifier, objectStore).WithCache(authMW)
	appointmentSvc := appointmentService.NewService(repos.Appointments, repos.Users, notifier)
	labSvc := labService.NewService(repos.LabTests, repos.Users, notifier)
	pharmacySvc := pharmacyService.NewService(repos.Prescriptions, repos.Drugs, repos.Users, notifier)
	gateway := chapa.NewClient(chapa.Config{
		BaseURL:     cfg.Chapa.BaseURL,
		SecretKey:   cfg.Chapa.SecretKey,
		CallbackURL: cfg.Chapa.CallbackURL,
		ReturnURL:   cfg.Chapa.ReturnURL,
		Timeout:     cfg.Chapa.Timeout,
	}, m)
	billingSvc := billingService.NewService(repos.Invoices, repos.Users, gateway, notifier, cfg.Chapa.WebhookSecret, m)
	messageSvc := messageService.NewService(repos.Messages, repos.Users, notifier)
	patientSvc := patientService.NewService(patientService.Repositories{
		Users:         repos.Users,
		Appointments:  repos.Appointments,
		LabTests:      repos.LabTests,
		Prescriptions: repos.Prescriptions,
		Invoices:      repos.Invoices,
		Notifications: repos.Notifications,
		Comments:      repos.Comments,
	}, notifier)
	referralSvc := referralService.NewService(repos.Referrals, repos.Users, notifier)
	managementSvc := managementService.NewService(managementService.Repositories{
		Users:         repos.Users,
		Appointments:  repos.Appointments,
		LabTests:      repos.LabTests,
		Prescriptions: repos.Prescriptions,
		Invoices:      repos.Invoices,
		Notifications: repos.Notifications,
		Comments:      repos.Comments,
		Attendance:    repos.Attendance,
		ServicePrices: repos.ServicePrices,
	})
	chatSvc := chatService.NewService(repos.Chat, repos.Users, notifier, relay)

	// Handlers
	healthH := health.NewHandler(db)
	if p, ok := broker.(messaging.Pinger); ok {
		healthH.WithPinger(cfg.Broker.Driver, p)
	}

	r := router.NewRouter(authMW, router.Config{
		CORS:           cfg.CORS,
		RateLimit:      cfg.RateLimit,
		RequestTimeout: cfg.Server.RequestTimeout,
		HSTS:           !cfg.IsDevelopment(),
		MetricsPrefix:  metricsNamespace + "_http",
		Registerer:     registry,
	},
		[]router.RootHandler{
			healthH,
			metricsHandler.New(registry),
			ws.NewHandler(hub, authMW, chatSvc, m),
		},
		authHandler.NewHandler(authSvc, !cfg.IsDevelopment()),
		userHandler.NewHandler(userSvc),
		appointment.NewHandler(appointmentSvc),
		lab.NewHandler(labSvc),
		pharmacy.NewHandler(pharmacySvc),
		billing.NewHandler(billingSvc),
		messageHandler.NewHandler(messageSvc),
		notificationHandler.NewHandler(notifier),
		patient.NewHandler(patientSvc),
		referral.NewHandler(referralSvc),
		management.NewHandler(managementSvc, messageSvc),
		chatHandler.NewHandler(chatSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("env", cfg.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}

// newBroker builds the realtime fan-out transport named by broker.driver.
func newBroker(cfg *config.Config, zl *zerolog.Logger) (messaging.Broker, error) {
	switch cfg.Broker.Driver {
	case "redis":
		return redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), zl)
	case "kafka":
		return kafka.NewBroker(cfg.Broker.ToKafkaConfig(), zl)
	default:
		return messaging.NewMemoryBroker(), nil
	}
}

// newObjectStore returns nil when storage is disabled; uploads are then dropped.
func newObjectStore(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStore, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return storage.NewS3Store(ctx, storage.S3Config{
		Bucket:        cfg.Bucket,
		Region:        cfg.Region,
		Endpoint:      cfg.Endpoint,
		AccessKey:     cfg.AccessKey,
		SecretKey:     cfg.SecretKey,
		PublicBaseURL: cfg.PublicBaseURL,
		UsePathStyle:  cfg.UsePathStyle,
	})
}
