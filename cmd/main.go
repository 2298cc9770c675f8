package main

import (
	"net/http"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/bootstrap"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/crud"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/entity"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/handler"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/middleware"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/mirror"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/model"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/notify"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/otp"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/repository"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/session"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/tenant"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/theme"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/workflow"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/config"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/database"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/jwtutil"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/metrics"
	"github.com/XTREM35000/core-toolkit-app-sub001/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("farmdash")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting farm dashboard service...", cfg.LogConfig()...)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)

	// Initialize database
	db, err := database.InitDB(&cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if cfg.DB.AutoMigrate {
		if err := database.MigrateModels(db, model.All()...); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		log.Info("Database migrations completed")
	}

	// Local mirror: Redis when configured, process memory otherwise
	var mirrorStore mirror.Store = mirror.NewMemoryStore()
	if cfg.Redis.URL != "" {
		redisStore, err := mirror.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisStore.Close()
		mirrorStore = redisStore
		log.Info("Redis mirror store connected")
	}

	// Notifications
	var providers []notify.Provider
	if cfg.Notification.WhatsAppAPIKey != "" {
		whatsapp, err := notify.NewWhatsAppProvider(notify.WhatsAppConfig{
			Endpoint:      cfg.Notification.WhatsAppURL,
			APIKey:        cfg.Notification.WhatsAppAPIKey,
			SuccessMarker: cfg.Notification.SuccessMarker,
			Timeout:       cfg.Notification.Timeout,
		}, nil, log)
		if err != nil {
			log.Fatal("Invalid WhatsApp configuration", zap.Error(err))
		}
		providers = append(providers, whatsapp)
	}
	dispatcher := notify.NewDispatcher(cfg.Notification.DefaultProvider, log, providers...)

	workflowStore := workflow.NewGormStore(db)
	h := handler.New(handler.Config{
		ServiceName: cfg.ServiceName,
		Entities:    entity.DefaultRegistry(),
		Remote: func(spec entity.Spec) repository.Repository {
			return repository.NewGormRepository(db, spec)
		},
		MirrorStore:  mirrorStore,
		MirrorPrefix: cfg.Mirror.KeyPrefix,
		Policy:       crud.ParsePolicy(cfg.Mirror.Policy),
		Sessions:     session.NewRegistry(tenant.ContextAuthenticator{}, tenant.NewGormProfileLookup(db), cfg.Session.IdleTTL, log),
		Init:         bootstrap.NewChecker(bootstrap.NewGormProbe(db), log),
		Workflow:     workflow.NewRunner(workflow.DefaultGates(workflowStore), log),
		Plans:        workflowStore,
		Notify:       dispatcher,
		OTP:          otp.NewService(otp.NewGormStore(db), dispatcher, cfg.OTP.TTL, cfg.OTP.MaxAttempts, log),
		Themes:       theme.NewRegistry(cfg.Theme.Default),
	})

	httpMetrics := metrics.NewHTTPMetrics(cfg.ServiceName)
	jwtUtil := jwtutil.NewJWTUtil(&cfg.JWT)

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(middleware.RequestLogger())
	e.Use(httpMetrics.Middleware())

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))

	h.Register(e, middleware.AuthMiddleware(jwtUtil))

	// Start server
	log.Info("Starting server", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
