package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/di"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/metrics"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/middleware"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/service"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/worker"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/config"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/database"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/logger"
	pkgmiddleware "github.com/Ekalon-Solutions/rallyup-backend/pkg/middleware"
	pkgredis "github.com/Ekalon-Solutions/rallyup-backend/pkg/redis"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.App.Debug {
		logLevel = "debug"
	}
	logCfg := &logger.Config{
		Level:       logLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if _, err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting RallyUp backend...")

	ctx := context.Background()

	// Initialize tracing
	tracerCfg := &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}
	if _, err := telemetry.Init(ctx, tracerCfg); err != nil {
		appLog.Warn(fmt.Sprintf("Tracing init failed, continuing without: %v", err))
	} else if cfg.OTel.Enabled {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetry.Shutdown(shutdownCtx); err != nil {
				appLog.Error(fmt.Sprintf("Tracer shutdown failed: %v", err))
			}
		}()
		appLog.Info("Tracing initialized")
	}

	// Initialize metrics instruments
	metrics.Init()

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:          cfg.Database.Host,
		Port:          cfg.Database.Port,
		User:          cfg.Database.User,
		Password:      cfg.Database.Password,
		Database:      cfg.Database.DBName,
		SSLMode:       cfg.Database.SSLMode,
		MaxConns:      cfg.Database.MaxConns,
		MinConns:      cfg.Database.MinConns,
		EnableTracing: cfg.OTel.Enabled,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))

	// Initialize Redis connection
	redisCfg := &pkgredis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	redisClient, err := pkgredis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
	}
	defer redisClient.Close()
	appLog.Info("Redis connected")

	// Initialize Kafka event publisher; fall back to no-op when disabled
	// or unreachable
	var eventPublisher service.EventPublisher = service.NewNoOpEventPublisher()
	if cfg.Kafka.Enabled {
		publisher, err := service.NewKafkaEventPublisher(&service.EventPublisherConfig{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    "registration-events",
			ClientID: cfg.Kafka.ClientID,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
		} else {
			defer publisher.Close()
			eventPublisher = publisher
			appLog.Info("Kafka event publisher connected")
		}
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:             db,
		Redis:          redisClient,
		EventPublisher: eventPublisher,
		WorkerConfig: &worker.CounterReconcileWorkerConfig{
			Interval: cfg.Worker.ReconcileInterval,
		},
	})

	// Start the counter reconcile worker
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go container.ReconcileWorker.Start(workerCtx)

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		gin.DisableConsoleColor()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())
	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(cfg.App.Name))
	}

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	// Pool stats for monitoring
	router.GET("/metrics", func(c *gin.Context) {
		stats := db.Stats()
		c.JSON(http.StatusOK, gin.H{
			"db_pool": gin.H{
				"total_conns":    stats.TotalConns(),
				"acquired_conns": stats.AcquiredConns(),
				"idle_conns":     stats.IdleConns(),
				"max_conns":      stats.MaxConns(),
			},
		})
	})

	// Idempotency middleware for registration writes
	idempotencyConfig := pkgmiddleware.DefaultIdempotencyConfig(redisClient.Client())
	idempotencyConfig.SkipPaths = []string{"/health", "/ready", "/metrics"}
	idempotent := pkgmiddleware.IdempotencyMiddleware(idempotencyConfig)

	jwtSecret := cfg.JWT.Secret

	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"version": cfg.App.Version,
				"service": cfg.App.Name,
			})
		})

		// Public catalog
		events := v1.Group("/events")
		{
			events.GET("", container.EventHandler.List)
			events.GET("/:id", container.EventHandler.Get)

			// Registration requires a signed-in member
			events.POST("/:id/registrations", middleware.RequireAuth(jwtSecret), idempotent, container.RegistrationHandler.Register)
			events.DELETE("/:id/registrations", middleware.RequireAuth(jwtSecret), container.RegistrationHandler.Cancel)
		}

		v1.GET("/registrations", middleware.RequireAuth(jwtSecret), container.RegistrationHandler.ListMine)

		// Ticket requests accept both member and anonymous submissions;
		// withdrawing one is owner-only
		v1.POST("/ticket-requests", middleware.OptionalAuth(jwtSecret), idempotent, container.TicketRequestHandler.Submit)
		v1.POST("/ticket-requests/:id/cancel", middleware.RequireAuth(jwtSecret), container.TicketRequestHandler.Cancel)

		// Public news
		news := v1.Group("/news")
		{
			news.GET("", container.NewsHandler.List)
			news.GET("/:id", container.NewsHandler.Get)
		}

		// Admin surface
		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAuth(jwtSecret), middleware.RequireAdmin())
		{
			admin.POST("/events", container.EventHandler.Create)
			admin.PATCH("/events/:id", container.EventHandler.Update)
			admin.DELETE("/events/:id", container.EventHandler.Deactivate)

			admin.GET("/ticket-requests", container.TicketRequestHandler.List)
			admin.GET("/ticket-requests/export", container.TicketRequestHandler.Export)
			admin.PATCH("/ticket-requests/status", container.TicketRequestHandler.BulkUpdateStatus)
			admin.PATCH("/ticket-requests/:id/status", container.TicketRequestHandler.UpdateStatus)

			admin.GET("/news", container.NewsHandler.ListAll)
			admin.POST("/news", container.NewsHandler.Create)
			admin.PATCH("/news/:id", container.NewsHandler.Update)
			admin.POST("/news/:id/publish", container.NewsHandler.Publish)
			admin.DELETE("/news/:id", container.NewsHandler.Delete)
		}
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		appLog.Info(fmt.Sprintf("RallyUp backend listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
