package di

import (
	"github.com/Ekalon-Solutions/rallyup-backend/internal/handler"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/repository"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/service"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/worker"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/database"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/redis"
)

// Container holds all dependencies for the rallyup backend
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	EventRepo         repository.EventRepository
	CachedEventRepo   *repository.CachedEventRepository
	RegistrationRepo  repository.RegistrationRepository
	TicketRequestRepo repository.TicketRequestRepository
	NewsRepo          repository.NewsRepository

	// Publishers
	EventPublisher service.EventPublisher

	// Services
	EventService         service.EventService
	RegistrationService  service.RegistrationService
	TicketRequestService service.TicketRequestService
	NewsService          service.NewsService

	// Workers
	ReconcileWorker *worker.CounterReconcileWorker

	// Handlers
	HealthHandler        *handler.HealthHandler
	EventHandler         *handler.EventHandler
	RegistrationHandler  *handler.RegistrationHandler
	TicketRequestHandler *handler.TicketRequestHandler
	NewsHandler          *handler.NewsHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB             *database.PostgresDB
	Redis          *redis.Client
	EventPublisher service.EventPublisher
	WorkerConfig   *worker.CounterReconcileWorkerConfig
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		EventPublisher: cfg.EventPublisher,
	}

	// Repositories; the event repo is wrapped in a Redis cache decorator
	pgEventRepo := repository.NewPostgresEventRepository(c.DB.Pool())
	c.CachedEventRepo = repository.NewCachedEventRepository(pgEventRepo, c.Redis)
	c.EventRepo = c.CachedEventRepo
	c.RegistrationRepo = repository.NewPostgresRegistrationRepository(c.DB.Pool())
	c.TicketRequestRepo = repository.NewPostgresTicketRequestRepository(c.DB.Pool())
	c.NewsRepo = repository.NewPostgresNewsRepository(c.DB.Pool())

	// Services
	c.EventService = service.NewEventService(c.EventRepo)
	c.RegistrationService = service.NewRegistrationService(
		c.RegistrationRepo,
		c.EventRepo,
		c.EventPublisher,
		c.CachedEventRepo,
	)
	c.TicketRequestService = service.NewTicketRequestService(c.TicketRequestRepo)
	c.NewsService = service.NewNewsService(c.NewsRepo)

	// Workers
	c.ReconcileWorker = worker.NewCounterReconcileWorker(
		cfg.WorkerConfig,
		c.RegistrationRepo,
		c.CachedEventRepo,
	)

	// Handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.EventHandler = handler.NewEventHandler(c.EventService)
	c.RegistrationHandler = handler.NewRegistrationHandler(c.RegistrationService)
	c.TicketRequestHandler = handler.NewTicketRequestHandler(c.TicketRequestService)
	c.NewsHandler = handler.NewNewsHandler(c.NewsService)

	return c
}
