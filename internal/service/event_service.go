package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/repository"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/telemetry"
)

// EventService defines the interface for event catalog business logic
type EventService interface {
	// ListActive lists active events matching the filter
	ListActive(ctx context.Context, filter *domain.EventFilter) ([]*domain.Event, int64, error)

	// Get retrieves an event by ID
	Get(ctx context.Context, id string) (*domain.Event, error)

	// Create creates an event (admin only)
	Create(ctx context.Context, caller domain.Identity, event *domain.Event) (*domain.Event, error)

	// Update updates event fields (admin only)
	Update(ctx context.Context, caller domain.Identity, event *domain.Event) (*domain.Event, error)

	// Deactivate soft-deactivates an event (admin only)
	Deactivate(ctx context.Context, caller domain.Identity, id string) error
}

// eventService implements EventService
type eventService struct {
	eventRepo repository.EventRepository
}

// NewEventService creates a new event service
func NewEventService(eventRepo repository.EventRepository) EventService {
	return &eventService{eventRepo: eventRepo}
}

// ListActive lists active events matching the filter
func (s *eventService) ListActive(ctx context.Context, filter *domain.EventFilter) ([]*domain.Event, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.list_active")
	defer span.End()

	if filter == nil {
		filter = &domain.EventFilter{}
	}
	if filter.Category != "" {
		if _, err := domain.ParseEventCategory(filter.Category); err != nil {
			span.SetStatus(codes.Error, "invalid category")
			return nil, 0, err
		}
	}

	events, total, err := s.eventRepo.ListActive(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}

	span.SetAttributes(attribute.Int("result_count", len(events)))
	span.SetStatus(codes.Ok, "")
	return events, total, nil
}

// Get retrieves an event by ID
func (s *eventService) Get(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.get")
	defer span.End()

	if id == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return event, nil
}

// Create creates an event
func (s *eventService) Create(ctx context.Context, caller domain.Identity, event *domain.Event) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()

	if !caller.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}

	if err := event.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := time.Now()
	event.ID = uuid.New().String()
	event.IsActive = true
	event.CurrentAttendees = 0
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := s.eventRepo.Create(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("event_id", event.ID))
	span.SetStatus(codes.Ok, "")
	return event, nil
}

// Update updates event fields
func (s *eventService) Update(ctx context.Context, caller domain.Identity, event *domain.Event) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.update")
	defer span.End()

	if !caller.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}

	if err := event.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	updated, err := s.eventRepo.GetByID(ctx, event.ID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return updated, nil
}

// Deactivate soft-deactivates an event
func (s *eventService) Deactivate(ctx context.Context, caller domain.Identity, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.event.deactivate")
	defer span.End()

	if !caller.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return domain.ErrForbidden
	}

	if id == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return domain.ErrInvalidEventID
	}

	if err := s.eventRepo.SetActive(ctx, id, false); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("event_id", id))
	span.SetStatus(codes.Ok, "")
	return nil
}
