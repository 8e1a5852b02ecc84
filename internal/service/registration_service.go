package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/metrics"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/repository"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/logger"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/telemetry"
)

// RegistrationService defines the interface for the registration workflow
type RegistrationService interface {
	// Register registers the caller for an event, atomically checking
	// capacity. Precondition failures surface as typed domain errors.
	Register(ctx context.Context, caller domain.Identity, eventID string) (*domain.Registration, error)

	// Cancel cancels the caller's active registration and frees the spot
	Cancel(ctx context.Context, caller domain.Identity, eventID string) (*domain.Registration, error)

	// ListForUser returns all of the caller's registrations plus an index
	// keyed by event id
	ListForUser(ctx context.Context, caller domain.Identity) ([]*domain.Registration, map[string]*domain.Registration, error)
}

// registrationService implements RegistrationService
type registrationService struct {
	registrationRepo repository.RegistrationRepository
	eventRepo        repository.EventRepository
	publisher        EventPublisher
	cacheInvalidator repository.EventCacheInvalidator
	now              func() time.Time
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	registrationRepo repository.RegistrationRepository,
	eventRepo repository.EventRepository,
	publisher EventPublisher,
	cacheInvalidator repository.EventCacheInvalidator,
) RegistrationService {
	if publisher == nil {
		publisher = NewNoOpEventPublisher()
	}
	return &registrationService{
		registrationRepo: registrationRepo,
		eventRepo:        eventRepo,
		publisher:        publisher,
		cacheInvalidator: cacheInvalidator,
		now:              time.Now,
	}
}

// Register registers the caller for an event
func (s *registrationService) Register(ctx context.Context, caller domain.Identity, eventID string) (*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.registration.register")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", caller.UserID),
	)

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if !caller.IsAuthenticated() {
		span.SetStatus(codes.Error, "unauthenticated")
		return nil, domain.ErrUnauthenticated
	}

	// Eligibility needs event config; capacity is re-checked atomically
	// inside the ledger transaction.
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !event.IsActive {
		span.SetStatus(codes.Error, "event inactive")
		metrics.RecordRegistrationFailure(ctx, eventID, "inactive")
		return nil, domain.ErrEventInactive
	}
	if event.MemberOnly && !caller.Member {
		span.SetStatus(codes.Error, "not eligible")
		metrics.RecordRegistrationFailure(ctx, eventID, "not_eligible")
		return nil, domain.ErrNotEligible
	}

	registration, err := s.registrationRepo.Register(ctx, eventID, caller.UserID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordRegistrationFailure(ctx, eventID, failureReason(err))
		return nil, err
	}

	if s.cacheInvalidator != nil {
		s.cacheInvalidator.InvalidateEvent(ctx, eventID)
	}

	metrics.RecordRegistration(ctx, eventID)

	// Publisher failure never fails the registration
	if err := s.publisher.PublishRegistrationCreated(ctx, registration); err != nil {
		logger.Warn("failed to publish registration created event",
			zap.String("registration_id", registration.ID),
			zap.Error(err),
		)
	}

	span.SetStatus(codes.Ok, "")
	return registration, nil
}

// Cancel cancels the caller's active registration
func (s *registrationService) Cancel(ctx context.Context, caller domain.Identity, eventID string) (*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.registration.cancel")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", caller.UserID),
	)

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if !caller.IsAuthenticated() {
		span.SetStatus(codes.Error, "unauthenticated")
		return nil, domain.ErrUnauthenticated
	}

	// The spot can only be freed while it can still be re-filled:
	// cancellation closes at the event's start time
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !s.now().Before(event.StartTime) {
		span.SetStatus(codes.Error, "cancellation closed")
		return nil, domain.ErrCancellationClosed
	}

	registration, err := s.registrationRepo.Cancel(ctx, eventID, caller.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrCounterDrift) {
			logger.Error("attendee counter drift on cancel",
				zap.String("event_id", eventID),
				zap.String("user_id", caller.UserID),
			)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.cacheInvalidator != nil {
		s.cacheInvalidator.InvalidateEvent(ctx, eventID)
	}

	metrics.RecordCancellation(ctx, eventID)

	if err := s.publisher.PublishRegistrationCancelled(ctx, registration); err != nil {
		logger.Warn("failed to publish registration cancelled event",
			zap.String("registration_id", registration.ID),
			zap.Error(err),
		)
	}

	span.SetStatus(codes.Ok, "")
	return registration, nil
}

// ListForUser returns the caller's registrations and an index by event id.
// The ledger owns the index so consumers don't rebuild it.
func (s *registrationService) ListForUser(ctx context.Context, caller domain.Identity) ([]*domain.Registration, map[string]*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.registration.list_for_user")
	defer span.End()

	if !caller.IsAuthenticated() {
		span.SetStatus(codes.Error, "unauthenticated")
		return nil, nil, domain.ErrUnauthenticated
	}

	registrations, err := s.registrationRepo.ListByUser(ctx, caller.UserID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	// Active registration wins the slot; otherwise the newest row
	byEvent := make(map[string]*domain.Registration, len(registrations))
	for _, r := range registrations {
		existing, ok := byEvent[r.EventID]
		if !ok || (r.IsActive() && !existing.IsActive()) {
			byEvent[r.EventID] = r
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(registrations)))
	span.SetStatus(codes.Ok, "")
	return registrations, byEvent, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEventFull):
		return "full"
	case errors.Is(err, domain.ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, domain.ErrEventInactive):
		return "inactive"
	case errors.Is(err, domain.ErrEventNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
