package repository

import (
	"context"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
)

// EventRepository persists events and their capacity counters
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	Update(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	ListActive(ctx context.Context, filter *domain.EventFilter) ([]*domain.Event, int64, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// CounterRepair records one counter correction made by reconciliation
type CounterRepair struct {
	EventID  string
	OldCount int
	NewCount int
}

// RegistrationRepository owns the registration ledger and the atomic
// capacity check-and-increment.
type RegistrationRepository interface {
	// Register atomically verifies capacity on the locked event row,
	// inserts a registered row and increments current_attendees.
	// Returns ErrEventNotFound, ErrEventInactive, ErrEventFull or
	// ErrAlreadyRegistered on precondition failure.
	Register(ctx context.Context, eventID, userID string) (*domain.Registration, error)

	// Cancel atomically marks the active registration cancelled and
	// decrements current_attendees. Returns ErrRegistrationNotFound when
	// no active registration exists, ErrCounterDrift when the decrement
	// would push the counter below zero.
	Cancel(ctx context.Context, eventID, userID string) (*domain.Registration, error)

	GetActive(ctx context.Context, eventID, userID string) (*domain.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Registration, error)

	// ReconcileCounters recomputes current_attendees from the ledger and
	// repairs any drift, returning the corrections made.
	ReconcileCounters(ctx context.Context) ([]CounterRepair, error)
}

// EventCacheInvalidator drops cached event state after counter mutations
type EventCacheInvalidator interface {
	InvalidateEvent(ctx context.Context, id string)
}

// TicketRequestRepository persists external ticket requests
type TicketRequestRepository interface {
	Create(ctx context.Context, req *domain.TicketRequest) error
	GetByID(ctx context.Context, id string) (*domain.TicketRequest, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketRequestStatus) error
	List(ctx context.Context, filter *domain.TicketRequestFilter) ([]*domain.TicketRequest, int64, error)
	// ListAll returns the full filtered set without pagination, for export
	ListAll(ctx context.Context, filter *domain.TicketRequestFilter) ([]*domain.TicketRequest, error)
}

// NewsRepository persists news posts
type NewsRepository interface {
	Create(ctx context.Context, post *domain.NewsPost) error
	Update(ctx context.Context, post *domain.NewsPost) error
	GetByID(ctx context.Context, id string) (*domain.NewsPost, error)
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, publishedOnly bool, page, pageSize int) ([]*domain.NewsPost, int64, error)
}
