package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Event errors
	ErrEventNotFound = errors.New("event not found")
	ErrEventInactive = errors.New("event is not active")
	ErrEventFull     = errors.New("event is at full capacity")

	// Registration errors
	ErrAlreadyRegistered    = errors.New("already registered for this event")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrCounterDrift         = errors.New("attendee counter drift detected")
	ErrCancellationClosed   = errors.New("cancellation is closed once the event has started")

	// Auth errors
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotEligible     = errors.New("event is restricted to members")
	ErrForbidden       = errors.New("operation not permitted")

	// Ticket request errors
	ErrTicketRequestNotFound   = errors.New("ticket request not found")
	ErrTicketRequestNotPending = errors.New("only a pending ticket request can be cancelled")

	// News errors
	ErrNewsPostNotFound = errors.New("news post not found")

	// Validation errors
	ErrInvalidEventID       = errors.New("invalid event id")
	ErrInvalidUserID        = errors.New("invalid user id")
	ErrInvalidCategory      = errors.New("invalid event category")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidExportFormat  = errors.New("invalid export format")
	ErrInvalidTicketPrice   = errors.New("ticket price cannot be negative")
	ErrInvalidMaxAttendees  = errors.New("max attendees must be positive when set")
)

// ValidationError reports the first field that failed validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a field-level validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrRegistrationNotFound) ||
		errors.Is(err, ErrTicketRequestNotFound) ||
		errors.Is(err, ErrNewsPostNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidExportFormat) ||
		errors.Is(err, ErrInvalidTicketPrice) ||
		errors.Is(err, ErrInvalidMaxAttendees)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAlreadyRegistered) ||
		errors.Is(err, ErrEventFull) ||
		errors.Is(err, ErrCounterDrift) ||
		errors.Is(err, ErrCancellationClosed)
}

// IsAuthError checks if the error is an authentication/authorization error
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrNotEligible) ||
		errors.Is(err, ErrForbidden)
}
