package domain

import (
	"time"
)

// RegistrationStatus is the lifecycle state of a registration
type RegistrationStatus string

const (
	RegistrationPending    RegistrationStatus = "pending"
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationCancelled  RegistrationStatus = "cancelled"
)

// Registration links a member to an event.
// At most one non-cancelled registration may exist per (user, event).
type Registration struct {
	ID          string             `json:"id"`
	EventID     string             `json:"event_id"`
	UserID      string             `json:"user_id"`
	Status      RegistrationStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty"`
}

// IsActive reports whether the registration still holds a spot
func (r *Registration) IsActive() bool {
	return r.Status == RegistrationPending || r.Status == RegistrationRegistered
}
