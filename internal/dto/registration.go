package dto

import (
	"time"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
)

// RegistrationResponse is the API shape of a registration
type RegistrationResponse struct {
	ID          string     `json:"id"`
	EventID     string     `json:"event_id"`
	UserID      string     `json:"user_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// RegistrationResponseFromDomain converts a domain registration
func RegistrationResponseFromDomain(r *domain.Registration) *RegistrationResponse {
	return &RegistrationResponse{
		ID:          r.ID,
		EventID:     r.EventID,
		UserID:      r.UserID,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		CancelledAt: r.CancelledAt,
	}
}

// UserRegistrationsResponse lists a member's registrations plus an index
// by event id, so clients don't rebuild the lookup themselves.
type UserRegistrationsResponse struct {
	Registrations []*RegistrationResponse          `json:"registrations"`
	ByEventID     map[string]*RegistrationResponse `json:"by_event_id"`
}

// UserRegistrationsFromDomain converts the ledger listing
func UserRegistrationsFromDomain(regs []*domain.Registration, byEvent map[string]*domain.Registration) *UserRegistrationsResponse {
	out := &UserRegistrationsResponse{
		Registrations: make([]*RegistrationResponse, 0, len(regs)),
		ByEventID:     make(map[string]*RegistrationResponse, len(byEvent)),
	}
	for _, r := range regs {
		out.Registrations = append(out.Registrations, RegistrationResponseFromDomain(r))
	}
	for eventID, r := range byEvent {
		out.ByEventID[eventID] = RegistrationResponseFromDomain(r)
	}
	return out
}
