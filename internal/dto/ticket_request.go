package dto

import (
	"time"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
)

// SubmitTicketRequestRequest is the member payload to request tickets.
// Field presence is not enforced at bind time: the domain validator owns
// the rules and names the failing field in its error.
type SubmitTicketRequestRequest struct {
	UserName      string    `json:"user_name"`
	Phone         string    `json:"phone"`
	CountryCode   string    `json:"country_code"`
	Tickets       int       `json:"tickets"`
	PreferredDate time.Time `json:"preferred_date"`
	Comments      string    `json:"comments"`
	Competition   string    `json:"competition"`
	FixtureID     string    `json:"fixture_id"`
}

// ToDomain converts the request to a domain ticket request
func (r *SubmitTicketRequestRequest) ToDomain() *domain.TicketRequest {
	return &domain.TicketRequest{
		UserName:      r.UserName,
		Phone:         r.Phone,
		CountryCode:   r.CountryCode,
		Tickets:       r.Tickets,
		PreferredDate: r.PreferredDate,
		Comments:      r.Comments,
		Competition:   r.Competition,
		FixtureID:     r.FixtureID,
	}
}

// UpdateTicketRequestStatusRequest is the admin payload for a single
// status transition
type UpdateTicketRequestStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BulkUpdateTicketRequestStatusRequest is the admin payload for a bulk
// status transition
type BulkUpdateTicketRequestStatusRequest struct {
	IDs    []string `json:"ids" binding:"required,min=1"`
	Status string   `json:"status" binding:"required"`
}

// TicketRequestResponse is the API shape of a ticket request
type TicketRequestResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id,omitempty"`
	UserName      string    `json:"user_name"`
	Phone         string    `json:"phone"`
	CountryCode   string    `json:"country_code"`
	Tickets       int       `json:"tickets"`
	PreferredDate time.Time `json:"preferred_date"`
	Comments      string    `json:"comments,omitempty"`
	Competition   string    `json:"competition,omitempty"`
	FixtureID     string    `json:"fixture_id,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TicketRequestResponseFromDomain converts a domain ticket request
func TicketRequestResponseFromDomain(t *domain.TicketRequest) *TicketRequestResponse {
	return &TicketRequestResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		UserName:      t.UserName,
		Phone:         t.Phone,
		CountryCode:   t.CountryCode,
		Tickets:       t.Tickets,
		PreferredDate: t.PreferredDate,
		Comments:      t.Comments,
		Competition:   t.Competition,
		FixtureID:     t.FixtureID,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// TicketRequestListFromDomain converts a slice of domain ticket requests
func TicketRequestListFromDomain(requests []*domain.TicketRequest) []*TicketRequestResponse {
	out := make([]*TicketRequestResponse, 0, len(requests))
	for _, t := range requests {
		out = append(out, TicketRequestResponseFromDomain(t))
	}
	return out
}

// BulkUpdateResponse reports per-id outcomes of a bulk status update
type BulkUpdateResponse struct {
	UpdatedCount int                        `json:"updated_count"`
	Failures     []domain.BulkUpdateFailure `json:"failures"`
}
