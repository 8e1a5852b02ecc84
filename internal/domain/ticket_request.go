package domain

import (
	"strings"
	"time"
	"unicode"
)

// TicketRequestStatus is the moderation state of an external ticket request
type TicketRequestStatus string

const (
	TicketRequestPending           TicketRequestStatus = "pending"
	TicketRequestFulfilled         TicketRequestStatus = "fulfilled"
	TicketRequestRejected          TicketRequestStatus = "rejected"
	TicketRequestOnHold            TicketRequestStatus = "on_hold"
	TicketRequestCancelledByMember TicketRequestStatus = "cancelled_by_member"
	TicketRequestUnfulfilled       TicketRequestStatus = "unfulfilled"
)

// ParseTicketRequestStatus validates a status string.
// Any status may be set from any other: moderation is an admin override,
// not a transition graph.
func ParseTicketRequestStatus(s string) (TicketRequestStatus, error) {
	switch TicketRequestStatus(s) {
	case TicketRequestPending, TicketRequestFulfilled, TicketRequestRejected,
		TicketRequestOnHold, TicketRequestCancelledByMember, TicketRequestUnfulfilled:
		return TicketRequestStatus(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// TicketRequest is a member's request for externally sourced match tickets.
// Requests are never hard-deleted, only status-transitioned.
type TicketRequest struct {
	ID            string              `json:"id"`
	UserID        string              `json:"user_id,omitempty"` // empty for staff-entered requests
	UserName      string              `json:"user_name"`
	Phone         string              `json:"phone"`
	CountryCode   string              `json:"country_code"`
	Tickets       int                 `json:"tickets"`
	PreferredDate time.Time           `json:"preferred_date"`
	Comments      string              `json:"comments,omitempty"`
	Competition   string              `json:"competition,omitempty"`
	FixtureID     string              `json:"fixture_id,omitempty"`
	Status        TicketRequestStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Validate checks submission fields. Returns a ValidationError naming the
// first failing field.
func (t *TicketRequest) Validate(now time.Time) error {
	if strings.TrimSpace(t.UserName) == "" {
		return NewValidationError("user_name", "name is required")
	}
	if !isPlausiblePhone(t.Phone) {
		return NewValidationError("phone", "phone number is not valid")
	}
	if t.Tickets < 1 {
		return NewValidationError("tickets", "at least one ticket must be requested")
	}
	if t.PreferredDate.IsZero() {
		return NewValidationError("preferred_date", "preferred date is required")
	}
	// Date granularity: today is acceptable, yesterday is not
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	prefDay := time.Date(t.PreferredDate.Year(), t.PreferredDate.Month(), t.PreferredDate.Day(), 0, 0, 0, 0, now.Location())
	if prefDay.Before(today) {
		return NewValidationError("preferred_date", "preferred date cannot be in the past")
	}
	return nil
}

// isPlausiblePhone accepts digits, spaces, '+' and '-', requiring 7-15 digits
func isPlausiblePhone(phone string) bool {
	digits := 0
	for _, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' || r == '-' || r == ' ':
			// allowed separators
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}

// TicketRequestFilter narrows ticket request listings. Each field is
// "exact or all"; set fields are AND-composed.
type TicketRequestFilter struct {
	Status      string
	FixtureID   string
	Competition string
	Page        int
	PageSize    int
}

// Normalize applies pagination defaults
func (f *TicketRequestFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > 200 {
		f.PageSize = 50
	}
}

// BulkUpdateFailure records why one id in a bulk update was skipped
type BulkUpdateFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkUpdateResult aggregates a bulk status update. Each id is processed
// independently; failures never abort the batch.
type BulkUpdateResult struct {
	UpdatedCount int                 `json:"updated_count"`
	Failures     []BulkUpdateFailure `json:"failures"`
}
