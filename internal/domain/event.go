package domain

import (
	"time"
)

// EventCategory classifies club events
type EventCategory string

const (
	CategoryScreenings   EventCategory = "screenings"
	CategoryMatchday     EventCategory = "matchday"
	CategorySocialEvents EventCategory = "social-events"
	CategoryAwayDay      EventCategory = "away-day"
	CategoryOther        EventCategory = "other"
)

// ParseEventCategory validates a category string
func ParseEventCategory(s string) (EventCategory, error) {
	switch EventCategory(s) {
	case CategoryScreenings, CategoryMatchday, CategorySocialEvents, CategoryAwayDay, CategoryOther:
		return EventCategory(s), nil
	default:
		return "", ErrInvalidCategory
	}
}

// Event represents a club event with capacity tracking.
// CurrentAttendees is owned by the registration service and must not be
// mutated anywhere else.
type Event struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Venue            string        `json:"venue"`
	Category         EventCategory `json:"category"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          *time.Time    `json:"end_time,omitempty"`
	TicketPrice      float64       `json:"ticket_price"`
	MemberOnly       bool          `json:"member_only"`
	AwayDayEvent     bool          `json:"away_day_event"`
	IsActive         bool          `json:"is_active"`
	MaxAttendees     *int          `json:"max_attendees,omitempty"` // nil = unlimited
	CurrentAttendees int           `json:"current_attendees"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// IsFull reports whether the event has reached its capacity.
// Events without a capacity limit are never full.
func (e *Event) IsFull() bool {
	return e.MaxAttendees != nil && e.CurrentAttendees >= *e.MaxAttendees
}

// SpotsLeft returns the remaining capacity, or nil for unlimited events
func (e *Event) SpotsLeft() *int {
	if e.MaxAttendees == nil {
		return nil
	}
	left := *e.MaxAttendees - e.CurrentAttendees
	if left < 0 {
		left = 0
	}
	return &left
}

// Validate checks event fields before create/update
func (e *Event) Validate() error {
	if e.Title == "" {
		return NewValidationError("title", "title is required")
	}
	if _, err := ParseEventCategory(string(e.Category)); err != nil {
		return err
	}
	if e.TicketPrice < 0 {
		return ErrInvalidTicketPrice
	}
	if e.MaxAttendees != nil && *e.MaxAttendees <= 0 {
		return ErrInvalidMaxAttendees
	}
	if e.StartTime.IsZero() {
		return NewValidationError("start_time", "start time is required")
	}
	return nil
}

// EventFilter narrows event listings
type EventFilter struct {
	Search   string // case-insensitive substring over title/description/venue
	Category string // exact category, empty = all
	Page     int
	PageSize int
}

// Normalize applies pagination defaults
func (f *EventFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > 100 {
		f.PageSize = 20
	}
}
