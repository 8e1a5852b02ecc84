package dto

import (
	"time"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
)

// CreateEventRequest is the admin payload to create an event
type CreateEventRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	Venue        string     `json:"venue"`
	Category     string     `json:"category" binding:"required"`
	StartTime    time.Time  `json:"start_time" binding:"required"`
	EndTime      *time.Time `json:"end_time"`
	TicketPrice  float64    `json:"ticket_price"`
	MemberOnly   bool       `json:"member_only"`
	AwayDayEvent bool       `json:"away_day_event"`
	MaxAttendees *int       `json:"max_attendees"`
}

// ToDomain converts the request to a domain event
func (r *CreateEventRequest) ToDomain() *domain.Event {
	return &domain.Event{
		Title:        r.Title,
		Description:  r.Description,
		Venue:        r.Venue,
		Category:     domain.EventCategory(r.Category),
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		TicketPrice:  r.TicketPrice,
		MemberOnly:   r.MemberOnly,
		AwayDayEvent: r.AwayDayEvent,
		IsActive:     true,
		MaxAttendees: r.MaxAttendees,
	}
}

// UpdateEventRequest is the admin payload to update an event.
// Pointer fields distinguish "unset" from zero values.
type UpdateEventRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Venue        *string    `json:"venue"`
	Category     *string    `json:"category"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	TicketPrice  *float64   `json:"ticket_price"`
	MemberOnly   *bool      `json:"member_only"`
	AwayDayEvent *bool      `json:"away_day_event"`
	MaxAttendees *int       `json:"max_attendees"`
}

// Apply overlays set fields onto an existing event
func (r *UpdateEventRequest) Apply(e *domain.Event) {
	if r.Title != nil {
		e.Title = *r.Title
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Venue != nil {
		e.Venue = *r.Venue
	}
	if r.Category != nil {
		e.Category = domain.EventCategory(*r.Category)
	}
	if r.StartTime != nil {
		e.StartTime = *r.StartTime
	}
	if r.EndTime != nil {
		e.EndTime = r.EndTime
	}
	if r.TicketPrice != nil {
		e.TicketPrice = *r.TicketPrice
	}
	if r.MemberOnly != nil {
		e.MemberOnly = *r.MemberOnly
	}
	if r.AwayDayEvent != nil {
		e.AwayDayEvent = *r.AwayDayEvent
	}
	if r.MaxAttendees != nil {
		e.MaxAttendees = r.MaxAttendees
	}
}

// EventResponse is the public event representation
type EventResponse struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Venue            string     `json:"venue"`
	Category         string     `json:"category"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	TicketPrice      float64    `json:"ticket_price"`
	MemberOnly       bool       `json:"member_only"`
	AwayDayEvent     bool       `json:"away_day_event"`
	IsActive         bool       `json:"is_active"`
	MaxAttendees     *int       `json:"max_attendees,omitempty"`
	CurrentAttendees int        `json:"current_attendees"`
	SpotsLeft        *int       `json:"spots_left,omitempty"`
	IsFull           bool       `json:"is_full"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// EventResponseFromDomain converts a domain event to its API shape
func EventResponseFromDomain(e *domain.Event) *EventResponse {
	return &EventResponse{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		Venue:            e.Venue,
		Category:         string(e.Category),
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		TicketPrice:      e.TicketPrice,
		MemberOnly:       e.MemberOnly,
		AwayDayEvent:     e.AwayDayEvent,
		IsActive:         e.IsActive,
		MaxAttendees:     e.MaxAttendees,
		CurrentAttendees: e.CurrentAttendees,
		SpotsLeft:        e.SpotsLeft(),
		IsFull:           e.IsFull(),
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

// EventListResponse wraps a page of events
type EventListResponse struct {
	Events []*EventResponse `json:"events"`
}

// EventListFromDomain converts a slice of domain events
func EventListFromDomain(events []*domain.Event) *EventListResponse {
	out := make([]*EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponseFromDomain(e))
	}
	return &EventListResponse{Events: out}
}
