package domain

import (
	"errors"
	"testing"
	"time"
)

func TestEvent_IsFull(t *testing.T) {
	max := 2

	tests := []struct {
		name     string
		event    Event
		wantFull bool
	}{
		{name: "unlimited event never full", event: Event{MaxAttendees: nil, CurrentAttendees: 1000}},
		{name: "below capacity", event: Event{MaxAttendees: &max, CurrentAttendees: 1}},
		{name: "at capacity", event: Event{MaxAttendees: &max, CurrentAttendees: 2}, wantFull: true},
		{name: "over capacity", event: Event{MaxAttendees: &max, CurrentAttendees: 3}, wantFull: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.IsFull(); got != tt.wantFull {
				t.Errorf("IsFull() = %v, want %v", got, tt.wantFull)
			}
		})
	}
}

func TestEvent_SpotsLeft(t *testing.T) {
	unlimited := Event{}
	if unlimited.SpotsLeft() != nil {
		t.Error("unlimited event must report nil spots left")
	}

	max := 5
	e := Event{MaxAttendees: &max, CurrentAttendees: 3}
	if left := e.SpotsLeft(); left == nil || *left != 2 {
		t.Errorf("expected 2 spots left, got %v", left)
	}

	// Drifted counters must not report negative capacity
	e.CurrentAttendees = 7
	if left := e.SpotsLeft(); left == nil || *left != 0 {
		t.Errorf("expected clamped 0 spots left, got %v", left)
	}
}

func TestEvent_Validate(t *testing.T) {
	base := Event{
		Title:     "Matchday Meetup",
		Category:  CategoryMatchday,
		StartTime: time.Now().Add(24 * time.Hour),
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := base
	e.Title = ""
	var ve *ValidationError
	if err := e.Validate(); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for missing title, got %v", err)
	}

	e = base
	e.Category = "concert"
	if err := e.Validate(); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory, got %v", err)
	}

	e = base
	e.TicketPrice = -1
	if err := e.Validate(); !errors.Is(err, ErrInvalidTicketPrice) {
		t.Errorf("expected ErrInvalidTicketPrice, got %v", err)
	}

	zero := 0
	e = base
	e.MaxAttendees = &zero
	if err := e.Validate(); !errors.Is(err, ErrInvalidMaxAttendees) {
		t.Errorf("expected ErrInvalidMaxAttendees, got %v", err)
	}
}

func TestIdentity(t *testing.T) {
	if Anonymous.IsAuthenticated() {
		t.Error("anonymous identity must not be authenticated")
	}
	if Anonymous.IsAdmin() {
		t.Error("anonymous identity must not be admin")
	}

	member := Identity{UserID: "user-1", Member: true}
	if !member.IsAuthenticated() || member.IsAdmin() {
		t.Error("member must be authenticated but not admin")
	}

	admin := Identity{UserID: "admin-1", Roles: []string{"editor", RoleAdmin}}
	if !admin.IsAdmin() {
		t.Error("expected admin role to be recognized")
	}
}
