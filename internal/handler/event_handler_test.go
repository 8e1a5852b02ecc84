package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/dto"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/middleware"
)

// MockEventService is a mock implementation of EventService
type MockEventService struct {
	ListActiveFunc func(ctx context.Context, filter *domain.EventFilter) ([]*domain.Event, int64, error)
	GetFunc        func(ctx context.Context, id string) (*domain.Event, error)
	CreateFunc     func(ctx context.Context, caller domain.Identity, event *domain.Event) (*domain.Event, error)
	UpdateFunc     func(ctx context.Context, caller domain.Identity, event *domain.Event) (*domain.Event, error)
	DeactivateFunc func(ctx context.Context, caller domain.Identity, id string) error
}

func (m *MockEventService) ListActive(ctx context.Context, filter *domain.EventFilter) ([]*domain.Event, int64, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, filter)
	}
	return []*domain.Event{}, 0, nil
}

func (m *MockEventService) Get(ctx context.Context, id string) (*domain.Event, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrEventNotFound
}

func (m *MockEventService) Create(ctx context.Context, caller domain.Identity, event *domain.Event) (*domain.Event, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, caller, event)
	}
	return nil, nil
}

func (m *MockEventService) Update(ctx context.Context, caller domain.Identity, event *domain.Event) (*domain.Event, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, caller, event)
	}
	return nil, nil
}

func (m *MockEventService) Deactivate(ctx context.Context, caller domain.Identity, id string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, caller, id)
	}
	return nil
}

func setupEventRouter(svc *MockEventService, identity domain.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	if identity.IsAuthenticated() {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.ContextKeyIdentity, identity)
			c.Next()
		})
	}

	handler := NewEventHandler(svc)
	router.GET("/events", handler.List)
	router.GET("/events/:id", handler.Get)
	router.POST("/admin/events", handler.Create)
	router.PATCH("/admin/events/:id", handler.Update)
	router.DELETE("/admin/events/:id", handler.Deactivate)

	return router
}

func testEvent() *domain.Event {
	max := 50
	return &domain.Event{
		ID:               "event-1",
		Title:            "Cup Final Screening",
		Venue:            "Clubhouse",
		Category:         domain.CategoryScreenings,
		StartTime:        time.Now().Add(48 * time.Hour),
		IsActive:         true,
		MaxAttendees:     &max,
		CurrentAttendees: 10,
	}
}

func TestEventHandler_List(t *testing.T) {
	var gotFilter *domain.EventFilter
	svc := &MockEventService{
		ListActiveFunc: func(ctx context.Context, filter *domain.EventFilter) ([]*domain.Event, int64, error) {
			gotFilter = filter
			return []*domain.Event{testEvent()}, 1, nil
		},
	}
	router := setupEventRouter(svc, domain.Anonymous)

	req := httptest.NewRequest(http.MethodGet, "/events?search=final&category=screenings&page=1&page_size=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotFilter.Search != "final" || gotFilter.Category != "screenings" {
		t.Errorf("unexpected filter: %+v", gotFilter)
	}

	var response dto.PaginatedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if response.TotalCount != 1 || response.Page != 1 || response.PageSize != 10 {
		t.Errorf("unexpected pagination meta: %+v", response)
	}
}

func TestEventHandler_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &MockEventService{
			GetFunc: func(ctx context.Context, id string) (*domain.Event, error) {
				return testEvent(), nil
			},
		}
		router := setupEventRouter(svc, domain.Anonymous)

		req := httptest.NewRequest(http.MethodGet, "/events/event-1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}

		var response dto.EventResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if response.SpotsLeft == nil || *response.SpotsLeft != 40 {
			t.Errorf("expected 40 spots left, got %v", response.SpotsLeft)
		}
		if response.IsFull {
			t.Error("event is not full")
		}
	})

	t.Run("not found", func(t *testing.T) {
		router := setupEventRouter(&MockEventService{}, domain.Anonymous)

		req := httptest.NewRequest(http.MethodGet, "/events/missing", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})
}

func TestEventHandler_Create(t *testing.T) {
	t.Run("admin creates", func(t *testing.T) {
		svc := &MockEventService{
			CreateFunc: func(ctx context.Context, caller domain.Identity, event *domain.Event) (*domain.Event, error) {
				event.ID = "event-1"
				event.IsActive = true
				return event, nil
			},
		}
		router := setupEventRouter(svc, adminIdentity)

		body := `{"title":"Cup Final Screening","category":"screenings","start_time":"2030-05-01T18:00:00Z","max_attendees":50}`
		req := httptest.NewRequest(http.MethodPost, "/admin/events", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("forbidden for non-admin", func(t *testing.T) {
		svc := &MockEventService{
			CreateFunc: func(ctx context.Context, caller domain.Identity, event *domain.Event) (*domain.Event, error) {
				return nil, domain.ErrForbidden
			},
		}
		router := setupEventRouter(svc, domain.Identity{UserID: "user-1"})

		body := `{"title":"Cup Final Screening","category":"screenings","start_time":"2030-05-01T18:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/admin/events", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
	})

	t.Run("missing required fields", func(t *testing.T) {
		router := setupEventRouter(&MockEventService{}, adminIdentity)

		body := `{"description":"no title"}`
		req := httptest.NewRequest(http.MethodPost, "/admin/events", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestEventHandler_Update_MergesUnsetFields(t *testing.T) {
	var updatedEvent *domain.Event
	svc := &MockEventService{
		GetFunc: func(ctx context.Context, id string) (*domain.Event, error) {
			return testEvent(), nil
		},
		UpdateFunc: func(ctx context.Context, caller domain.Identity, event *domain.Event) (*domain.Event, error) {
			updatedEvent = event
			return event, nil
		},
	}
	router := setupEventRouter(svc, adminIdentity)

	body := `{"venue":"New Clubhouse"}`
	req := httptest.NewRequest(http.MethodPatch, "/admin/events/event-1", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if updatedEvent.Venue != "New Clubhouse" {
		t.Errorf("expected patched venue, got %s", updatedEvent.Venue)
	}
	if updatedEvent.Title != "Cup Final Screening" {
		t.Errorf("unset fields must keep stored values, got title %q", updatedEvent.Title)
	}
}

func TestEventHandler_Deactivate(t *testing.T) {
	svc := &MockEventService{}
	router := setupEventRouter(svc, adminIdentity)

	req := httptest.NewRequest(http.MethodDelete, "/admin/events/event-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
}
