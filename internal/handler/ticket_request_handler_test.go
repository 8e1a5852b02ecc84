package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/dto"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/middleware"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/service"
)

// MockTicketRequestService is a mock implementation of TicketRequestService
type MockTicketRequestService struct {
	SubmitFunc           func(ctx context.Context, caller domain.Identity, req *domain.TicketRequest) (*domain.TicketRequest, error)
	UpdateStatusFunc     func(ctx context.Context, caller domain.Identity, id, status string) (*domain.TicketRequest, error)
	CancelOwnFunc        func(ctx context.Context, caller domain.Identity, id string) (*domain.TicketRequest, error)
	BulkUpdateStatusFunc func(ctx context.Context, caller domain.Identity, ids []string, status string) (*domain.BulkUpdateResult, error)
	ListFunc             func(ctx context.Context, caller domain.Identity, filter *domain.TicketRequestFilter) ([]*domain.TicketRequest, int64, error)
	ExportRequestsFunc   func(ctx context.Context, caller domain.Identity, filter *domain.TicketRequestFilter, format string) (*service.Export, error)
}

func (m *MockTicketRequestService) Submit(ctx context.Context, caller domain.Identity, req *domain.TicketRequest) (*domain.TicketRequest, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, caller, req)
	}
	return nil, nil
}

func (m *MockTicketRequestService) UpdateStatus(ctx context.Context, caller domain.Identity, id, status string) (*domain.TicketRequest, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, caller, id, status)
	}
	return nil, nil
}

func (m *MockTicketRequestService) CancelOwn(ctx context.Context, caller domain.Identity, id string) (*domain.TicketRequest, error) {
	if m.CancelOwnFunc != nil {
		return m.CancelOwnFunc(ctx, caller, id)
	}
	return nil, nil
}

func (m *MockTicketRequestService) BulkUpdateStatus(ctx context.Context, caller domain.Identity, ids []string, status string) (*domain.BulkUpdateResult, error) {
	if m.BulkUpdateStatusFunc != nil {
		return m.BulkUpdateStatusFunc(ctx, caller, ids, status)
	}
	return &domain.BulkUpdateResult{}, nil
}

func (m *MockTicketRequestService) List(ctx context.Context, caller domain.Identity, filter *domain.TicketRequestFilter) ([]*domain.TicketRequest, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, caller, filter)
	}
	return []*domain.TicketRequest{}, 0, nil
}

func (m *MockTicketRequestService) ExportRequests(ctx context.Context, caller domain.Identity, filter *domain.TicketRequestFilter, format string) (*service.Export, error) {
	if m.ExportRequestsFunc != nil {
		return m.ExportRequestsFunc(ctx, caller, filter, format)
	}
	return nil, nil
}

func setupTicketRequestRouter(svc *MockTicketRequestService, identity domain.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	if identity.IsAuthenticated() {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.ContextKeyIdentity, identity)
			c.Next()
		})
	}

	handler := NewTicketRequestHandler(svc)
	router.POST("/ticket-requests", handler.Submit)
	router.POST("/ticket-requests/:id/cancel", handler.Cancel)
	router.GET("/admin/ticket-requests", handler.List)
	router.GET("/admin/ticket-requests/export", handler.Export)
	router.PATCH("/admin/ticket-requests/status", handler.BulkUpdateStatus)
	router.PATCH("/admin/ticket-requests/:id/status", handler.UpdateStatus)

	return router
}

var adminIdentity = domain.Identity{UserID: "admin-1", Roles: []string{domain.RoleAdmin}}

func TestTicketRequestHandler_Submit(t *testing.T) {
	// Runs the real field rules so the handler sees what the service
	// would actually return
	validatingSubmit := func(ctx context.Context, caller domain.Identity, req *domain.TicketRequest) (*domain.TicketRequest, error) {
		if err := req.Validate(time.Now()); err != nil {
			return nil, err
		}
		req.ID = "req-1"
		req.Status = domain.TicketRequestPending
		req.CreatedAt = time.Now()
		req.UpdatedAt = req.CreatedAt
		return req, nil
	}

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedCode   string
		expectedField  string
	}{
		{
			name:           "successful submission",
			body:           `{"user_name":"Jordan Smith","phone":"+44 7700 900123","tickets":2,"preferred_date":"2030-05-01T00:00:00Z"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed json",
			body:           `{"user_name":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "missing phone names the field",
			body:           `{"user_name":"Jordan Smith","tickets":2,"preferred_date":"2030-05-01T00:00:00Z"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
			expectedField:  "phone",
		},
		{
			name:           "zero tickets names the field",
			body:           `{"user_name":"Jordan Smith","phone":"+44 7700 900123","tickets":0,"preferred_date":"2030-05-01T00:00:00Z"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
			expectedField:  "tickets",
		},
		{
			name:           "past preferred date names the field",
			body:           `{"user_name":"Jordan Smith","phone":"+44 7700 900123","tickets":2,"preferred_date":"2020-01-01T00:00:00Z"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
			expectedField:  "preferred_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockTicketRequestService{SubmitFunc: validatingSubmit}
			router := setupTicketRequestRouter(svc, domain.Anonymous)

			req := httptest.NewRequest(http.MethodPost, "/ticket-requests", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedCode != "" {
				var response dto.ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
					t.Fatalf("invalid error body: %v", err)
				}
				if response.Code != tt.expectedCode {
					t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
				}
				if response.Field != tt.expectedField {
					t.Errorf("expected field %q, got %q", tt.expectedField, response.Field)
				}
			}
		})
	}
}

func TestTicketRequestHandler_Cancel(t *testing.T) {
	member := domain.Identity{UserID: "user-1", Member: true}

	t.Run("owner cancels pending request", func(t *testing.T) {
		svc := &MockTicketRequestService{
			CancelOwnFunc: func(ctx context.Context, caller domain.Identity, id string) (*domain.TicketRequest, error) {
				return &domain.TicketRequest{
					ID:     id,
					UserID: caller.UserID,
					Status: domain.TicketRequestCancelledByMember,
				}, nil
			},
		}
		router := setupTicketRequestRouter(svc, member)

		req := httptest.NewRequest(http.MethodPost, "/ticket-requests/req-1/cancel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var response dto.TicketRequestResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if response.Status != string(domain.TicketRequestCancelledByMember) {
			t.Errorf("expected cancelled_by_member, got %s", response.Status)
		}
	})

	t.Run("someone else's request is forbidden", func(t *testing.T) {
		svc := &MockTicketRequestService{
			CancelOwnFunc: func(ctx context.Context, caller domain.Identity, id string) (*domain.TicketRequest, error) {
				return nil, domain.ErrForbidden
			},
		}
		router := setupTicketRequestRouter(svc, member)

		req := httptest.NewRequest(http.MethodPost, "/ticket-requests/req-2/cancel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
	})

	t.Run("non-pending request maps to conflict", func(t *testing.T) {
		svc := &MockTicketRequestService{
			CancelOwnFunc: func(ctx context.Context, caller domain.Identity, id string) (*domain.TicketRequest, error) {
				return nil, domain.ErrTicketRequestNotPending
			},
		}
		router := setupTicketRequestRouter(svc, member)

		req := httptest.NewRequest(http.MethodPost, "/ticket-requests/req-1/cancel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
		var response dto.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if response.Code != "NOT_PENDING" {
			t.Errorf("expected NOT_PENDING, got %s", response.Code)
		}
	})
}

func TestTicketRequestHandler_UpdateStatus(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		svc := &MockTicketRequestService{
			UpdateStatusFunc: func(ctx context.Context, caller domain.Identity, id, status string) (*domain.TicketRequest, error) {
				return nil, domain.ErrTicketRequestNotFound
			},
		}
		router := setupTicketRequestRouter(svc, adminIdentity)

		body := `{"status":"fulfilled"}`
		req := httptest.NewRequest(http.MethodPatch, "/admin/ticket-requests/missing/status", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		svc := &MockTicketRequestService{
			UpdateStatusFunc: func(ctx context.Context, caller domain.Identity, id, status string) (*domain.TicketRequest, error) {
				return nil, domain.ErrInvalidStatus
			},
		}
		router := setupTicketRequestRouter(svc, adminIdentity)

		body := `{"status":"approved"}`
		req := httptest.NewRequest(http.MethodPatch, "/admin/ticket-requests/req-1/status", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestTicketRequestHandler_BulkUpdateStatus(t *testing.T) {
	svc := &MockTicketRequestService{
		BulkUpdateStatusFunc: func(ctx context.Context, caller domain.Identity, ids []string, status string) (*domain.BulkUpdateResult, error) {
			return &domain.BulkUpdateResult{
				UpdatedCount: 2,
				Failures:     []domain.BulkUpdateFailure{{ID: "missing", Reason: "not found"}},
			}, nil
		},
	}
	router := setupTicketRequestRouter(svc, adminIdentity)

	body := `{"ids":["a","missing","b"],"status":"rejected"}`
	req := httptest.NewRequest(http.MethodPatch, "/admin/ticket-requests/status", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var response dto.BulkUpdateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if response.UpdatedCount != 2 {
		t.Errorf("expected 2 updated, got %d", response.UpdatedCount)
	}
	if len(response.Failures) != 1 || response.Failures[0].ID != "missing" {
		t.Errorf("unexpected failures: %+v", response.Failures)
	}
}

func TestTicketRequestHandler_BulkUpdateStatus_EmptyIDs(t *testing.T) {
	router := setupTicketRequestRouter(&MockTicketRequestService{}, adminIdentity)

	body := `{"ids":[],"status":"rejected"}`
	req := httptest.NewRequest(http.MethodPatch, "/admin/ticket-requests/status", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty id list, got %d", w.Code)
	}
}

func TestTicketRequestHandler_Export(t *testing.T) {
	t.Run("csv download", func(t *testing.T) {
		svc := &MockTicketRequestService{
			ExportRequestsFunc: func(ctx context.Context, caller domain.Identity, filter *domain.TicketRequestFilter, format string) (*service.Export, error) {
				return &service.Export{
					Data:        []byte("ID,Name\nreq-1,Jordan\n"),
					ContentType: "text/csv",
					Filename:    "ticket-requests-20250315-120000.csv",
				}, nil
			},
		}
		router := setupTicketRequestRouter(svc, adminIdentity)

		req := httptest.NewRequest(http.MethodGet, "/admin/ticket-requests/export?format=csv&status=pending", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
			t.Errorf("expected text/csv, got %s", ct)
		}
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "ticket-requests-20250315-120000.csv") {
			t.Errorf("expected attachment filename, got %s", cd)
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		svc := &MockTicketRequestService{
			ExportRequestsFunc: func(ctx context.Context, caller domain.Identity, filter *domain.TicketRequestFilter, format string) (*service.Export, error) {
				return nil, domain.ErrInvalidExportFormat
			},
		}
		router := setupTicketRequestRouter(svc, adminIdentity)

		req := httptest.NewRequest(http.MethodGet, "/admin/ticket-requests/export?format=pdf", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("forbidden for non-admin", func(t *testing.T) {
		svc := &MockTicketRequestService{
			ExportRequestsFunc: func(ctx context.Context, caller domain.Identity, filter *domain.TicketRequestFilter, format string) (*service.Export, error) {
				return nil, domain.ErrForbidden
			},
		}
		router := setupTicketRequestRouter(svc, domain.Identity{UserID: "user-1"})

		req := httptest.NewRequest(http.MethodGet, "/admin/ticket-requests/export", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
	})
}

func TestTicketRequestHandler_List_PassesFilter(t *testing.T) {
	var gotFilter *domain.TicketRequestFilter
	svc := &MockTicketRequestService{
		ListFunc: func(ctx context.Context, caller domain.Identity, filter *domain.TicketRequestFilter) ([]*domain.TicketRequest, int64, error) {
			gotFilter = filter
			return []*domain.TicketRequest{}, 0, nil
		},
	}
	router := setupTicketRequestRouter(svc, adminIdentity)

	req := httptest.NewRequest(http.MethodGet, "/admin/ticket-requests?status=pending&fixture_id=fx-1&competition=League+Cup&page=2&page_size=25", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotFilter == nil {
		t.Fatal("expected filter to be passed")
	}
	if gotFilter.Status != "pending" || gotFilter.FixtureID != "fx-1" || gotFilter.Competition != "League Cup" {
		t.Errorf("unexpected filter: %+v", gotFilter)
	}
	if gotFilter.Page != 2 || gotFilter.PageSize != 25 {
		t.Errorf("unexpected pagination: page=%d size=%d", gotFilter.Page, gotFilter.PageSize)
	}
}
