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

// MockNewsService is a mock implementation of NewsService
type MockNewsService struct {
	ListPublishedFunc func(ctx context.Context, page, pageSize int) ([]*domain.NewsPost, int64, error)
	GetFunc           func(ctx context.Context, id string) (*domain.NewsPost, error)
	CreateFunc        func(ctx context.Context, caller domain.Identity, post *domain.NewsPost) (*domain.NewsPost, error)
	UpdateFunc        func(ctx context.Context, caller domain.Identity, post *domain.NewsPost) (*domain.NewsPost, error)
	DeleteFunc        func(ctx context.Context, caller domain.Identity, id string) error
	PublishFunc       func(ctx context.Context, caller domain.Identity, id string) (*domain.NewsPost, error)
	ListAllFunc       func(ctx context.Context, caller domain.Identity, page, pageSize int) ([]*domain.NewsPost, int64, error)
}

func (m *MockNewsService) ListPublished(ctx context.Context, page, pageSize int) ([]*domain.NewsPost, int64, error) {
	if m.ListPublishedFunc != nil {
		return m.ListPublishedFunc(ctx, page, pageSize)
	}
	return []*domain.NewsPost{}, 0, nil
}

func (m *MockNewsService) Get(ctx context.Context, id string) (*domain.NewsPost, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrNewsPostNotFound
}

func (m *MockNewsService) Create(ctx context.Context, caller domain.Identity, post *domain.NewsPost) (*domain.NewsPost, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, caller, post)
	}
	return post, nil
}

func (m *MockNewsService) Update(ctx context.Context, caller domain.Identity, post *domain.NewsPost) (*domain.NewsPost, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, caller, post)
	}
	return post, nil
}

func (m *MockNewsService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, caller, id)
	}
	return nil
}

func (m *MockNewsService) Publish(ctx context.Context, caller domain.Identity, id string) (*domain.NewsPost, error) {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, caller, id)
	}
	return nil, domain.ErrNewsPostNotFound
}

func (m *MockNewsService) ListAll(ctx context.Context, caller domain.Identity, page, pageSize int) ([]*domain.NewsPost, int64, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx, caller, page, pageSize)
	}
	return []*domain.NewsPost{}, 0, nil
}

func setupNewsRouter(svc *MockNewsService, identity domain.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	if identity.IsAuthenticated() {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.ContextKeyIdentity, identity)
			c.Next()
		})
	}

	handler := NewNewsHandler(svc)
	router.GET("/news", handler.List)
	router.GET("/news/:id", handler.Get)
	router.GET("/admin/news", handler.ListAll)
	router.POST("/admin/news", handler.Create)
	router.PATCH("/admin/news/:id", handler.Update)
	router.POST("/admin/news/:id/publish", handler.Publish)
	router.DELETE("/admin/news/:id", handler.Delete)

	return router
}

func testNewsPost() *domain.NewsPost {
	return &domain.NewsPost{
		ID:        "news-1",
		Title:     "Season Ticket Renewals Open",
		Body:      "Renewals for the coming season open on Monday.",
		AuthorID:  "admin-1",
		Published: true,
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now(),
	}
}

func TestNewsHandler_List(t *testing.T) {
	var gotPage, gotSize int
	svc := &MockNewsService{
		ListPublishedFunc: func(ctx context.Context, page, pageSize int) ([]*domain.NewsPost, int64, error) {
			gotPage, gotSize = page, pageSize
			return []*domain.NewsPost{testNewsPost()}, 1, nil
		},
	}
	router := setupNewsRouter(svc, domain.Anonymous)

	req := httptest.NewRequest(http.MethodGet, "/news?page=2&page_size=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotPage != 2 || gotSize != 5 {
		t.Errorf("expected page 2 size 5, got page %d size %d", gotPage, gotSize)
	}

	var response dto.PaginatedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if response.TotalCount != 1 {
		t.Errorf("expected total 1, got %d", response.TotalCount)
	}
}

func TestNewsHandler_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &MockNewsService{
			GetFunc: func(ctx context.Context, id string) (*domain.NewsPost, error) {
				return testNewsPost(), nil
			},
		}
		router := setupNewsRouter(svc, domain.Anonymous)

		req := httptest.NewRequest(http.MethodGet, "/news/news-1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}

		var response dto.NewsPostResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if response.ID != "news-1" || !response.Published {
			t.Errorf("unexpected response: %+v", response)
		}
	})

	t.Run("not found", func(t *testing.T) {
		router := setupNewsRouter(&MockNewsService{}, domain.Anonymous)

		req := httptest.NewRequest(http.MethodGet, "/news/missing", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})
}

func TestNewsHandler_Create(t *testing.T) {
	t.Run("admin creates draft", func(t *testing.T) {
		var created *domain.NewsPost
		svc := &MockNewsService{
			CreateFunc: func(ctx context.Context, caller domain.Identity, post *domain.NewsPost) (*domain.NewsPost, error) {
				post.ID = "news-1"
				created = post
				return post, nil
			},
		}
		router := setupNewsRouter(svc, adminIdentity)

		body := `{"title":"Away Travel Update","body":"Coaches leave at noon."}`
		req := httptest.NewRequest(http.MethodPost, "/admin/news", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		if created.Published {
			t.Error("post must default to draft")
		}
		if created.AuthorID != adminIdentity.UserID {
			t.Errorf("expected author %s, got %s", adminIdentity.UserID, created.AuthorID)
		}
	})

	t.Run("missing body field", func(t *testing.T) {
		router := setupNewsRouter(&MockNewsService{}, adminIdentity)

		req := httptest.NewRequest(http.MethodPost, "/admin/news", bytes.NewBufferString(`{"title":"Only a title"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("forbidden for non-admin", func(t *testing.T) {
		svc := &MockNewsService{
			CreateFunc: func(ctx context.Context, caller domain.Identity, post *domain.NewsPost) (*domain.NewsPost, error) {
				return nil, domain.ErrForbidden
			},
		}
		router := setupNewsRouter(svc, domain.Identity{UserID: "user-1", Member: true})

		body := `{"title":"Away Travel Update","body":"Coaches leave at noon."}`
		req := httptest.NewRequest(http.MethodPost, "/admin/news", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
	})
}

func TestNewsHandler_Update_MergesUnsetFields(t *testing.T) {
	var updated *domain.NewsPost
	svc := &MockNewsService{
		GetFunc: func(ctx context.Context, id string) (*domain.NewsPost, error) {
			return testNewsPost(), nil
		},
		UpdateFunc: func(ctx context.Context, caller domain.Identity, post *domain.NewsPost) (*domain.NewsPost, error) {
			updated = post
			return post, nil
		},
	}
	router := setupNewsRouter(svc, adminIdentity)

	body := `{"body":"Renewals now close Friday."}`
	req := httptest.NewRequest(http.MethodPatch, "/admin/news/news-1", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if updated.Body != "Renewals now close Friday." {
		t.Errorf("expected patched body, got %q", updated.Body)
	}
	if updated.Title != "Season Ticket Renewals Open" {
		t.Errorf("unset fields must keep stored values, got title %q", updated.Title)
	}
}

func TestNewsHandler_Publish(t *testing.T) {
	svc := &MockNewsService{
		PublishFunc: func(ctx context.Context, caller domain.Identity, id string) (*domain.NewsPost, error) {
			post := testNewsPost()
			post.ID = id
			return post, nil
		},
	}
	router := setupNewsRouter(svc, adminIdentity)

	req := httptest.NewRequest(http.MethodPost, "/admin/news/news-1/publish", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var response dto.NewsPostResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !response.Published {
		t.Error("expected published post")
	}
}

func TestNewsHandler_Delete(t *testing.T) {
	var deletedID string
	svc := &MockNewsService{
		DeleteFunc: func(ctx context.Context, caller domain.Identity, id string) error {
			deletedID = id
			return nil
		},
	}
	router := setupNewsRouter(svc, adminIdentity)

	req := httptest.NewRequest(http.MethodDelete, "/admin/news/news-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if deletedID != "news-1" {
		t.Errorf("expected news-1 deleted, got %q", deletedID)
	}
}
