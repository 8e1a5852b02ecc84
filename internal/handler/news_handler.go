package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/dto"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/middleware"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/service"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/telemetry"
)

// NewsHandler handles club news HTTP requests
type NewsHandler struct {
	newsService service.NewsService
}

// NewNewsHandler creates a new news handler
func NewNewsHandler(newsService service.NewsService) *NewsHandler {
	return &NewsHandler{newsService: newsService}
}

// List handles GET /api/v1/news
func (h *NewsHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.news.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	posts, total, err := h.newsService.ListPublished(ctx, page, pageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PaginatedResponse{
		Data:       dto.NewsListFromDomain(posts),
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	})
}

// Get handles GET /api/v1/news/:id
func (h *NewsHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.news.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	span.SetAttributes(attribute.String("news_post_id", id))

	post, err := h.newsService.Get(ctx, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewsPostResponseFromDomain(post))
}

// ListAll handles GET /api/v1/admin/news
func (h *NewsHandler) ListAll(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.news.list_all")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	caller := middleware.IdentityFromContext(c)
	posts, total, err := h.newsService.ListAll(ctx, caller, page, pageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PaginatedResponse{
		Data:       dto.NewsListFromDomain(posts),
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	})
}

// Create handles POST /api/v1/admin/news
func (h *NewsHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.news.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateNewsPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request body",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	caller := middleware.IdentityFromContext(c)
	post, err := h.newsService.Create(ctx, caller, req.ToDomain(caller.UserID))
	if err != nil {
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("news_post_id", post.ID))
	c.JSON(http.StatusCreated, dto.NewsPostResponseFromDomain(post))
}

// Update handles PATCH /api/v1/admin/news/:id
func (h *NewsHandler) Update(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.news.update")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	span.SetAttributes(attribute.String("news_post_id", id))

	var req dto.UpdateNewsPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request body",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	caller := middleware.IdentityFromContext(c)

	post, err := h.newsService.Get(ctx, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	req.Apply(post)

	updated, err := h.newsService.Update(ctx, caller, post)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewsPostResponseFromDomain(updated))
}

// Publish handles POST /api/v1/admin/news/:id/publish
func (h *NewsHandler) Publish(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.news.publish")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	span.SetAttributes(attribute.String("news_post_id", id))

	caller := middleware.IdentityFromContext(c)
	post, err := h.newsService.Publish(ctx, caller, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewsPostResponseFromDomain(post))
}

// Delete handles DELETE /api/v1/admin/news/:id
func (h *NewsHandler) Delete(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.news.delete")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	span.SetAttributes(attribute.String("news_post_id", id))

	caller := middleware.IdentityFromContext(c)
	if err := h.newsService.Delete(ctx, caller, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// handleError maps domain errors to HTTP responses
func (h *NewsHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNewsPostNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: err.Error(), Code: "FORBIDDEN"})
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: err.Error(), Code: "UNAUTHORIZED"})
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, validationResponse(err))
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"})
	}
}
