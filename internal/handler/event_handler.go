package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/dto"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/middleware"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/service"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/telemetry"
)

// EventHandler handles event catalog HTTP requests
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// List handles GET /api/v1/events
func (h *EventHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	filter := &domain.EventFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 0),
	}
	filter.Normalize()

	span.SetAttributes(
		attribute.String("category", filter.Category),
		attribute.Int("page", filter.Page),
	)

	events, total, err := h.eventService.ListActive(ctx, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PaginatedResponse{
		Data:       dto.EventListFromDomain(events),
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get handles GET /api/v1/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	span.SetAttributes(attribute.String("event_id", id))

	event, err := h.eventService.Get(ctx, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.EventResponseFromDomain(event))
}

// Create handles POST /api/v1/admin/events
func (h *EventHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request body",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	caller := middleware.IdentityFromContext(c)
	event, err := h.eventService.Create(ctx, caller, req.ToDomain())
	if err != nil {
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("event_id", event.ID))
	c.JSON(http.StatusCreated, dto.EventResponseFromDomain(event))
}

// Update handles PATCH /api/v1/admin/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.update")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	span.SetAttributes(attribute.String("event_id", id))

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request body",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	caller := middleware.IdentityFromContext(c)

	// Read-modify-write so unset fields keep their current values
	event, err := h.eventService.Get(ctx, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	req.Apply(event)

	updated, err := h.eventService.Update(ctx, caller, event)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.EventResponseFromDomain(updated))
}

// Deactivate handles DELETE /api/v1/admin/events/:id
func (h *EventHandler) Deactivate(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.deactivate")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	span.SetAttributes(attribute.String("event_id", id))

	caller := middleware.IdentityFromContext(c)
	if err := h.eventService.Deactivate(ctx, caller, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// handleError maps domain errors to HTTP responses
func (h *EventHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
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

// validationResponse shapes a 400 body, carrying the failing field name
// when the error identifies one
func validationResponse(err error) dto.ErrorResponse {
	resp := dto.ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	return resp
}

// queryInt parses an integer query parameter with a fallback
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
