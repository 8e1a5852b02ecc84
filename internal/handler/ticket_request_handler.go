package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/dto"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/middleware"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/service"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/telemetry"
)

// TicketRequestHandler handles external ticket request HTTP requests
type TicketRequestHandler struct {
	ticketRequestService service.TicketRequestService
}

// NewTicketRequestHandler creates a new ticket request handler
func NewTicketRequestHandler(ticketRequestService service.TicketRequestService) *TicketRequestHandler {
	return &TicketRequestHandler{ticketRequestService: ticketRequestService}
}

// Submit handles POST /api/v1/ticket-requests
func (h *TicketRequestHandler) Submit(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket_request.submit")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.SubmitTicketRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request body",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	caller := middleware.IdentityFromContext(c)
	request, err := h.ticketRequestService.Submit(ctx, caller, req.ToDomain())
	if err != nil {
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("ticket_request_id", request.ID))
	c.JSON(http.StatusCreated, dto.TicketRequestResponseFromDomain(request))
}

// Cancel handles POST /api/v1/ticket-requests/:id/cancel
func (h *TicketRequestHandler) Cancel(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket_request.cancel")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	span.SetAttributes(attribute.String("ticket_request_id", id))

	caller := middleware.IdentityFromContext(c)
	request, err := h.ticketRequestService.CancelOwn(ctx, caller, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TicketRequestResponseFromDomain(request))
}

// List handles GET /api/v1/admin/ticket-requests
func (h *TicketRequestHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket_request.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	filter := &domain.TicketRequestFilter{
		Status:      c.Query("status"),
		FixtureID:   c.Query("fixture_id"),
		Competition: c.Query("competition"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 0),
	}
	filter.Normalize()

	span.SetAttributes(
		attribute.String("status", filter.Status),
		attribute.Int("page", filter.Page),
	)

	caller := middleware.IdentityFromContext(c)
	requests, total, err := h.ticketRequestService.List(ctx, caller, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PaginatedResponse{
		Data:       dto.TicketRequestListFromDomain(requests),
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// UpdateStatus handles PATCH /api/v1/admin/ticket-requests/:id/status
func (h *TicketRequestHandler) UpdateStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket_request.update_status")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	span.SetAttributes(attribute.String("ticket_request_id", id))

	var req dto.UpdateTicketRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request body",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	caller := middleware.IdentityFromContext(c)
	request, err := h.ticketRequestService.UpdateStatus(ctx, caller, id, req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TicketRequestResponseFromDomain(request))
}

// BulkUpdateStatus handles PATCH /api/v1/admin/ticket-requests/status
func (h *TicketRequestHandler) BulkUpdateStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket_request.bulk_update_status")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.BulkUpdateTicketRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request body",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	span.SetAttributes(
		attribute.Int("id_count", len(req.IDs)),
		attribute.String("status", req.Status),
	)

	caller := middleware.IdentityFromContext(c)
	result, err := h.ticketRequestService.BulkUpdateStatus(ctx, caller, req.IDs, req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BulkUpdateResponse{
		UpdatedCount: result.UpdatedCount,
		Failures:     result.Failures,
	})
}

// Export handles GET /api/v1/admin/ticket-requests/export
func (h *TicketRequestHandler) Export(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket_request.export")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	format := c.DefaultQuery("format", service.ExportFormatCSV)
	filter := &domain.TicketRequestFilter{
		Status:      c.Query("status"),
		FixtureID:   c.Query("fixture_id"),
		Competition: c.Query("competition"),
	}

	span.SetAttributes(attribute.String("format", format))

	caller := middleware.IdentityFromContext(c)
	export, err := h.ticketRequestService.ExportRequests(ctx, caller, filter, format)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}

// handleError maps domain errors to HTTP responses
func (h *TicketRequestHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrTicketRequestNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: err.Error(), Code: "UNAUTHORIZED"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: err.Error(), Code: "FORBIDDEN"})
	case errors.Is(err, domain.ErrTicketRequestNotPending):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Code: "NOT_PENDING"})
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, validationResponse(err))
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"})
	}
}
