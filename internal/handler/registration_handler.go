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

// RegistrationHandler handles event registration HTTP requests
type RegistrationHandler struct {
	registrationService service.RegistrationService
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrationService service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// Register handles POST /api/v1/events/:id/registrations
func (h *RegistrationHandler) Register(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.registration.register")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	caller := middleware.IdentityFromContext(c)

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", caller.UserID),
	)

	registration, err := h.registrationService.Register(ctx, caller, eventID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("registration_id", registration.ID))
	c.JSON(http.StatusCreated, dto.RegistrationResponseFromDomain(registration))
}

// Cancel handles DELETE /api/v1/events/:id/registrations
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.registration.cancel")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	caller := middleware.IdentityFromContext(c)

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", caller.UserID),
	)

	registration, err := h.registrationService.Cancel(ctx, caller, eventID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RegistrationResponseFromDomain(registration))
}

// ListMine handles GET /api/v1/registrations
func (h *RegistrationHandler) ListMine(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.registration.list_mine")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	caller := middleware.IdentityFromContext(c)
	span.SetAttributes(attribute.String("user_id", caller.UserID))

	registrations, byEvent, err := h.registrationService.ListForUser(ctx, caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserRegistrationsFromDomain(registrations, byEvent))
}

// handleError maps domain errors to HTTP responses
func (h *RegistrationHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
	case errors.Is(err, domain.ErrRegistrationNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: err.Error(), Code: "UNAUTHORIZED"})
	case errors.Is(err, domain.ErrNotEligible):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: err.Error(), Code: "MEMBERS_ONLY"})
	case errors.Is(err, domain.ErrEventInactive):
		c.JSON(http.StatusGone, dto.ErrorResponse{Error: err.Error(), Code: "EVENT_INACTIVE"})
	case errors.Is(err, domain.ErrEventFull):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Code: "EVENT_FULL"})
	case errors.Is(err, domain.ErrAlreadyRegistered):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Code: "ALREADY_REGISTERED"})
	case errors.Is(err, domain.ErrCounterDrift):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Code: "COUNTER_DRIFT"})
	case errors.Is(err, domain.ErrCancellationClosed):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Code: "CANCELLATION_CLOSED"})
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, validationResponse(err))
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"})
	}
}
