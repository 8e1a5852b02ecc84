package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/metrics"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/repository"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/telemetry"
)

// Export formats
const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

// Export is a rendered ticket request export
type Export struct {
	Data        []byte
	ContentType string
	Filename    string
}

// TicketRequestService defines the interface for the external ticket
// request queue
type TicketRequestService interface {
	// Submit validates and creates a pending ticket request
	Submit(ctx context.Context, caller domain.Identity, req *domain.TicketRequest) (*domain.TicketRequest, error)

	// UpdateStatus sets the status of one request (admin only)
	UpdateStatus(ctx context.Context, caller domain.Identity, id, status string) (*domain.TicketRequest, error)

	// CancelOwn lets the submitting member withdraw their own request
	// while it is still pending
	CancelOwn(ctx context.Context, caller domain.Identity, id string) (*domain.TicketRequest, error)

	// BulkUpdateStatus sets the status of many requests, each independently
	BulkUpdateStatus(ctx context.Context, caller domain.Identity, ids []string, status string) (*domain.BulkUpdateResult, error)

	// List returns a page of requests matching the filter (admin only)
	List(ctx context.Context, caller domain.Identity, filter *domain.TicketRequestFilter) ([]*domain.TicketRequest, int64, error)

	// ExportRequests renders the filtered set as CSV or XLSX (admin only)
	ExportRequests(ctx context.Context, caller domain.Identity, filter *domain.TicketRequestFilter, format string) (*Export, error)
}

// ticketRequestService implements TicketRequestService
type ticketRequestService struct {
	repo repository.TicketRequestRepository
	now  func() time.Time
}

// NewTicketRequestService creates a new ticket request service
func NewTicketRequestService(repo repository.TicketRequestRepository) TicketRequestService {
	return &ticketRequestService{
		repo: repo,
		now:  time.Now,
	}
}

// Submit validates and creates a pending ticket request
func (s *ticketRequestService) Submit(ctx context.Context, caller domain.Identity, req *domain.TicketRequest) (*domain.TicketRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket_request.submit")
	defer span.End()

	if req == nil {
		span.SetStatus(codes.Error, "missing request")
		return nil, domain.NewValidationError("request", "request body is required")
	}

	if err := req.Validate(s.now()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := s.now()
	req.ID = uuid.New().String()
	req.UserID = caller.UserID // empty for staff-entered requests
	req.Status = domain.TicketRequestPending
	req.CreatedAt = now
	req.UpdatedAt = now

	if err := s.repo.Create(ctx, req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordTicketRequestSubmitted(ctx)
	span.SetAttributes(attribute.String("ticket_request_id", req.ID))
	span.SetStatus(codes.Ok, "")
	return req, nil
}

// UpdateStatus sets the status of one request. Any enumerated status is
// reachable from any other: this is an admin override, not a workflow.
func (s *ticketRequestService) UpdateStatus(ctx context.Context, caller domain.Identity, id, status string) (*domain.TicketRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket_request.update_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("ticket_request_id", id),
		attribute.String("status", status),
	)

	if !caller.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}

	parsed, err := domain.ParseTicketRequestStatus(status)
	if err != nil {
		span.SetStatus(codes.Error, "invalid status")
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, parsed); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordTicketRequestUpdate(ctx, status, 1)
	span.SetStatus(codes.Ok, "")
	return updated, nil
}

// CancelOwn moves the caller's own pending request to cancelled_by_member.
// Staff-entered requests carry no user id and can only be moved by an admin.
func (s *ticketRequestService) CancelOwn(ctx context.Context, caller domain.Identity, id string) (*domain.TicketRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket_request.cancel_own")
	defer span.End()

	span.SetAttributes(attribute.String("ticket_request_id", id))

	if !caller.IsAuthenticated() {
		span.SetStatus(codes.Error, "unauthenticated")
		return nil, domain.ErrUnauthenticated
	}

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if request.UserID == "" || request.UserID != caller.UserID {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}
	if request.Status != domain.TicketRequestPending {
		span.SetStatus(codes.Error, "not pending")
		return nil, domain.ErrTicketRequestNotPending
	}

	if err := s.repo.UpdateStatus(ctx, id, domain.TicketRequestCancelledByMember); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordTicketRequestUpdate(ctx, string(domain.TicketRequestCancelledByMember), 1)
	span.SetStatus(codes.Ok, "")
	return updated, nil
}

// BulkUpdateStatus processes each id independently; one bad id never
// aborts the batch
func (s *ticketRequestService) BulkUpdateStatus(ctx context.Context, caller domain.Identity, ids []string, status string) (*domain.BulkUpdateResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket_request.bulk_update_status")
	defer span.End()

	span.SetAttributes(
		attribute.Int("id_count", len(ids)),
		attribute.String("status", status),
	)

	if !caller.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}

	parsed, err := domain.ParseTicketRequestStatus(status)
	if err != nil {
		span.SetStatus(codes.Error, "invalid status")
		return nil, err
	}

	result := &domain.BulkUpdateResult{
		Failures: make([]domain.BulkUpdateFailure, 0),
	}

	for _, id := range ids {
		if err := s.repo.UpdateStatus(ctx, id, parsed); err != nil {
			reason := "internal error"
			if errors.Is(err, domain.ErrTicketRequestNotFound) {
				reason = "not found"
			}
			result.Failures = append(result.Failures, domain.BulkUpdateFailure{
				ID:     id,
				Reason: reason,
			})
			continue
		}
		result.UpdatedCount++
	}

	metrics.RecordTicketRequestUpdate(ctx, status, int64(result.UpdatedCount))
	span.SetAttributes(
		attribute.Int("updated_count", result.UpdatedCount),
		attribute.Int("failure_count", len(result.Failures)),
	)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

// List returns a page of requests matching the filter
func (s *ticketRequestService) List(ctx context.Context, caller domain.Identity, filter *domain.TicketRequestFilter) ([]*domain.TicketRequest, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket_request.list")
	defer span.End()

	if !caller.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, 0, domain.ErrForbidden
	}

	if filter == nil {
		filter = &domain.TicketRequestFilter{}
	}
	if filter.Status != "" {
		if _, err := domain.ParseTicketRequestStatus(filter.Status); err != nil {
			span.SetStatus(codes.Error, "invalid status filter")
			return nil, 0, err
		}
	}

	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}

	span.SetAttributes(attribute.Int("result_count", len(requests)))
	span.SetStatus(codes.Ok, "")
	return requests, total, nil
}

var exportHeader = []string{
	"ID", "User ID", "Name", "Phone", "Country Code", "Tickets",
	"Preferred Date", "Comments", "Competition", "Fixture ID", "Status",
	"Created At", "Updated At",
}

func exportRow(t *domain.TicketRequest) []string {
	return []string{
		t.ID,
		t.UserID,
		t.UserName,
		t.Phone,
		t.CountryCode,
		strconv.Itoa(t.Tickets),
		t.PreferredDate.Format("2006-01-02"),
		t.Comments,
		t.Competition,
		t.FixtureID,
		string(t.Status),
		t.CreatedAt.Format(time.RFC3339),
		t.UpdatedAt.Format(time.RFC3339),
	}
}

// ExportRequests renders the filtered set as CSV or XLSX
func (s *ticketRequestService) ExportRequests(ctx context.Context, caller domain.Identity, filter *domain.TicketRequestFilter, format string) (*Export, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket_request.export")
	defer span.End()

	span.SetAttributes(attribute.String("format", format))

	if !caller.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}

	if format != ExportFormatCSV && format != ExportFormatXLSX {
		span.SetStatus(codes.Error, "invalid format")
		return nil, domain.ErrInvalidExportFormat
	}

	if filter == nil {
		filter = &domain.TicketRequestFilter{}
	}
	if filter.Status != "" {
		if _, err := domain.ParseTicketRequestStatus(filter.Status); err != nil {
			span.SetStatus(codes.Error, "invalid status filter")
			return nil, err
		}
	}

	requests, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	stamp := s.now().Format("20060102-150405")

	var export *Export
	switch format {
	case ExportFormatCSV:
		export, err = renderCSV(requests, stamp)
	case ExportFormatXLSX:
		export, err = renderXLSX(requests, stamp)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordExport(ctx, format)
	span.SetAttributes(attribute.Int("row_count", len(requests)))
	span.SetStatus(codes.Ok, "")
	return export, nil
}

func renderCSV(requests []*domain.TicketRequest, stamp string) (*Export, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, t := range requests {
		if err := w.Write(exportRow(t)); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	return &Export{
		Data:        buf.Bytes(),
		ContentType: "text/csv",
		Filename:    fmt.Sprintf("ticket-requests-%s.csv", stamp),
	}, nil
}

func renderXLSX(requests []*domain.TicketRequest, stamp string) (*Export, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Ticket Requests"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write xlsx header: %w", err)
	}

	for i, t := range requests {
		row := exportRow(t)
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write xlsx row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render xlsx: %w", err)
	}

	return &Export{
		Data:        buf.Bytes(),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Filename:    fmt.Sprintf("ticket-requests-%s.xlsx", stamp),
	}, nil
}
