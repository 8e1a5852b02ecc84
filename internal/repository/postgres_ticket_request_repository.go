package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/telemetry"
)

// PostgresTicketRequestRepository implements TicketRequestRepository using
// PostgreSQL with pgxpool
type PostgresTicketRequestRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRequestRepository creates a new PostgresTicketRequestRepository
func NewPostgresTicketRequestRepository(pool *pgxpool.Pool) *PostgresTicketRequestRepository {
	return &PostgresTicketRequestRepository{pool: pool}
}

const ticketRequestColumns = `
	id, user_id, user_name, phone, country_code, tickets,
	preferred_date, comments, competition, fixture_id, status,
	created_at, updated_at
`

func scanTicketRequest(row pgx.Row) (*domain.TicketRequest, error) {
	req := &domain.TicketRequest{}
	var userID, comments, competition, fixtureID *string
	var status string

	err := row.Scan(
		&req.ID,
		&userID,
		&req.UserName,
		&req.Phone,
		&req.CountryCode,
		&req.Tickets,
		&req.PreferredDate,
		&comments,
		&competition,
		&fixtureID,
		&status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID != nil {
		req.UserID = *userID
	}
	if comments != nil {
		req.Comments = *comments
	}
	if competition != nil {
		req.Competition = *competition
	}
	if fixtureID != nil {
		req.FixtureID = *fixtureID
	}
	req.Status = domain.TicketRequestStatus(status)
	return req, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create inserts a new ticket request
func (r *PostgresTicketRequestRepository) Create(ctx context.Context, req *domain.TicketRequest) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket_request.create")
	defer span.End()

	span.SetAttributes(attribute.String("ticket_request_id", req.ID))

	query := `
		INSERT INTO ticket_requests (
			id, user_id, user_name, phone, country_code, tickets,
			preferred_date, comments, competition, fixture_id, status,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13
		)
	`

	_, err := r.pool.Exec(ctx, query,
		req.ID,
		nullString(req.UserID),
		req.UserName,
		req.Phone,
		req.CountryCode,
		req.Tickets,
		req.PreferredDate,
		nullString(req.Comments),
		nullString(req.Competition),
		nullString(req.FixtureID),
		string(req.Status),
		req.CreatedAt,
		req.UpdatedAt,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create ticket request: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves a ticket request by its ID
func (r *PostgresTicketRequestRepository) GetByID(ctx context.Context, id string) (*domain.TicketRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket_request.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("ticket_request_id", id))

	query := `SELECT ` + ticketRequestColumns + ` FROM ticket_requests WHERE id = $1`

	req, err := scanTicketRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrTicketRequestNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get ticket request: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return req, nil
}

// UpdateStatus sets the moderation status of one request
func (r *PostgresTicketRequestRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketRequestStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket_request.update_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("ticket_request_id", id),
		attribute.String("status", string(status)),
	)

	query := `UPDATE ticket_requests SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, string(status), time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update ticket request status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrTicketRequestNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func buildTicketRequestWhere(filter *domain.TicketRequestFilter) (string, []interface{}) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.FixtureID != "" {
		where += fmt.Sprintf(" AND fixture_id = $%d", argIndex)
		args = append(args, filter.FixtureID)
		argIndex++
	}
	if filter.Competition != "" {
		where += fmt.Sprintf(" AND competition = $%d", argIndex)
		args = append(args, filter.Competition)
		argIndex++
	}

	return where, args
}

// List returns a page of ticket requests matching the filter
func (r *PostgresTicketRequestRepository) List(ctx context.Context, filter *domain.TicketRequestFilter) ([]*domain.TicketRequest, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket_request.list")
	defer span.End()

	filter.Normalize()
	where, args := buildTicketRequestWhere(filter)

	var total int64
	countQuery := "SELECT COUNT(*) FROM ticket_requests " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to count ticket requests: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM ticket_requests %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		ticketRequestColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	requests, err := r.queryTicketRequests(ctx, query, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}

	span.SetAttributes(attribute.Int("result_count", len(requests)))
	span.SetStatus(codes.Ok, "")
	return requests, total, nil
}

// ListAll returns the full filtered set without pagination, for export
func (r *PostgresTicketRequestRepository) ListAll(ctx context.Context, filter *domain.TicketRequestFilter) ([]*domain.TicketRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket_request.list_all")
	defer span.End()

	where, args := buildTicketRequestWhere(filter)
	query := fmt.Sprintf(
		"SELECT %s FROM ticket_requests %s ORDER BY created_at DESC",
		ticketRequestColumns, where,
	)

	requests, err := r.queryTicketRequests(ctx, query, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("result_count", len(requests)))
	span.SetStatus(codes.Ok, "")
	return requests, nil
}

func (r *PostgresTicketRequestRepository) queryTicketRequests(ctx context.Context, query string, args []interface{}) ([]*domain.TicketRequest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*domain.TicketRequest, 0)
	for rows.Next() {
		req, err := scanTicketRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ticket requests: %w", err)
	}

	return requests, nil
}
