package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/telemetry"
)

// PostgresEventRepository implements EventRepository using PostgreSQL with pgxpool
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

const eventColumns = `
	id, title, description, venue, category, start_time, end_time,
	ticket_price, member_only, away_day_event, is_active,
	max_attendees, current_attendees, created_at, updated_at
`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	event := &domain.Event{}
	var category string
	var endTime *time.Time
	var maxAttendees *int

	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Venue,
		&category,
		&event.StartTime,
		&endTime,
		&event.TicketPrice,
		&event.MemberOnly,
		&event.AwayDayEvent,
		&event.IsActive,
		&maxAttendees,
		&event.CurrentAttendees,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.Category = domain.EventCategory(category)
	event.EndTime = endTime
	event.MaxAttendees = maxAttendees
	return event, nil
}

// Create inserts a new event
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.create")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", event.ID))

	query := `
		INSERT INTO events (
			id, title, description, venue, category, start_time, end_time,
			ticket_price, member_only, away_day_event, is_active,
			max_attendees, current_attendees, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13, $14, $15
		)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.Venue,
		string(event.Category),
		event.StartTime,
		event.EndTime,
		event.TicketPrice,
		event.MemberOnly,
		event.AwayDayEvent,
		event.IsActive,
		event.MaxAttendees,
		event.CurrentAttendees,
		event.CreatedAt,
		event.UpdatedAt,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create event: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Update updates event fields. Capacity counters are not written here;
// they belong to the registration ledger.
func (r *PostgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.update")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", event.ID))

	query := `
		UPDATE events SET
			title = $2,
			description = $3,
			venue = $4,
			category = $5,
			start_time = $6,
			end_time = $7,
			ticket_price = $8,
			member_only = $9,
			away_day_event = $10,
			max_attendees = $11,
			updated_at = $12
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.Venue,
		string(event.Category),
		event.StartTime,
		event.EndTime,
		event.TicketPrice,
		event.MemberOnly,
		event.AwayDayEvent,
		event.MaxAttendees,
		time.Now(),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update event: %w", err)
	}

	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrEventNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves an event by its ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrEventNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return event, nil
}

// ListActive lists active events matching the filter
func (r *PostgresEventRepository) ListActive(ctx context.Context, filter *domain.EventFilter) ([]*domain.Event, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.list_active")
	defer span.End()

	filter.Normalize()

	where := "WHERE is_active = true"
	args := []interface{}{}
	argIndex := 1

	if filter.Search != "" {
		where += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d OR venue ILIKE $%d)", argIndex, argIndex, argIndex)
		args = append(args, "%"+escapeLikePattern(filter.Search)+"%")
		argIndex++
	}

	if filter.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, filter.Category)
		argIndex++
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM events " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM events %s ORDER BY start_time ASC LIMIT $%d OFFSET $%d",
		eventColumns, where, argIndex, argIndex+1,
	)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, 0, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to iterate events: %w", err)
	}

	span.SetAttributes(attribute.Int("result_count", len(events)))
	span.SetStatus(codes.Ok, "")
	return events, total, nil
}

// SetActive flips the soft-active flag
func (r *PostgresEventRepository) SetActive(ctx context.Context, id string, active bool) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.set_active")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", id),
		attribute.Bool("active", active),
	)

	query := `UPDATE events SET is_active = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, active, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to set event active: %w", err)
	}

	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrEventNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// escapeLikePattern neutralises LIKE/ILIKE metacharacters in user search
// input so a search for "100%" matches the literal text
func escapeLikePattern(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
