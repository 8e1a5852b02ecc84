package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/telemetry"
)

// PostgresRegistrationRepository implements RegistrationRepository using
// PostgreSQL. Register and Cancel run inside a single transaction that
// locks the event row, so concurrent registrations for the same event are
// serialised.
type PostgresRegistrationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistrationRepository creates a new PostgresRegistrationRepository
func NewPostgresRegistrationRepository(pool *pgxpool.Pool) *PostgresRegistrationRepository {
	return &PostgresRegistrationRepository{pool: pool}
}

// Register atomically checks capacity and inserts the registration
func (r *PostgresRegistrationRepository) Register(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.register")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the event row for the duration of the transaction
	var isActive bool
	var maxAttendees *int
	var currentAttendees int
	err = tx.QueryRow(ctx,
		`SELECT is_active, max_attendees, current_attendees FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&isActive, &maxAttendees, &currentAttendees)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "event not found")
			return nil, domain.ErrEventNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}

	if !isActive {
		span.SetStatus(codes.Error, "event inactive")
		return nil, domain.ErrEventInactive
	}

	if maxAttendees != nil && currentAttendees >= *maxAttendees {
		span.SetStatus(codes.Error, "event full")
		return nil, domain.ErrEventFull
	}

	// Reject a second active registration for the same pair
	var existing int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND user_id = $2 AND status != 'cancelled'`,
		eventID, userID,
	).Scan(&existing)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	}
	if existing > 0 {
		span.SetStatus(codes.Error, "already registered")
		return nil, domain.ErrAlreadyRegistered
	}

	now := time.Now()
	registration := &domain.Registration{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    userID,
		Status:    domain.RegistrationRegistered,
		CreatedAt: now,
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (id, event_id, user_id, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		registration.ID, registration.EventID, registration.UserID, string(registration.Status), registration.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to insert registration: %w", err)
	}

	// Conditional increment backstops the row lock
	tag, err := tx.Exec(ctx,
		`UPDATE events
		 SET current_attendees = current_attendees + 1, updated_at = $2
		 WHERE id = $1 AND (max_attendees IS NULL OR current_attendees < max_attendees)`,
		eventID, now,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to increment attendees: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "event full")
		return nil, domain.ErrEventFull
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return registration, nil
}

// Cancel atomically marks the active registration cancelled and decrements
// the counter with a floor at zero
func (r *PostgresRegistrationRepository) Cancel(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.cancel")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentAttendees int
	err = tx.QueryRow(ctx,
		`SELECT current_attendees FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&currentAttendees)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "event not found")
			return nil, domain.ErrEventNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}

	now := time.Now()
	registration := &domain.Registration{}
	var status string
	err = tx.QueryRow(ctx,
		`UPDATE registrations
		 SET status = 'cancelled', cancelled_at = $3
		 WHERE event_id = $1 AND user_id = $2 AND status != 'cancelled'
		 RETURNING id, event_id, user_id, status, created_at, cancelled_at`,
		eventID, userID, now,
	).Scan(
		&registration.ID,
		&registration.EventID,
		&registration.UserID,
		&status,
		&registration.CreatedAt,
		&registration.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "registration not found")
			return nil, domain.ErrRegistrationNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to cancel registration: %w", err)
	}
	registration.Status = domain.RegistrationStatus(status)

	// A held registration with a zero counter means the counter has
	// drifted. Surface it instead of clamping silently.
	if currentAttendees <= 0 {
		span.SetStatus(codes.Error, "counter drift")
		return nil, domain.ErrCounterDrift
	}

	_, err = tx.Exec(ctx,
		`UPDATE events
		 SET current_attendees = current_attendees - 1, updated_at = $2
		 WHERE id = $1 AND current_attendees > 0`,
		eventID, now,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to decrement attendees: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return registration, nil
}

// GetActive returns the active registration for a (event, user) pair
func (r *PostgresRegistrationRepository) GetActive(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.get_active")
	defer span.End()

	registration := &domain.Registration{}
	var status string
	err := r.pool.QueryRow(ctx,
		`SELECT id, event_id, user_id, status, created_at, cancelled_at
		 FROM registrations
		 WHERE event_id = $1 AND user_id = $2 AND status != 'cancelled'`,
		eventID, userID,
	).Scan(
		&registration.ID,
		&registration.EventID,
		&registration.UserID,
		&status,
		&registration.CreatedAt,
		&registration.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrRegistrationNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}

	registration.Status = domain.RegistrationStatus(status)
	span.SetStatus(codes.Ok, "")
	return registration, nil
}

// ListByUser returns all registrations (including cancelled) for a user,
// most recent first
func (r *PostgresRegistrationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.list_by_user")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	rows, err := r.pool.Query(ctx,
		`SELECT id, event_id, user_id, status, created_at, cancelled_at
		 FROM registrations
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	registrations := make([]*domain.Registration, 0)
	for rows.Next() {
		registration := &domain.Registration{}
		var status string
		if err := rows.Scan(
			&registration.ID,
			&registration.EventID,
			&registration.UserID,
			&status,
			&registration.CreatedAt,
			&registration.CancelledAt,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		registration.Status = domain.RegistrationStatus(status)
		registrations = append(registrations, registration)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate registrations: %w", err)
	}

	span.SetAttributes(attribute.Int("result_count", len(registrations)))
	span.SetStatus(codes.Ok, "")
	return registrations, nil
}

// ReconcileCounters recomputes current_attendees from the ledger and
// repairs drifted counters in one statement
func (r *PostgresRegistrationRepository) ReconcileCounters(ctx context.Context) ([]CounterRepair, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.reconcile_counters")
	defer span.End()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT e.id, e.current_attendees,
		       COALESCE(COUNT(r.id) FILTER (WHERE r.status != 'cancelled'), 0) AS actual
		FROM events e
		LEFT JOIN registrations r ON r.event_id = e.id
		GROUP BY e.id, e.current_attendees
		HAVING e.current_attendees != COALESCE(COUNT(r.id) FILTER (WHERE r.status != 'cancelled'), 0)
	`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to find drifted counters: %w", err)
	}

	repairs := make([]CounterRepair, 0)
	for rows.Next() {
		var repair CounterRepair
		if err := rows.Scan(&repair.EventID, &repair.OldCount, &repair.NewCount); err != nil {
			rows.Close()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan counter repair: %w", err)
		}
		repairs = append(repairs, repair)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate counter repairs: %w", err)
	}
	rows.Close()

	for _, repair := range repairs {
		// Recompute inside the UPDATE so a registration that landed after
		// the snapshot is not overwritten with a stale count
		if _, err := tx.Exec(ctx,
			`UPDATE events e
			 SET current_attendees = (
				SELECT COUNT(*) FROM registrations r
				WHERE r.event_id = e.id AND r.status != 'cancelled'
			 ), updated_at = NOW()
			 WHERE e.id = $1`,
			repair.EventID,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to repair counter for event %s: %w", repair.EventID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to commit reconciliation: %w", err)
	}

	span.SetAttributes(attribute.Int("repair_count", len(repairs)))
	span.SetStatus(codes.Ok, "")
	return repairs, nil
}
