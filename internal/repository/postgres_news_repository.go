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

// PostgresNewsRepository implements NewsRepository using PostgreSQL
type PostgresNewsRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresNewsRepository creates a new PostgresNewsRepository
func NewPostgresNewsRepository(pool *pgxpool.Pool) *PostgresNewsRepository {
	return &PostgresNewsRepository{pool: pool}
}

// Create inserts a news post
func (r *PostgresNewsRepository) Create(ctx context.Context, post *domain.NewsPost) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.news.create")
	defer span.End()

	span.SetAttributes(attribute.String("news_post_id", post.ID))

	query := `
		INSERT INTO news_posts (id, title, body, author_id, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		post.ID, post.Title, post.Body, post.AuthorID, post.Published, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create news post: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Update updates a news post
func (r *PostgresNewsRepository) Update(ctx context.Context, post *domain.NewsPost) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.news.update")
	defer span.End()

	span.SetAttributes(attribute.String("news_post_id", post.ID))

	query := `
		UPDATE news_posts
		SET title = $2, body = $3, published = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, post.ID, post.Title, post.Body, post.Published, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update news post: %w", err)
	}

	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrNewsPostNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves a non-deleted news post
func (r *PostgresNewsRepository) GetByID(ctx context.Context, id string) (*domain.NewsPost, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.news.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("news_post_id", id))

	query := `
		SELECT id, title, body, author_id, published, created_at, updated_at
		FROM news_posts
		WHERE id = $1 AND deleted_at IS NULL
	`

	post := &domain.NewsPost{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&post.ID, &post.Title, &post.Body, &post.AuthorID, &post.Published, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrNewsPostNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get news post: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return post, nil
}

// SoftDelete marks a news post deleted
func (r *PostgresNewsRepository) SoftDelete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.news.soft_delete")
	defer span.End()

	span.SetAttributes(attribute.String("news_post_id", id))

	query := `UPDATE news_posts SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete news post: %w", err)
	}

	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrNewsPostNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// List returns a page of news posts, optionally published only
func (r *PostgresNewsRepository) List(ctx context.Context, publishedOnly bool, page, pageSize int) ([]*domain.NewsPost, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.news.list")
	defer span.End()

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	where := "WHERE deleted_at IS NULL"
	if publishedOnly {
		where += " AND published = true"
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM news_posts "+where).Scan(&total); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to count news posts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, title, body, author_id, published, created_at, updated_at
		FROM news_posts %s
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, where)

	rows, err := r.pool.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to list news posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*domain.NewsPost, 0)
	for rows.Next() {
		post := &domain.NewsPost{}
		if err := rows.Scan(
			&post.ID, &post.Title, &post.Body, &post.AuthorID, &post.Published, &post.CreatedAt, &post.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, 0, fmt.Errorf("failed to scan news post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to iterate news posts: %w", err)
	}

	span.SetAttributes(attribute.Int("result_count", len(posts)))
	span.SetStatus(codes.Ok, "")
	return posts, total, nil
}
