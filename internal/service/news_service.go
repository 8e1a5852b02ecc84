package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/repository"
	"github.com/Ekalon-Solutions/rallyup-backend/pkg/telemetry"
)

// NewsService defines the interface for club news
type NewsService interface {
	// ListPublished returns a page of published posts
	ListPublished(ctx context.Context, page, pageSize int) ([]*domain.NewsPost, int64, error)

	// Get returns a post by ID
	Get(ctx context.Context, id string) (*domain.NewsPost, error)

	// Admin operations
	Create(ctx context.Context, caller domain.Identity, post *domain.NewsPost) (*domain.NewsPost, error)
	Update(ctx context.Context, caller domain.Identity, post *domain.NewsPost) (*domain.NewsPost, error)
	Delete(ctx context.Context, caller domain.Identity, id string) error
	Publish(ctx context.Context, caller domain.Identity, id string) (*domain.NewsPost, error)

	// ListAll returns every non-deleted post, drafts included (admin only)
	ListAll(ctx context.Context, caller domain.Identity, page, pageSize int) ([]*domain.NewsPost, int64, error)
}

// newsService implements NewsService
type newsService struct {
	repo repository.NewsRepository
}

// NewNewsService creates a new news service
func NewNewsService(repo repository.NewsRepository) NewsService {
	return &newsService{repo: repo}
}

// ListPublished returns a page of published posts
func (s *newsService) ListPublished(ctx context.Context, page, pageSize int) ([]*domain.NewsPost, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.news.list_published")
	defer span.End()

	posts, total, err := s.repo.List(ctx, true, page, pageSize)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}

	span.SetAttributes(attribute.Int("result_count", len(posts)))
	span.SetStatus(codes.Ok, "")
	return posts, total, nil
}

// Get returns a post by ID
func (s *newsService) Get(ctx context.Context, id string) (*domain.NewsPost, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.news.get")
	defer span.End()

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return post, nil
}

// Create creates a news post
func (s *newsService) Create(ctx context.Context, caller domain.Identity, post *domain.NewsPost) (*domain.NewsPost, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.news.create")
	defer span.End()

	if !caller.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}

	if err := post.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := time.Now()
	post.ID = uuid.New().String()
	post.AuthorID = caller.UserID
	post.CreatedAt = now
	post.UpdatedAt = now

	if err := s.repo.Create(ctx, post); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("news_post_id", post.ID))
	span.SetStatus(codes.Ok, "")
	return post, nil
}

// Update updates a news post
func (s *newsService) Update(ctx context.Context, caller domain.Identity, post *domain.NewsPost) (*domain.NewsPost, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.news.update")
	defer span.End()

	if !caller.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}

	if err := post.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.repo.Update(ctx, post); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, post.ID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return updated, nil
}

// Delete soft-deletes a news post
func (s *newsService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.news.delete")
	defer span.End()

	if !caller.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return domain.ErrForbidden
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("news_post_id", id))
	span.SetStatus(codes.Ok, "")
	return nil
}

// Publish flips a post to published
func (s *newsService) Publish(ctx context.Context, caller domain.Identity, id string) (*domain.NewsPost, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.news.publish")
	defer span.End()

	if !caller.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if post.Published {
		span.SetStatus(codes.Ok, "already published")
		return post, nil
	}

	post.Published = true
	if err := s.repo.Update(ctx, post); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return post, nil
}

// ListAll returns every non-deleted post, drafts included
func (s *newsService) ListAll(ctx context.Context, caller domain.Identity, page, pageSize int) ([]*domain.NewsPost, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.news.list_all")
	defer span.End()

	if !caller.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, 0, domain.ErrForbidden
	}

	posts, total, err := s.repo.List(ctx, false, page, pageSize)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}

	span.SetStatus(codes.Ok, "")
	return posts, total, nil
}
