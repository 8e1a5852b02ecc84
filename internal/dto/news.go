package dto

import (
	"time"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
)

// CreateNewsPostRequest is the admin payload to create a news post
type CreateNewsPostRequest struct {
	Title     string `json:"title" binding:"required"`
	Body      string `json:"body" binding:"required"`
	Published bool   `json:"published"`
}

// ToDomain converts the request to a domain news post
func (r *CreateNewsPostRequest) ToDomain(authorID string) *domain.NewsPost {
	return &domain.NewsPost{
		Title:     r.Title,
		Body:      r.Body,
		AuthorID:  authorID,
		Published: r.Published,
	}
}

// UpdateNewsPostRequest is the admin payload to update a news post
type UpdateNewsPostRequest struct {
	Title     *string `json:"title"`
	Body      *string `json:"body"`
	Published *bool   `json:"published"`
}

// Apply overlays set fields onto an existing post
func (r *UpdateNewsPostRequest) Apply(n *domain.NewsPost) {
	if r.Title != nil {
		n.Title = *r.Title
	}
	if r.Body != nil {
		n.Body = *r.Body
	}
	if r.Published != nil {
		n.Published = *r.Published
	}
}

// NewsPostResponse is the API shape of a news post
type NewsPostResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	AuthorID  string    `json:"author_id"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewsPostResponseFromDomain converts a domain news post
func NewsPostResponseFromDomain(n *domain.NewsPost) *NewsPostResponse {
	return &NewsPostResponse{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		AuthorID:  n.AuthorID,
		Published: n.Published,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// NewsListFromDomain converts a slice of domain news posts
func NewsListFromDomain(posts []*domain.NewsPost) []*NewsPostResponse {
	out := make([]*NewsPostResponse, 0, len(posts))
	for _, n := range posts {
		out = append(out, NewsPostResponseFromDomain(n))
	}
	return out
}
