package domain

import "time"

// NewsPost is a club announcement
type NewsPost struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	AuthorID  string     `json:"author_id"`
	Published bool       `json:"published"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Validate checks news post fields
func (n *NewsPost) Validate() error {
	if n.Title == "" {
		return NewValidationError("title", "title is required")
	}
	if n.Body == "" {
		return NewValidationError("body", "body is required")
	}
	return nil
}
