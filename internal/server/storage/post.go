package storage

import (
	"context"

	"github.com/iudanet/gopherblog/internal/models"
)

// PostStorage defines interface for blog post persistence
type PostStorage interface {
	// CreatePost stores a new post
	CreatePost(ctx context.Context, post *models.Post) error

	// GetPost retrieves a post by ID
	// Returns ErrPostNotFound if post doesn't exist
	GetPost(ctx context.Context, id string) (*models.Post, error)

	// ListPosts returns all posts, newest first
	// Returns empty slice if no posts found
	ListPosts(ctx context.Context) ([]*models.Post, error)

	// SearchPosts returns posts whose title or content contains keyword
	// (case-insensitive for ASCII), newest first
	// Returns empty slice if nothing matches
	SearchPosts(ctx context.Context, keyword string) ([]*models.Post, error)

	// UpdatePost updates title, content and image of an existing post
	// Returns ErrPostNotFound if post doesn't exist
	UpdatePost(ctx context.Context, post *models.Post) error

	// DeletePost deletes post by ID
	// Returns ErrPostNotFound if post doesn't exist
	DeletePost(ctx context.Context, id string) error
}
